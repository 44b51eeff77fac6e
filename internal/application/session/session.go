package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/leonardou92/validarPago/internal/core/billing"
)

// Step identifies the wizard position. Steps advance only through the
// orchestrator.
type Step int

const (
	StepIdentityEntry     Step = 0
	StepInvoiceSelection  Step = 1
	StepBankSelection     Step = 2
	StepReviewAndValidate Step = 3
	StepManualConfirm     Step = 4
	StepAutoValidating    Step = 5
	StepComplete          Step = 6
)

// Notice kinds for success-shaped outcomes that are not errors.
const (
	NoticeNone           = ""
	NoticeCedulaRequired = "cedula_requerida"
	NoticeClientNotFound = "cliente_no_encontrado"
	NoticeNoDebts        = "sin_deudas"
)

// Notice is a blocking user notice (not an error) surfaced by the flow.
type Notice struct {
	Kind    string `json:"kind"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Session holds all state of one payment session, from cedula lookup to a
// completed or abandoned payment. It is owned by a single Orchestrator and
// reconstructed wholesale on restart; nothing survives a restart.
type Session struct {
	ID string

	CurrentStep Step

	Cedula   string
	Cliente  *billing.Cliente
	Telefono string

	Invoices    []billing.Invoice
	SelectedIDs map[string]bool
	Summary     billing.PaymentSummary

	AvailableBanks []billing.Bank
	BanksLoaded    bool
	SelectedBank   *billing.Bank
	BankDetails    *billing.BankDetails

	ReferenceNumber      string
	PushValidationResult *billing.PushValidationResult
	PaymentResult        *billing.PaymentResult

	IsPushValidating  bool
	IsManualReference bool

	// One-shot latches; never reset except by restart.
	HasAttemptedPayment   bool
	HasCreatedPushPayment bool

	APIError string
	Aviso    *Notice
}

// NewSession builds a fresh session in its initial state.
func NewSession() *Session {
	return &Session{
		ID:          uuid.NewString(),
		CurrentStep: StepIdentityEntry,
		SelectedIDs: make(map[string]bool),
		Summary:     billing.PaymentSummary{SelectedInvoices: []billing.Invoice{}},
	}
}

// recomputeSummary rebuilds the derived payment summary. Called by every
// mutator that touches the invoice list or the selection set, so consumers
// always read a consistent value.
func (s *Session) recomputeSummary(now time.Time) {
	s.Summary = billing.Summarize(s.Invoices, s.SelectedIDs, now)
}

// replaceInvoices swaps in a freshly fetched working set and drops any
// previous selection.
func (s *Session) replaceInvoices(invoices []billing.Invoice, now time.Time) {
	s.Invoices = invoices
	s.SelectedIDs = make(map[string]bool)
	s.recomputeSummary(now)
}

// canGoBack reports whether the current step is considered abandonable.
func (s *Session) canGoBack() bool {
	return (s.CurrentStep > StepIdentityEntry && s.CurrentStep < StepReviewAndValidate) ||
		s.CurrentStep == StepManualConfirm
}

// Snapshot is the read-only view of a session handed to presentation
// consumers. Field names follow the wire contract of the wizard API.
type Snapshot struct {
	SessionID   string `json:"sessionId"`
	CurrentStep int    `json:"currentStep"`

	Cedula     string           `json:"cedula"`
	ClientData *billing.Cliente `json:"clientData,omitempty"`
	Telefono   string           `json:"telefono,omitempty"`

	Invoices           []billing.Invoice      `json:"invoices"`
	SelectedInvoiceIDs []string               `json:"selectedInvoiceIds"`
	PaymentSummary     billing.PaymentSummary `json:"paymentSummary"`

	AvailableBanks []billing.Bank       `json:"availableBanks"`
	BanksLoaded    bool                 `json:"banksLoaded"`
	SelectedBank   *billing.Bank        `json:"selectedBank,omitempty"`
	BankDetails    *billing.BankDetails `json:"bankDetails,omitempty"`

	ReferenceNumber      string                        `json:"referenceNumber,omitempty"`
	PushValidationResult *billing.PushValidationResult `json:"pushReferenceValidationResult,omitempty"`
	PaymentResult        *billing.PaymentResult        `json:"paymentCreationResult,omitempty"`

	IsPushValidating  bool `json:"isPushValidating"`
	IsManualReference bool `json:"isManualReference"`

	APIError    string  `json:"apiError,omitempty"`
	Aviso       *Notice `json:"aviso,omitempty"`
	PuedeVolver bool    `json:"puedeVolver"`
}

// snapshot copies the session into a detached view. Slices are copied so
// later mutations never race a consumer still holding the snapshot.
func (s *Session) snapshot() Snapshot {
	selected := make([]string, 0, len(s.SelectedIDs))
	for _, inv := range s.Invoices {
		if s.SelectedIDs[inv.ID] {
			selected = append(selected, inv.ID)
		}
	}

	invoices := make([]billing.Invoice, len(s.Invoices))
	copy(invoices, s.Invoices)
	banks := make([]billing.Bank, len(s.AvailableBanks))
	copy(banks, s.AvailableBanks)

	summary := s.Summary
	summary.SelectedInvoices = make([]billing.Invoice, len(s.Summary.SelectedInvoices))
	copy(summary.SelectedInvoices, s.Summary.SelectedInvoices)

	return Snapshot{
		SessionID:            s.ID,
		CurrentStep:          int(s.CurrentStep),
		Cedula:               s.Cedula,
		ClientData:           s.Cliente,
		Telefono:             s.Telefono,
		Invoices:             invoices,
		SelectedInvoiceIDs:   selected,
		PaymentSummary:       summary,
		AvailableBanks:       banks,
		BanksLoaded:          s.BanksLoaded,
		SelectedBank:         s.SelectedBank,
		BankDetails:          s.BankDetails,
		ReferenceNumber:      s.ReferenceNumber,
		PushValidationResult: s.PushValidationResult,
		PaymentResult:        s.PaymentResult,
		IsPushValidating:     s.IsPushValidating,
		IsManualReference:    s.IsManualReference,
		APIError:             s.APIError,
		Aviso:                s.Aviso,
		PuedeVolver:          s.canGoBack(),
	}
}
