package billing

import "time"

// Invoice status values as exposed to clients.
const (
	StatusOverdue = "overdue"
	StatusPending = "pending"
)

// Invoice represents an outstanding debt fetched for a cedula.
// Invoices are immutable once fetched; the working set is replaced
// wholesale on each successful lookup.
type Invoice struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoiceNumber"`
	DueDate       string  `json:"dueDate"` // YYYY-MM-DD
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Supplier      string  `json:"supplier"`
	Category      string  `json:"category"`
	TasaCambio    float64 `json:"tasaCambio"`
}

// Due parses the invoice due date. A malformed date yields the zero time,
// which classifies the invoice as overdue rather than hiding it.
func (i Invoice) Due() time.Time {
	t, err := time.Parse("2006-01-02", i.DueDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Status derives the invoice state relative to now: overdue when the due
// date is strictly before now, pending otherwise.
func (i Invoice) Status(now time.Time) string {
	if i.Due().Before(now) {
		return StatusOverdue
	}
	return StatusPending
}

// Cliente is the client record returned by the remote lookup.
type Cliente struct {
	ID        int64  `json:"id"`
	RifFiscal string `json:"rif_fiscal"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
}

// Bank is a payment method/bank available for the session.
type Bank struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ShortName       string `json:"shortName"`
	BankCode        string `json:"bankCode"`
	PaymentMethodID string `json:"paymentMethodId"`
	Message         string `json:"message"`
	QRImage         string `json:"qrImage,omitempty"`
}

// BankDetails is the instruction snapshot taken when a bank is selected.
type BankDetails struct {
	Message string `json:"message"`
	QRImage string `json:"qrImage,omitempty"`
}

// PushValidationResult is the outcome of one push-reference validation
// round trip. ImportID is only present once the remote system matched a
// push-payment notification.
type PushValidationResult struct {
	Status   bool   `json:"status"`
	Message  string `json:"message"`
	ImportID *int64 `json:"id,omitempty"`
}

// PaymentResult is the terminal artifact of a payment creation attempt.
type PaymentResult struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// CompanyInfo is the display information of the collecting company.
type CompanyInfo struct {
	Empresa     string `json:"empresa"`
	Descripcion string `json:"descripcion"`
	LogoEmpresa string `json:"logoEmpresa,omitempty"`
	Direccion   string `json:"direccion,omitempty"`
}
