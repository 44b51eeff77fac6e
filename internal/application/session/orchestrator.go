package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/leonardou92/validarPago/internal/core/audit"
	"github.com/leonardou92/validarPago/internal/core/billing"
	"github.com/leonardou92/validarPago/internal/infrastructure/security"
)

// ValidationError is a blocking input-validation notice. It is surfaced to
// the user before any remote call and never logged as a system error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Spanish user notices. These are the only texts shown for input
// validation; transport failures carry the wrapped remote message instead.
const (
	msgCedulaRequerida     = "Por favor, ingrese el tipo y número de cédula."
	msgSinSeleccion        = "Por favor, seleccione al menos una deuda antes de continuar."
	msgBancoRequerido      = "Por favor, seleccione un banco."
	msgReferenciaRequerida = "Por favor, ingrese el número de referencia."

	msgClienteNoEncontrado = "Cliente no encontrado."
	msgSinDeudasTitulo     = "¡Felicidades!"
	msgSinDeudas           = "No encontramos deudas pendientes. ¡Gracias por estar al día con tus pagos!"

	msgFaltaImportacion   = "Falta el id de importación o la validación falló."
	msgFaltaCliente       = "Falta el id del cliente."
	msgFaltaBanco         = "No hay banco seleccionado."
	msgBancosNoCargados   = "Los bancos disponibles no están cargados."
	msgFormaPagoNoHallada = "Método de pago no encontrado para el banco seleccionado."
	msgSinFormaPago       = "El banco seleccionado no tiene forma de pago configurada."
	msgFaltanDatosPush    = "Faltan datos para la validación de referencia."
)

// Config assembles an Orchestrator.
type Config struct {
	Gateway      billing.Gateway
	AuditRepo    audit.Repository // optional, nil disables auditing
	Logger       *slog.Logger
	PollInterval time.Duration // push validation cadence, default 2s
	SettleDelay  time.Duration // pause between validation success and payment creation, default 3s
	Now          func() time.Time
}

// Orchestrator owns the session and drives every step transition. All
// session mutations are serialized behind one mutex: the polling tick, the
// settle callback and the API handlers never interleave partial updates,
// mirroring a single logical timeline.
type Orchestrator struct {
	mu sync.Mutex

	gw        billing.Gateway
	auditRepo audit.Repository
	log       *slog.Logger
	now       func() time.Time

	pollInterval time.Duration
	settleDelay  time.Duration

	sess        *Session
	pollCancel  context.CancelFunc
	settleTimer *time.Timer
}

// NewOrchestrator builds an orchestrator with a fresh session.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 3 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Orchestrator{
		gw:           cfg.Gateway,
		auditRepo:    cfg.AuditRepo,
		log:          cfg.Logger,
		now:          cfg.Now,
		pollInterval: cfg.PollInterval,
		settleDelay:  cfg.SettleDelay,
		sess:         NewSession(),
	}
}

// Snapshot returns a detached view of the current session.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.snapshot()
}

// CurrentStep reports the live session id and wizard position.
func (o *Orchestrator) CurrentStep() (string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.ID, int(o.sess.CurrentStep)
}

// Lookup resolves a cedula into a client record and its outstanding
// invoices. Not-found and no-debts outcomes stay at step 0 with a notice;
// only transitions to step 1 when the invoice list is non-empty.
func (o *Orchestrator) Lookup(ctx context.Context, cedulaType, cedulaNumber string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cedulaType == "" || cedulaNumber == "" {
		return &ValidationError{Message: msgCedulaRequerida}
	}

	cedula := cedulaType + cedulaNumber
	sess := o.sess
	sess.Cedula = cedula
	sess.Aviso = nil
	sess.APIError = ""

	resp, err := o.gw.SearchClient(ctx, cedula)
	if err != nil {
		o.log.Error("client lookup failed", "session_id", sess.ID, "cedula", security.MaskCedula(cedula), "error", err)
		sess.APIError = err.Error()
		o.clearBankStateLocked()
		return nil
	}

	if !resp.Status || resp.Cliente == nil {
		sess.Aviso = &Notice{Kind: NoticeClientNotFound, Message: msgClienteNoEncontrado}
		o.clearBankStateLocked()
		return nil
	}

	sess.Cliente = resp.Cliente
	if sess.Telefono == "" {
		sess.Telefono = resp.Cliente.Telefono
	}

	invoices, err := o.gw.GetInvoices(ctx, cedula)
	if err != nil {
		o.log.Error("invoice fetch failed", "session_id", sess.ID, "cedula", security.MaskCedula(cedula), "error", err)
		sess.APIError = err.Error()
		sess.replaceInvoices(nil, o.now())
		return nil
	}

	sess.replaceInvoices(invoices, o.now())

	if len(invoices) == 0 {
		sess.Aviso = &Notice{Kind: NoticeNoDebts, Title: msgSinDeudasTitulo, Message: msgSinDeudas}
		return nil
	}

	sess.CurrentStep = StepInvoiceSelection
	o.log.Info("identity resolved", "session_id", sess.ID, "cedula", security.MaskCedula(cedula), "invoices", len(invoices))
	return nil
}

// Invoices derives the filtered, sorted invoice view.
func (o *Orchestrator) Invoices(q billing.ListQuery) []billing.Invoice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return billing.FilterAndSort(o.sess.Invoices, q, o.now())
}

// ToggleInvoice adds or removes one invoice from the selection.
func (o *Orchestrator) ToggleInvoice(id string, selected bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if selected {
		o.sess.SelectedIDs[id] = true
	} else {
		delete(o.sess.SelectedIDs, id)
	}
	o.sess.recomputeSummary(o.now())
}

// SelectAll marks every fetched invoice as selected.
func (o *Orchestrator) SelectAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, inv := range o.sess.Invoices {
		o.sess.SelectedIDs[inv.ID] = true
	}
	o.sess.recomputeSummary(o.now())
}

// SelectOverdue replaces the selection with the overdue invoices.
func (o *Orchestrator) SelectOverdue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	o.sess.SelectedIDs = make(map[string]bool)
	for _, inv := range o.sess.Invoices {
		if inv.Status(now) == billing.StatusOverdue {
			o.sess.SelectedIDs[inv.ID] = true
		}
	}
	o.sess.recomputeSummary(now)
}

// ClearSelection empties the selection set.
func (o *Orchestrator) ClearSelection() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.SelectedIDs = make(map[string]bool)
	o.sess.recomputeSummary(o.now())
}

// SetTelefono overrides the phone number used for push validation.
func (o *Orchestrator) SetTelefono(telefono string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.Telefono = telefono
	o.log.Debug("telefono updated", "session_id", o.sess.ID, "telefono", security.MaskTelefono(telefono))
	o.maybeStartPollingLocked()
}

// Next advances from invoice selection to bank selection. Requires a
// non-empty selection and a successful bank fetch; a fetch failure aborts
// the transition and leaves the error on the session.
func (o *Orchestrator) Next(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	if sess.CurrentStep != StepInvoiceSelection {
		return &ValidationError{Message: fmt.Sprintf("no hay transición siguiente desde el paso %d", sess.CurrentStep)}
	}
	if len(sess.SelectedIDs) == 0 {
		return &ValidationError{Message: msgSinSeleccion}
	}

	sess.recomputeSummary(o.now())

	banks, err := o.gw.GetBanks(ctx, sess.Cedula)
	if err != nil {
		o.log.Error("bank fetch failed", "session_id", sess.ID, "cedula", security.MaskCedula(sess.Cedula), "error", err)
		sess.APIError = err.Error()
		o.clearBankStateLocked()
		return nil
	}

	sess.AvailableBanks = banks
	sess.BanksLoaded = true
	sess.APIError = ""
	sess.CurrentStep = StepBankSelection
	return nil
}

// SelectBank sets the active bank, snapshots its instructions and advances
// unconditionally to review.
func (o *Orchestrator) SelectBank(bankID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	var bank *billing.Bank
	for i := range sess.AvailableBanks {
		if sess.AvailableBanks[i].ID == bankID {
			bank = &sess.AvailableBanks[i]
			break
		}
	}
	if bank == nil {
		return &ValidationError{Message: msgBancoRequerido}
	}

	sess.SelectedBank = bank
	sess.BankDetails = &billing.BankDetails{Message: bank.Message, QRImage: bank.QRImage}
	sess.CurrentStep = StepReviewAndValidate

	o.maybeStartPollingLocked()
	return nil
}

// EnterManualMode permanently disables automatic polling for this session
// and moves to the manual confirmation step.
func (o *Orchestrator) EnterManualMode() {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	sess.IsManualReference = true
	sess.IsPushValidating = false
	o.stopPollingLocked()

	if sess.CurrentStep == StepReviewAndValidate {
		sess.CurrentStep = StepManualConfirm
	}
}

// ValidateManualReference validates a user-entered payment reference
// against the remote service.
func (o *Orchestrator) ValidateManualReference(ctx context.Context, reference string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	if sess.SelectedBank == nil {
		return &ValidationError{Message: msgBancoRequerido}
	}
	if reference == "" {
		return &ValidationError{Message: msgReferenciaRequerida}
	}

	monto := strconv.FormatFloat(sess.Summary.TotalAmount, 'f', -1, 64)
	result, err := o.gw.ValidateReference(ctx, reference, monto, sess.SelectedBank.BankCode, o.localDate())
	if err != nil {
		o.log.Error("manual reference validation failed", "session_id", sess.ID, "error", err)
		sess.APIError = err.Error()
		return nil
	}
	if !result.Status {
		return &ValidationError{Message: result.Message}
	}

	sess.ReferenceNumber = reference
	sess.IsPushValidating = false
	return nil
}

// Back decrements the step, clamped at 0. Leaving invoice selection also
// clears the stored identity so a fresh lookup is required.
func (o *Orchestrator) Back() {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	o.stopPollingLocked()
	sess.IsPushValidating = false

	from := sess.CurrentStep
	if sess.CurrentStep > StepIdentityEntry {
		sess.CurrentStep--
	}
	if from == StepInvoiceSelection {
		sess.Cedula = ""
		sess.Cliente = nil
		sess.Aviso = nil
	}

	o.maybeStartPollingLocked()
}

// Restart drops every entity and flag by rebuilding the session wholesale.
func (o *Orchestrator) Restart() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopPollingLocked()
	o.stopSettleLocked()
	old := o.sess.ID
	o.sess = NewSession()
	o.log.Info("session restarted", "old_session_id", old, "session_id", o.sess.ID)
}

// Close tears the orchestrator down, cancelling any scheduled work.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopPollingLocked()
	o.stopSettleLocked()
}

// clearBankStateLocked resets bank data so stale entries are never shown
// as valid after a failure.
func (o *Orchestrator) clearBankStateLocked() {
	o.sess.AvailableBanks = nil
	o.sess.BanksLoaded = false
	o.sess.SelectedBank = nil
}

func (o *Orchestrator) localDate() string {
	return o.now().Format("2006-01-02")
}

// maybeStartPollingLocked arms the push-reference polling loop when every
// precondition holds. A previous poller is always cancelled first so only
// one loop is ever live.
func (o *Orchestrator) maybeStartPollingLocked() {
	sess := o.sess
	if sess.CurrentStep != StepReviewAndValidate ||
		sess.IsManualReference ||
		sess.HasAttemptedPayment ||
		sess.SelectedBank == nil ||
		sess.Cedula == "" ||
		sess.Telefono == "" {
		return
	}

	o.stopPollingLocked()

	ctx, cancel := context.WithCancel(context.Background())
	o.pollCancel = cancel
	sess.IsPushValidating = true
	sess.PushValidationResult = nil

	o.log.Debug("push validation polling armed", "session_id", sess.ID, "interval", o.pollInterval)
	go o.pollLoop(ctx)
}

func (o *Orchestrator) stopPollingLocked() {
	if o.pollCancel != nil {
		o.pollCancel()
		o.pollCancel = nil
	}
}

func (o *Orchestrator) stopSettleLocked() {
	if o.settleTimer != nil {
		o.settleTimer.Stop()
		o.settleTimer = nil
	}
}

func (o *Orchestrator) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !o.pollTick(ctx) {
				return
			}
		}
	}
}

// pollTick performs one validation round. Returns false when the loop must
// stop. The whole round runs under the session mutex: the validation call
// never overlaps another session mutation.
func (o *Orchestrator) pollTick(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	sess := o.sess
	if sess.HasAttemptedPayment || sess.IsManualReference || sess.CurrentStep != StepReviewAndValidate {
		o.stopPollingLocked()
		return false
	}

	if sess.SelectedBank == nil || sess.Cedula == "" || sess.Telefono == "" {
		o.log.Warn("push validation missing data", "session_id", sess.ID)
		sess.IsPushValidating = false
		sess.PushValidationResult = &billing.PushValidationResult{Status: false, Message: msgFaltanDatosPush}
		o.stopPollingLocked()
		return false
	}

	req := billing.PushValidationRequest{
		Monto:    strconv.FormatFloat(sess.Summary.TotalAmount, 'f', -1, 64),
		Banco:    sess.SelectedBank.BankCode,
		Fecha:    o.localDate(),
		Cedula:   sess.Cedula,
		Telefono: sess.Telefono,
	}

	result, err := o.gw.ValidatePushReference(ctx, req)
	if err != nil {
		o.log.Error("push validation failed", "session_id", sess.ID, "error", err)
		sess.IsPushValidating = false
		sess.PushValidationResult = &billing.PushValidationResult{
			Status:  false,
			Message: fmt.Sprintf("Validación fallida: %v", err),
		}
		o.stopPollingLocked()
		return false
	}

	o.setPushValidationResultLocked(result)
	return o.pollCancel != nil
}

// setPushValidationResultLocked stores the latest validation result and
// performs the follow-up transition when the remote system matched a push
// payment: stop polling, move to the validating screen and schedule the
// single payment creation after the settle delay.
func (o *Orchestrator) setPushValidationResultLocked(result billing.PushValidationResult) {
	sess := o.sess
	sess.PushValidationResult = &result

	if !result.Status || result.ImportID == nil || sess.HasCreatedPushPayment {
		return
	}

	sess.IsPushValidating = false
	o.stopPollingLocked()
	sess.CurrentStep = StepAutoValidating
	o.log.Info("push reference matched", "session_id", sess.ID, "import_id", *result.ImportID)

	o.stopSettleLocked()
	scheduled := sess
	o.settleTimer = time.AfterFunc(o.settleDelay, func() {
		o.createPushPayment(context.Background(), scheduled)
	})
}

// createPushPayment performs the guarded, at-most-once payment creation.
// The latches are set before anything else so any later trigger observes
// them and no-ops.
func (o *Orchestrator) createPushPayment(ctx context.Context, scheduled *Session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.sess
	if sess != scheduled {
		// The session was rebuilt after this callback was scheduled.
		return
	}
	if sess.HasAttemptedPayment {
		o.log.Debug("payment already attempted, skipping", "session_id", sess.ID)
		return
	}
	sess.HasAttemptedPayment = true
	sess.HasCreatedPushPayment = true
	sess.IsPushValidating = false
	o.stopPollingLocked()

	fail := func(message string) {
		o.log.Error("payment precondition failed", "session_id", sess.ID, "reason", message)
		sess.APIError = message
		sess.PaymentResult = &billing.PaymentResult{Status: false, Message: message}
		sess.CurrentStep = StepReviewAndValidate
		o.recordAttemptLocked(ctx, nil, *sess.PaymentResult)
	}

	if sess.PushValidationResult == nil || sess.PushValidationResult.ImportID == nil {
		fail(msgFaltaImportacion)
		return
	}
	importID := *sess.PushValidationResult.ImportID
	if sess.Cliente == nil {
		fail(msgFaltaCliente)
		return
	}
	if sess.SelectedBank == nil {
		fail(msgFaltaBanco)
		return
	}
	if len(sess.AvailableBanks) == 0 {
		fail(msgBancosNoCargados)
		return
	}

	var method *billing.Bank
	for i := range sess.AvailableBanks {
		if sess.AvailableBanks[i].ID == sess.SelectedBank.ID {
			method = &sess.AvailableBanks[i]
			break
		}
	}
	if method == nil {
		fail(msgFormaPagoNoHallada)
		return
	}
	if method.PaymentMethodID == "" {
		fail(msgSinFormaPago)
		return
	}

	tasaCambio := 0.0
	if len(sess.Summary.SelectedInvoices) > 0 {
		tasaCambio = sess.Summary.SelectedInvoices[0].TasaCambio
	}

	invoiceIDs := make([]int64, 0, len(sess.Summary.SelectedInvoices))
	for _, inv := range sess.Summary.SelectedInvoices {
		id, err := strconv.ParseInt(inv.ID, 10, 64)
		if err != nil {
			o.log.Warn("non-numeric invoice id skipped", "session_id", sess.ID, "invoice_id", inv.ID)
			continue
		}
		invoiceIDs = append(invoiceIDs, id)
	}

	req := billing.PaymentRequest{
		Monto:         sess.Summary.TotalAmount,
		IDFormaPago:   method.PaymentMethodID,
		Fecha:         o.localDate(),
		Cedula:        sess.Cliente.RifFiscal,
		IDCliente:     sess.Cliente.ID,
		TasaCambio:    tasaCambio,
		IDImportacion: importID,
		InvoiceIDs:    invoiceIDs,
	}

	o.log.Info("creating push payment",
		"session_id", sess.ID,
		"monto", req.Monto,
		"forma_pago", req.IDFormaPago,
		"import_id", req.IDImportacion,
		"invoice_count", len(req.InvoiceIDs),
	)

	result, err := o.gw.CreatePushPayment(ctx, req)
	if err != nil {
		o.log.Error("payment creation failed", "session_id", sess.ID, "error", err)
		sess.APIError = err.Error()
		sess.PaymentResult = &billing.PaymentResult{Status: false, Message: err.Error()}
		sess.PushValidationResult = nil
		sess.CurrentStep = StepReviewAndValidate
		o.recordAttemptLocked(ctx, &req, *sess.PaymentResult)
		return
	}

	sess.PaymentResult = &result
	if result.Status {
		sess.CurrentStep = StepComplete
		o.log.Info("payment created", "session_id", sess.ID, "reference", result.Reference)
	} else {
		o.log.Error("payment rejected", "session_id", sess.ID, "message", result.Message)
		sess.APIError = result.Message
		sess.PushValidationResult = nil
		sess.CurrentStep = StepReviewAndValidate
	}
	o.recordAttemptLocked(ctx, &req, result)
}

// recordAttemptLocked writes a best-effort audit row. Audit failures are
// logged and never surfaced to the session.
func (o *Orchestrator) recordAttemptLocked(ctx context.Context, req *billing.PaymentRequest, result billing.PaymentResult) {
	if o.auditRepo == nil {
		return
	}

	sess := o.sess
	attempt := audit.PaymentAttempt{
		SessionID: sess.ID,
		Cedula:    sess.Cedula,
		Status:    result.Status,
		Message:   result.Message,
		Reference: result.Reference,
		CreatedAt: o.now().UTC(),
	}
	if req != nil {
		attempt.Monto = req.Monto
		attempt.IDFormaPago = req.IDFormaPago
		attempt.IDImportacion = &req.IDImportacion
	}

	if err := o.auditRepo.Save(ctx, attempt); err != nil {
		o.log.Error("failed to save payment audit record", "session_id", sess.ID, "error", err)
	}
}
