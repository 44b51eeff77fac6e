package billing

import "context"

// ClienteResponse is the success-shaped result of a client lookup.
// Status=false with no Cliente means "not found", which is an outcome,
// not an error.
type ClienteResponse struct {
	Status  bool     `json:"status"`
	Message string   `json:"message"`
	Cliente *Cliente `json:"cliente,omitempty"`
}

// PushValidationRequest carries the parameters of one push-reference
// validation round.
type PushValidationRequest struct {
	Monto    string
	Banco    string
	Fecha    string // YYYY-MM-DD, local calendar date
	Cedula   string
	Telefono string
}

// PaymentRequest carries the parameters for creating the payment record.
type PaymentRequest struct {
	Monto         float64
	IDFormaPago   string
	Fecha         string
	Cedula        string
	IDCliente     int64
	TasaCambio    float64
	IDImportacion int64
	InvoiceIDs    []int64
}

// Gateway is the port to the remote payment service. Implementations are
// pure I/O: no business decisions, every failure wrapped with the
// operation name.
type Gateway interface {
	// SearchClient looks up the client record for a cedula.
	SearchClient(ctx context.Context, cedula string) (ClienteResponse, error)
	// GetInvoices lists the outstanding invoices for a cedula. An absent
	// facturas field in the response is an error, an empty list is not.
	GetInvoices(ctx context.Context, cedula string) ([]Invoice, error)
	// GetBanks lists the banks/payment methods configured for a cedula.
	GetBanks(ctx context.Context, cedula string) ([]Bank, error)
	// ValidateReference validates a user-entered payment reference.
	ValidateReference(ctx context.Context, reference, monto, banco, fecha string) (PushValidationResult, error)
	// ValidatePushReference checks whether a matching push-payment
	// notification has arrived at the remote system.
	ValidatePushReference(ctx context.Context, req PushValidationRequest) (PushValidationResult, error)
	// CreatePushPayment creates the payment record. Called at most once
	// per session by the orchestrator.
	CreatePushPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}
