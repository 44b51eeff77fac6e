package audit

import (
	"context"
	"time"
)

// PaymentAttempt is an audit record for a payment creation attempt.
// One row per attempt, written regardless of outcome.
type PaymentAttempt struct {
	ID            int64
	SessionID     string
	Cedula        string
	Monto         float64
	IDFormaPago   string
	IDImportacion *int64
	Status        bool
	Message       string
	Reference     string
	CreatedAt     time.Time
}

// Repository defines the contract for persisting payment audit records.
// A nil repository means auditing is disabled; callers must tolerate that.
type Repository interface {
	// Save persists a payment attempt record.
	Save(ctx context.Context, attempt PaymentAttempt) error

	// FindBySessionID retrieves all attempts recorded for a session.
	FindBySessionID(ctx context.Context, sessionID string) ([]PaymentAttempt, error)
}
