package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leonardou92/validarPago/internal/core/audit"
)

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL payment audit repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) audit.Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists one payment attempt record.
func (r *Repository) Save(ctx context.Context, attempt audit.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (
			session_id, cedula, monto, id_forma_pago, id_importacion,
			status, message, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.SessionID,
		attempt.Cedula,
		attempt.Monto,
		attempt.IDFormaPago,
		attempt.IDImportacion,
		attempt.Status,
		attempt.Message,
		attempt.Reference,
		attempt.CreatedAt,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert payment attempt",
				"session_id", attempt.SessionID,
				"cedula", attempt.Cedula,
				"status", attempt.Status,
				"error", err,
			)
		}
		return fmt.Errorf("insert payment attempt: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Payment attempt saved",
			"session_id", attempt.SessionID,
			"status", attempt.Status,
			"reference", attempt.Reference,
		)
	}

	return nil
}

// FindBySessionID retrieves all payment attempts recorded for a session,
// newest first.
func (r *Repository) FindBySessionID(ctx context.Context, sessionID string) ([]audit.PaymentAttempt, error) {
	query := `
		SELECT id, session_id, cedula, monto, id_forma_pago, id_importacion,
		       status, message, reference, created_at
		FROM payment_attempts
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query payment attempts: %w", err)
	}
	defer rows.Close()

	var attempts []audit.PaymentAttempt
	for rows.Next() {
		var a audit.PaymentAttempt
		err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.Cedula,
			&a.Monto,
			&a.IDFormaPago,
			&a.IDImportacion,
			&a.Status,
			&a.Message,
			&a.Reference,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return attempts, nil
}
