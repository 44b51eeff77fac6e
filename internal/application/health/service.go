package health

import (
	"context"
	"time"

	corehealth "github.com/leonardou92/validarPago/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// SessionReporter reports the live wizard position for the health view.
type SessionReporter interface {
	CurrentStep() (sessionID string, step int)
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	reporter  SessionReporter
	startedAt time.Time
}

// NewService creates a health service. reporter may be nil when no session
// orchestrator is wired (e.g. in isolated tests).
func NewService(meta Metadata, reporter SessionReporter) *Service {
	return &Service{
		meta:      meta,
		reporter:  reporter,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot.
func (s *Service) Status(_ context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      "UP",
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	if s.reporter != nil {
		status.SessionID, status.CurrentStep = s.reporter.CurrentStep()
	}

	return status
}
