// Package empresa exposes the collecting company's display information.
package empresa

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/leonardou92/validarPago/internal/core/billing"
	httperrors "github.com/leonardou92/validarPago/internal/infrastructure/http"
)

// InfoProvider fetches the company display information.
type InfoProvider interface {
	GetInfo(ctx context.Context) (billing.CompanyInfo, error)
}

// Handler serves GET /api/empresa.
type Handler struct {
	provider InfoProvider
	log      *slog.Logger
}

// NewHandler creates a new company info HTTP handler. A nil provider means
// the endpoint is not configured and answers 503.
func NewHandler(provider InfoProvider, log *slog.Logger) *Handler {
	return &Handler{provider: provider, log: log}
}

func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no disponible", []string{"La información de la empresa no está configurada"}, h.log)
		return
	}

	info, err := h.provider.GetInfo(r.Context())
	if err != nil {
		h.log.Error("failed to fetch company info", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "Servicio no disponible", []string{"No se pudo obtener la información de la empresa"}, h.log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}
