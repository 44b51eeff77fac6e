// Package wizard exposes the payment session over HTTP. Handlers are thin:
// every decision lives in the session orchestrator, the handlers only
// translate requests and surface the resulting snapshot.
package wizard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appsession "github.com/leonardou92/validarPago/internal/application/session"
	"github.com/leonardou92/validarPago/internal/core/billing"
	httperrors "github.com/leonardou92/validarPago/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the session orchestrator.
type Handler struct {
	orch *appsession.Orchestrator
	log  *slog.Logger
}

// NewHandler creates a new wizard HTTP handler.
func NewHandler(orch *appsession.Orchestrator, log *slog.Logger) *Handler {
	return &Handler{orch: orch, log: log}
}

// Routes mounts the session endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetSession)
	r.Post("/buscar", h.Buscar)
	r.Get("/facturas", h.GetFacturas)
	r.Post("/facturas/seleccion", h.ToggleFactura)
	r.Post("/facturas/seleccionar-todas", h.SeleccionarTodas)
	r.Post("/facturas/seleccionar-vencidas", h.SeleccionarVencidas)
	r.Post("/facturas/limpiar-seleccion", h.LimpiarSeleccion)
	r.Get("/resumen", h.GetResumen)
	r.Post("/siguiente", h.Siguiente)
	r.Post("/banco", h.SeleccionarBanco)
	r.Post("/telefono", h.SetTelefono)
	r.Post("/referencia-manual", h.ReferenciaManual)
	r.Post("/validar-referencia", h.ValidarReferencia)
	r.Post("/volver", h.Volver)
	r.Post("/reiniciar", h.Reiniciar)

	return r
}

type buscarRequest struct {
	TipoCedula   string `json:"tipoCedula"`
	NumeroCedula string `json:"numeroCedula"`
}

type seleccionRequest struct {
	InvoiceID string `json:"invoiceId"`
	Selected  bool   `json:"selected"`
}

type bancoRequest struct {
	BancoID string `json:"bancoId"`
}

type telefonoRequest struct {
	Telefono string `json:"telefono"`
}

type referenciaRequest struct {
	Referencia string `json:"referencia"`
}

// GetSession handles GET /api/sesion.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w)
}

// Buscar handles POST /api/sesion/buscar.
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	var reqBody buscarRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	if err := h.orch.Lookup(r.Context(), reqBody.TipoCedula, reqBody.NumeroCedula); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeSnapshot(w)
}

// GetFacturas handles GET /api/sesion/facturas with optional search,
// status, sortBy and sortOrder query parameters.
func (h *Handler) GetFacturas(w http.ResponseWriter, r *http.Request) {
	q := billing.ListQuery{
		Search:    r.URL.Query().Get("search"),
		Status:    r.URL.Query().Get("status"),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	invoices := h.orch.Invoices(q)
	writeJSON(w, http.StatusOK, map[string]any{
		"facturas": invoices,
		"total":    len(invoices),
	})
}

// ToggleFactura handles POST /api/sesion/facturas/seleccion.
func (h *Handler) ToggleFactura(w http.ResponseWriter, r *http.Request) {
	var reqBody seleccionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}
	if reqBody.InvoiceID == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"invoiceId es requerido"}, h.log)
		return
	}

	h.orch.ToggleInvoice(reqBody.InvoiceID, reqBody.Selected)
	h.writeSnapshot(w)
}

// SeleccionarTodas handles POST /api/sesion/facturas/seleccionar-todas.
func (h *Handler) SeleccionarTodas(w http.ResponseWriter, r *http.Request) {
	h.orch.SelectAll()
	h.writeSnapshot(w)
}

// SeleccionarVencidas handles POST /api/sesion/facturas/seleccionar-vencidas.
func (h *Handler) SeleccionarVencidas(w http.ResponseWriter, r *http.Request) {
	h.orch.SelectOverdue()
	h.writeSnapshot(w)
}

// LimpiarSeleccion handles POST /api/sesion/facturas/limpiar-seleccion.
func (h *Handler) LimpiarSeleccion(w http.ResponseWriter, r *http.Request) {
	h.orch.ClearSelection()
	h.writeSnapshot(w)
}

// GetResumen handles GET /api/sesion/resumen.
func (h *Handler) GetResumen(w http.ResponseWriter, r *http.Request) {
	snap := h.orch.Snapshot()
	writeJSON(w, http.StatusOK, snap.PaymentSummary)
}

// Siguiente handles POST /api/sesion/siguiente.
func (h *Handler) Siguiente(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Next(r.Context()); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeSnapshot(w)
}

// SeleccionarBanco handles POST /api/sesion/banco.
func (h *Handler) SeleccionarBanco(w http.ResponseWriter, r *http.Request) {
	var reqBody bancoRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	if err := h.orch.SelectBank(reqBody.BancoID); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeSnapshot(w)
}

// SetTelefono handles POST /api/sesion/telefono.
func (h *Handler) SetTelefono(w http.ResponseWriter, r *http.Request) {
	var reqBody telefonoRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	h.orch.SetTelefono(reqBody.Telefono)
	h.writeSnapshot(w)
}

// ReferenciaManual handles POST /api/sesion/referencia-manual.
func (h *Handler) ReferenciaManual(w http.ResponseWriter, r *http.Request) {
	h.orch.EnterManualMode()
	h.writeSnapshot(w)
}

// ValidarReferencia handles POST /api/sesion/validar-referencia.
func (h *Handler) ValidarReferencia(w http.ResponseWriter, r *http.Request) {
	var reqBody referenciaRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	if err := h.orch.ValidateManualReference(r.Context(), reqBody.Referencia); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeSnapshot(w)
}

// Volver handles POST /api/sesion/volver.
func (h *Handler) Volver(w http.ResponseWriter, r *http.Request) {
	h.orch.Back()
	h.writeSnapshot(w)
}

// Reiniciar handles POST /api/sesion/reiniciar.
func (h *Handler) Reiniciar(w http.ResponseWriter, r *http.Request) {
	h.orch.Restart()
	h.writeSnapshot(w)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.orch.Snapshot())
}

// handleError maps orchestrator failures to HTTP responses. Validation
// notices are 400s with the Spanish message; anything else is unexpected.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var verr *appsession.ValidationError
	if errors.As(err, &verr) {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{verr.Message}, h.log)
		return
	}

	h.log.Error("unexpected session error", "error", err)
	httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
