package wizard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appsession "github.com/leonardou92/validarPago/internal/application/session"
	"github.com/leonardou92/validarPago/internal/core/billing"
	"github.com/leonardou92/validarPago/internal/testutil"
)

type stubGateway struct {
	cliente  billing.ClienteResponse
	invoices []billing.Invoice
	banks    []billing.Bank
}

func (s *stubGateway) SearchClient(context.Context, string) (billing.ClienteResponse, error) {
	return s.cliente, nil
}

func (s *stubGateway) GetInvoices(context.Context, string) ([]billing.Invoice, error) {
	return s.invoices, nil
}

func (s *stubGateway) GetBanks(context.Context, string) ([]billing.Bank, error) {
	return s.banks, nil
}

func (s *stubGateway) ValidateReference(context.Context, string, string, string, string) (billing.PushValidationResult, error) {
	return billing.PushValidationResult{Status: true, Message: "ok"}, nil
}

func (s *stubGateway) ValidatePushReference(context.Context, billing.PushValidationRequest) (billing.PushValidationResult, error) {
	return billing.PushValidationResult{Status: false, Message: "pendiente"}, nil
}

func (s *stubGateway) CreatePushPayment(context.Context, billing.PaymentRequest) (billing.PaymentResult, error) {
	return billing.PaymentResult{Status: true, Message: "ok"}, nil
}

func newTestHandler(t *testing.T, gw *stubGateway) *Handler {
	t.Helper()
	log := testutil.NewTestLogger()
	orch := appsession.NewOrchestrator(appsession.Config{Gateway: gw, Logger: log})
	t.Cleanup(orch.Close)
	return NewHandler(orch, log)
}

func doRequest(h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.CreateRequest(method, path, body, nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var snap map[string]any
	testutil.ReadJSONResponse(t, w, &snap)
	return snap
}

func TestHandler_GetSession(t *testing.T) {
	h := newTestHandler(t, &stubGateway{})

	w := doRequest(h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	snap := decodeSnapshot(t, w)
	if snap["currentStep"] != float64(0) {
		t.Errorf("expected step 0, got %v", snap["currentStep"])
	}
	if snap["puedeVolver"] != false {
		t.Errorf("expected puedeVolver false, got %v", snap["puedeVolver"])
	}
}

func TestHandler_Buscar_MissingCedula(t *testing.T) {
	h := newTestHandler(t, &stubGateway{})

	w := doRequest(h, http.MethodPost, "/buscar", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	errResp := testutil.ReadErrorResponse(t, w)
	if errResp["message"] != "Error de Validación" {
		t.Errorf("expected validation error, got %v", errResp["message"])
	}
}

func TestHandler_Buscar_Success(t *testing.T) {
	gw := &stubGateway{
		cliente: billing.ClienteResponse{Status: true, Cliente: &billing.Cliente{
			ID: 1, RifFiscal: "V12345678", Nombre: "María Pérez", Telefono: "04141234567",
		}},
		invoices: []billing.Invoice{
			{ID: "10", InvoiceNumber: "F-0010", DueDate: "2025-05-01", Amount: 100},
		},
	}
	h := newTestHandler(t, gw)

	w := doRequest(h, http.MethodPost, "/buscar", map[string]string{
		"tipoCedula":   "V",
		"numeroCedula": "12345678",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	snap := decodeSnapshot(t, w)
	if snap["currentStep"] != float64(1) {
		t.Errorf("expected step 1, got %v", snap["currentStep"])
	}
	if snap["cedula"] != "V12345678" {
		t.Errorf("expected cedula V12345678, got %v", snap["cedula"])
	}
}

func TestHandler_Buscar_ClientNotFound(t *testing.T) {
	gw := &stubGateway{cliente: billing.ClienteResponse{Status: false}}
	h := newTestHandler(t, gw)

	w := doRequest(h, http.MethodPost, "/buscar", map[string]string{
		"tipoCedula":   "V",
		"numeroCedula": "99999999",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("not-found outcome must be 200, got %d", w.Code)
	}

	snap := decodeSnapshot(t, w)
	if snap["currentStep"] != float64(0) {
		t.Errorf("expected step 0, got %v", snap["currentStep"])
	}
	if snap["aviso"] == nil {
		t.Error("expected aviso in snapshot")
	}
}

func TestHandler_SeleccionFlow(t *testing.T) {
	gw := &stubGateway{
		cliente: billing.ClienteResponse{Status: true, Cliente: &billing.Cliente{
			ID: 1, RifFiscal: "V12345678", Telefono: "04141234567",
		}},
		invoices: []billing.Invoice{
			{ID: "10", InvoiceNumber: "F-0010", DueDate: "2025-05-01", Amount: 100},
			{ID: "11", InvoiceNumber: "F-0011", DueDate: "2099-01-01", Amount: 50.5},
		},
		banks: []billing.Bank{
			{ID: "b1", Name: "Banco de Venezuela", BankCode: "0102", PaymentMethodID: "7", Message: "Banco de Venezuela\nPago móvil"},
		},
	}
	h := newTestHandler(t, gw)

	doRequest(h, http.MethodPost, "/buscar", map[string]string{"tipoCedula": "V", "numeroCedula": "12345678"})

	// Siguiente without a selection is rejected.
	w := doRequest(h, http.MethodPost, "/siguiente", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without selection, got %d", w.Code)
	}

	w = doRequest(h, http.MethodPost, "/facturas/seleccion", map[string]any{"invoiceId": "10", "selected": true})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doRequest(h, http.MethodPost, "/siguiente", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w)
	if snap["currentStep"] != float64(2) {
		t.Errorf("expected step 2, got %v", snap["currentStep"])
	}
	if snap["banksLoaded"] != true {
		t.Error("expected banksLoaded true")
	}

	w = doRequest(h, http.MethodPost, "/banco", map[string]string{"bancoId": "b1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	snap = decodeSnapshot(t, w)
	if snap["currentStep"] != float64(3) {
		t.Errorf("expected step 3, got %v", snap["currentStep"])
	}
	if snap["bankDetails"] == nil {
		t.Error("expected bankDetails in snapshot")
	}
}

func TestHandler_GetFacturas_Query(t *testing.T) {
	gw := &stubGateway{
		cliente: billing.ClienteResponse{Status: true, Cliente: &billing.Cliente{ID: 1}},
		invoices: []billing.Invoice{
			{ID: "10", InvoiceNumber: "F-0010", DueDate: "2025-05-01", Amount: 100, Supplier: "Aguas"},
			{ID: "11", InvoiceNumber: "F-0011", DueDate: "2099-01-01", Amount: 50.5, Supplier: "Luz"},
		},
	}
	h := newTestHandler(t, gw)
	doRequest(h, http.MethodPost, "/buscar", map[string]string{"tipoCedula": "V", "numeroCedula": "1"})

	w := doRequest(h, http.MethodGet, "/facturas?search=aguas", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Facturas []billing.Invoice `json:"facturas"`
		Total    int               `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 invoice, got %d", resp.Total)
	}
	if resp.Facturas[0].ID != "10" {
		t.Errorf("expected invoice 10, got %s", resp.Facturas[0].ID)
	}
}

func TestHandler_Reiniciar(t *testing.T) {
	gw := &stubGateway{
		cliente:  billing.ClienteResponse{Status: true, Cliente: &billing.Cliente{ID: 1}},
		invoices: []billing.Invoice{{ID: "10", DueDate: "2025-05-01", Amount: 100}},
	}
	h := newTestHandler(t, gw)

	w := doRequest(h, http.MethodPost, "/buscar", map[string]string{"tipoCedula": "V", "numeroCedula": "1"})
	before := decodeSnapshot(t, w)["sessionId"]

	w = doRequest(h, http.MethodPost, "/reiniciar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w)
	if snap["sessionId"] == before {
		t.Error("expected a new session id after restart")
	}
	if snap["currentStep"] != float64(0) {
		t.Errorf("expected step 0, got %v", snap["currentStep"])
	}
}

func TestHandler_ReferenciaManual(t *testing.T) {
	gw := &stubGateway{
		cliente: billing.ClienteResponse{Status: true, Cliente: &billing.Cliente{
			ID: 1, RifFiscal: "V1", Telefono: "0414",
		}},
		invoices: []billing.Invoice{{ID: "10", DueDate: "2025-05-01", Amount: 100}},
		banks:    []billing.Bank{{ID: "b1", BankCode: "0102", PaymentMethodID: "7", Message: "BDV"}},
	}
	h := newTestHandler(t, gw)

	doRequest(h, http.MethodPost, "/buscar", map[string]string{"tipoCedula": "V", "numeroCedula": "1"})
	doRequest(h, http.MethodPost, "/facturas/seleccionar-todas", nil)
	doRequest(h, http.MethodPost, "/siguiente", nil)
	doRequest(h, http.MethodPost, "/banco", map[string]string{"bancoId": "b1"})

	w := doRequest(h, http.MethodPost, "/referencia-manual", nil)
	snap := decodeSnapshot(t, w)
	if snap["currentStep"] != float64(4) {
		t.Errorf("expected step 4, got %v", snap["currentStep"])
	}
	if snap["isManualReference"] != true {
		t.Error("expected isManualReference true")
	}

	w = doRequest(h, http.MethodPost, "/validar-referencia", map[string]string{"referencia": "000123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	snap = decodeSnapshot(t, w)
	if snap["referenceNumber"] != "000123" {
		t.Errorf("expected reference 000123, got %v", snap["referenceNumber"])
	}
}
