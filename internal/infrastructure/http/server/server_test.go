package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"net/http"

	empresahandler "github.com/leonardou92/validarPago/internal/adapters/http/empresa"
	healthhandler "github.com/leonardou92/validarPago/internal/adapters/http/health"
	wizardhandler "github.com/leonardou92/validarPago/internal/adapters/http/wizard"
	apphealth "github.com/leonardou92/validarPago/internal/application/health"
	appsession "github.com/leonardou92/validarPago/internal/application/session"
	"github.com/leonardou92/validarPago/internal/core/billing"
	"github.com/leonardou92/validarPago/internal/testutil"
)

type noopGateway struct{}

func (noopGateway) SearchClient(context.Context, string) (billing.ClienteResponse, error) {
	return billing.ClienteResponse{}, nil
}

func (noopGateway) GetInvoices(context.Context, string) ([]billing.Invoice, error) {
	return nil, nil
}

func (noopGateway) GetBanks(context.Context, string) ([]billing.Bank, error) {
	return nil, nil
}

func (noopGateway) ValidateReference(context.Context, string, string, string, string) (billing.PushValidationResult, error) {
	return billing.PushValidationResult{}, nil
}

func (noopGateway) ValidatePushReference(context.Context, billing.PushValidationRequest) (billing.PushValidationResult, error) {
	return billing.PushValidationResult{}, nil
}

func (noopGateway) CreatePushPayment(context.Context, billing.PaymentRequest) (billing.PaymentResult, error) {
	return billing.PaymentResult{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := testutil.NewTestLogger()
	orch := appsession.NewOrchestrator(appsession.Config{
		Gateway: noopGateway{},
		Logger:  log,
	})
	t.Cleanup(orch.Close)

	healthSvc := apphealth.NewService(apphealth.Metadata{
		Service:     "validar_pago",
		Version:     "test",
		Environment: "test",
	}, orch)

	srv, err := New(Options{
		Addr:    ":0",
		Logger:  log,
		Wizard:  wizardhandler.NewHandler(orch, log),
		Health:  healthhandler.NewHandler(healthSvc),
		Empresa: empresahandler.NewHandler(nil, log),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return srv
}

func TestNew_NilLogger(t *testing.T) {
	_, err := New(Options{Logger: nil})
	if err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestNew_MissingHandlers(t *testing.T) {
	_, err := New(Options{Logger: testutil.NewTestLogger()})
	if err == nil {
		t.Fatal("expected error for missing wizard handler")
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var status map[string]any
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "UP" {
		t.Errorf("expected status UP, got %v", status["status"])
	}
}

func TestServer_SessionSnapshot(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sesion", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var snap map[string]any
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snap["currentStep"] != float64(0) {
		t.Errorf("expected currentStep 0, got %v", snap["currentStep"])
	}
	if snap["sessionId"] == "" {
		t.Error("expected a session id")
	}
}

func TestServer_EmpresaNotConfigured(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/empresa", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestServer_RunShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
