package empresa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leonardou92/validarPago/internal/core/billing"
	"github.com/leonardou92/validarPago/internal/testutil"
)

type stubProvider struct {
	info billing.CompanyInfo
	err  error
}

func (s *stubProvider) GetInfo(context.Context) (billing.CompanyInfo, error) {
	return s.info, s.err
}

func TestGetInfo_Success(t *testing.T) {
	provider := &stubProvider{info: billing.CompanyInfo{
		Empresa:     "Aguas del Lago",
		Descripcion: "Servicio de agua potable",
	}}
	h := NewHandler(provider, testutil.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/empresa", nil)
	w := httptest.NewRecorder()
	h.GetInfo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var info billing.CompanyInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Empresa != "Aguas del Lago" {
		t.Errorf("expected empresa name, got %q", info.Empresa)
	}
}

func TestGetInfo_NotConfigured(t *testing.T) {
	h := NewHandler(nil, testutil.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/empresa", nil)
	w := httptest.NewRecorder()
	h.GetInfo(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestGetInfo_ProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	h := NewHandler(provider, testutil.NewTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/empresa", nil)
	w := httptest.NewRecorder()
	h.GetInfo(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", w.Code)
	}
}
