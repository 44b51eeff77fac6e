package company

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leonardou92/validarPago/internal/testutil"
)

func TestClient_GetInfo(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer info-token" {
			t.Errorf("expected Authorization header, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      true,
			"empresa":     "Aguas del Centro C.A.",
			"descripcion": "Pago de servicios",
			"logoEmpresa": "https://example.com/logo.png",
			"direccion":   "Av. Bolívar, Valencia",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "info-token", 5*time.Second, testutil.NewTestLogger())

	info, err := client.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Empresa != "Aguas del Centro C.A." {
		t.Errorf("expected empresa, got %q", info.Empresa)
	}

	// Second call served from cache.
	if _, err := client.GetInfo(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestClient_GetInfo_StatusFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": false})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, testutil.NewTestLogger())
	if _, err := client.GetInfo(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClient_GetInfo_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, testutil.NewTestLogger())
	if _, err := client.GetInfo(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}
