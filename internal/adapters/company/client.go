// Package company fetches the collecting company's display information
// from its externally configured info endpoint.
package company

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leonardou92/validarPago/internal/core/billing"
)

type infoResponse struct {
	Status      bool   `json:"status"`
	Empresa     string `json:"empresa"`
	Descripcion string `json:"descripcion"`
	LogoEmpresa string `json:"logoEmpresa"`
	Direccion   string `json:"direccion"`
}

// Client fetches company display information. The result is cached after
// the first successful fetch; company data does not change per session.
type Client struct {
	rest *resty.Client
	log  *slog.Logger

	mu     sync.Mutex
	cached *billing.CompanyInfo
}

// NewClient creates a company info client against the configured endpoint.
func NewClient(baseURL, token string, timeout time.Duration, log *slog.Logger) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	if token != "" {
		rest.SetAuthToken(token)
	}

	return &Client{rest: rest, log: log}
}

// GetInfo returns the company display information.
func (c *Client) GetInfo(ctx context.Context) (billing.CompanyInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return *c.cached, nil
	}

	resp, err := c.rest.R().SetContext(ctx).Get("")
	if err != nil {
		c.log.Error("company info request failed", "error", err)
		return billing.CompanyInfo{}, fmt.Errorf("companyInfo: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.log.Error("company info returned non-OK status", "status", resp.StatusCode())
		return billing.CompanyInfo{}, fmt.Errorf("companyInfo: status %d", resp.StatusCode())
	}

	var body infoResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.log.Error("failed to unmarshal company info", "error", err)
		return billing.CompanyInfo{}, fmt.Errorf("companyInfo: unmarshal response: %w", err)
	}
	if !body.Status {
		return billing.CompanyInfo{}, fmt.Errorf("companyInfo: respuesta con status=false")
	}

	info := billing.CompanyInfo{
		Empresa:     body.Empresa,
		Descripcion: body.Descripcion,
		LogoEmpresa: body.LogoEmpresa,
		Direccion:   body.Direccion,
	}
	c.cached = &info
	return info, nil
}
