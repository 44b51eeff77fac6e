// Package portal implements the billing.Gateway port against the remote
// payment portal API. The portal multiplexes every operation behind a
// single endpoint selected by an action parameter.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leonardou92/validarPago/internal/core/billing"
)

// HTTPClient interface allows using both standard and traced HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the payment portal. It is pure I/O: every failure is
// wrapped with the operation name and no business decision is taken here.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	log        *slog.Logger
	now        func() time.Time
}

// NewClient creates a portal API client.
func NewClient(baseURL, token string, httpClient HTTPClient, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log,
		now:        time.Now,
	}
}

type searchClientResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Cliente *billing.Cliente `json:"cliente"`
}

type portalInvoice struct {
	ID            json.Number `json:"id"`
	InvoiceNumber string      `json:"invoiceNumber"`
	DueDate       string      `json:"dueDate"`
	Amount        float64     `json:"amount"`
	Description   string      `json:"description"`
	Supplier      string      `json:"supplier"`
	Category      string      `json:"category"`
	TasaCambio    float64     `json:"tasa_cambio"`
}

type getInvoiceResponse struct {
	Status   bool             `json:"status"`
	Message  string           `json:"message"`
	Facturas *[]portalInvoice `json:"facturas"`
}

type portalBank struct {
	IDBanco         json.Number `json:"id_banco"`
	Message         string      `json:"message"`
	ShortName       string      `json:"shortName"`
	BankCode        string      `json:"bank_code"`
	PaymentMethodID json.Number `json:"payment_method_id"`
	QRImage         string      `json:"qr_image"`
}

type getConfigResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Config  []portalBank `json:"config"`
}

type validationResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	ID      *int64 `json:"id"`
}

type paymentResponse struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

// SearchClient looks up the client record for a cedula. A status=false
// body is returned as-is, not as an error: not-found is an outcome.
func (c *Client) SearchClient(ctx context.Context, cedula string) (billing.ClienteResponse, error) {
	var resp searchClientResponse
	if err := c.get(ctx, "searchClient", cedula, &resp); err != nil {
		return billing.ClienteResponse{}, fmt.Errorf("searchClient: %w", err)
	}
	return billing.ClienteResponse{Status: resp.Status, Message: resp.Message, Cliente: resp.Cliente}, nil
}

// GetInvoices lists the outstanding invoices for a cedula. An absent
// facturas field means a malformed response and is an error; an empty
// list is a valid no-debts outcome.
func (c *Client) GetInvoices(ctx context.Context, cedula string) ([]billing.Invoice, error) {
	var resp getInvoiceResponse
	if err := c.get(ctx, "getInvoice", cedula, &resp); err != nil {
		return nil, fmt.Errorf("getInvoice: %w", err)
	}
	if resp.Facturas == nil {
		c.log.Error("getInvoice response missing facturas field", "cedula", cedula)
		return nil, fmt.Errorf("getInvoice: respuesta sin campo facturas")
	}

	invoices := make([]billing.Invoice, 0, len(*resp.Facturas))
	for _, f := range *resp.Facturas {
		invoices = append(invoices, billing.Invoice{
			ID:            f.ID.String(),
			InvoiceNumber: f.InvoiceNumber,
			DueDate:       f.DueDate,
			Amount:        f.Amount,
			Description:   f.Description,
			Supplier:      f.Supplier,
			Category:      f.Category,
			TasaCambio:    f.TasaCambio,
		})
	}
	return invoices, nil
}

// GetBanks lists the configured banks/payment methods. The display name
// is the first line of the instruction message.
func (c *Client) GetBanks(ctx context.Context, cedula string) ([]billing.Bank, error) {
	var resp getConfigResponse
	if err := c.get(ctx, "getConfig", cedula, &resp); err != nil {
		return nil, fmt.Errorf("getConfig: %w", err)
	}
	if !resp.Status {
		c.log.Error("getConfig returned error status", "cedula", cedula, "message", resp.Message)
		return nil, fmt.Errorf("getConfig: %s", resp.Message)
	}

	banks := make([]billing.Bank, 0, len(resp.Config))
	for _, b := range resp.Config {
		banks = append(banks, billing.Bank{
			ID:              b.IDBanco.String(),
			Name:            firstLine(b.Message),
			ShortName:       b.ShortName,
			BankCode:        b.BankCode,
			PaymentMethodID: b.PaymentMethodID.String(),
			Message:         b.Message,
			QRImage:         b.QRImage,
		})
	}
	return banks, nil
}

// ValidateReference validates a user-entered payment reference.
func (c *Client) ValidateReference(ctx context.Context, reference, monto, banco, fecha string) (billing.PushValidationResult, error) {
	body := map[string]interface{}{
		"action":    "validateReference",
		"reference": reference,
		"monto":     monto,
		"banco":     banco,
		"fecha":     fecha,
	}

	var resp validationResponse
	if err := c.post(ctx, "validateReference", body, &resp); err != nil {
		return billing.PushValidationResult{}, fmt.Errorf("validateReference: %w", err)
	}
	return billing.PushValidationResult{Status: resp.Status, Message: resp.Message, ImportID: resp.ID}, nil
}

// ValidatePushReference asks whether a matching push-payment notification
// has arrived. A status=false body means "not yet", not an error.
func (c *Client) ValidatePushReference(ctx context.Context, req billing.PushValidationRequest) (billing.PushValidationResult, error) {
	body := map[string]interface{}{
		"action":   "validatePushReference",
		"monto":    req.Monto,
		"banco":    req.Banco,
		"fecha":    req.Fecha,
		"cedula":   req.Cedula,
		"telefono": req.Telefono,
	}

	var resp validationResponse
	if err := c.post(ctx, "validatePushReference", body, &resp); err != nil {
		return billing.PushValidationResult{}, fmt.Errorf("validatePushReference: %w", err)
	}
	return billing.PushValidationResult{Status: resp.Status, Message: resp.Message, ImportID: resp.ID}, nil
}

// CreatePushPayment creates the payment record for a matched push import.
func (c *Client) CreatePushPayment(ctx context.Context, req billing.PaymentRequest) (billing.PaymentResult, error) {
	body := map[string]interface{}{
		"action":        "createPushPayment",
		"monto":         req.Monto,
		"idFormaPago":   req.IDFormaPago,
		"fecha":         req.Fecha,
		"cedula":        req.Cedula,
		"idCliente":     req.IDCliente,
		"tasaCambio":    req.TasaCambio,
		"idImportacion": req.IDImportacion,
		"invoiceIds":    req.InvoiceIDs,
	}

	var resp paymentResponse
	if err := c.post(ctx, "createPushPayment", body, &resp); err != nil {
		return billing.PaymentResult{}, fmt.Errorf("createPushPayment: %w", err)
	}
	return billing.PaymentResult{Status: resp.Status, Message: resp.Message, Reference: resp.Reference}, nil
}

// get performs a GET with the action and cedula query parameters plus a
// cache-busting timestamp, and unmarshals the JSON body into out.
func (c *Client) get(ctx context.Context, action, cedula string, out interface{}) error {
	q := url.Values{}
	q.Set("action", action)
	q.Set("cedula", cedula)
	q.Set("_cache", strconv.FormatInt(c.now().UnixMilli(), 10))
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, action, out)
}

// post performs a POST with a JSON body and unmarshals the response.
func (c *Client) post(ctx context.Context, action string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.log.Debug("portal request", "action", action, "method", req.Method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("portal request failed", "action", action, "error", err)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed to read portal response", "action", action, "status", resp.StatusCode, "error", err)
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("portal returned non-OK status", "action", action, "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		c.log.Error("failed to unmarshal portal response", "action", action, "error", err, "body", string(respBody))
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// firstLine extracts the bank display name from an instruction message.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

var _ billing.Gateway = (*Client)(nil)
