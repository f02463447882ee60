package xendit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"bali-advisory/internal/domain/billing"
)

const ProviderName = "xendit"

// Client talks to the Xendit Invoice API. The secret key is sent as the basic
// auth username with an empty password.
type Client struct {
	rest *resty.Client
}

func NewClient(secretKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.xendit.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(secretKey, "").
		SetHeader("Accept", "application/json")
	return &Client{rest: rest}
}

func (c *Client) Name() string { return ProviderName }

type customer struct {
	GivenNames string `json:"given_names,omitempty"`
	Email      string `json:"email,omitempty"`
}

type createInvoiceRequest struct {
	ExternalID         string            `json:"external_id"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency,omitempty"`
	PayerEmail         string            `json:"payer_email,omitempty"`
	Description        string            `json:"description,omitempty"`
	SuccessRedirectURL string            `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string            `json:"failure_redirect_url,omitempty"`
	Customer           *customer         `json:"customer,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type invoiceResponse struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	InvoiceURL string     `json:"invoice_url"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// CreateInvoice requests a hosted invoice page.
func (c *Client) CreateInvoice(ctx context.Context, req billing.InvoiceRequest) (*billing.HostedInvoice, error) {
	payload := createInvoiceRequest{
		ExternalID:         req.ExternalID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		PayerEmail:         req.PayerEmail,
		Description:        req.Description,
		SuccessRedirectURL: req.SuccessURL,
		FailureRedirectURL: req.FailureURL,
		Metadata:           req.Metadata,
	}
	if req.PayerEmail != "" || req.PayerName != "" {
		payload.Customer = &customer{GivenNames: req.PayerName, Email: req.PayerEmail}
	}

	var parsed invoiceResponse
	var apiErr apiError
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&parsed).
		SetError(&apiErr).
		ForceContentType("application/json").
		Post("/v2/invoices")
	if err != nil {
		return nil, fmt.Errorf("xendit request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("xendit create invoice: status %d: %s %s", resp.StatusCode(), apiErr.ErrorCode, apiErr.Message)
	}
	if parsed.ID == "" || parsed.InvoiceURL == "" {
		return nil, fmt.Errorf("invalid xendit response (missing id or invoice_url)")
	}

	return &billing.HostedInvoice{
		ID:         parsed.ID,
		ExternalID: parsed.ExternalID,
		URL:        parsed.InvoiceURL,
		ExpiresAt:  parsed.ExpiryDate,
	}, nil
}
