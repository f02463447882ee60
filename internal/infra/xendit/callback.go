package xendit

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"bali-advisory/internal/domain/billing"
)

const CallbackTokenHeader = "x-callback-token"

// VerifyCallbackToken compares the header value with the configured token in
// constant time.
func VerifyCallbackToken(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// InvoiceCallback is the body Xendit posts when an invoice changes status.
type InvoiceCallback struct {
	ID         string                 `json:"id"`
	ExternalID string                 `json:"external_id"`
	Status     string                 `json:"status"`
	Amount     float64                `json:"amount"`
	PaidAmount float64                `json:"paid_amount"`
	PayerEmail string                 `json:"payer_email"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func ParseInvoiceCallback(body []byte) (*InvoiceCallback, error) {
	var cb InvoiceCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("parse xendit callback: %w", err)
	}
	if cb.ExternalID == "" || cb.Status == "" {
		return nil, fmt.Errorf("xendit callback missing external_id or status")
	}
	return &cb, nil
}

// Event normalizes the callback. Metadata values are stringified since the
// provider echoes back whatever JSON types were sent.
func (cb InvoiceCallback) Event() billing.PaymentEvent {
	md := make(map[string]string, len(cb.Metadata))
	for k, v := range cb.Metadata {
		switch t := v.(type) {
		case nil:
		case string:
			md[k] = t
		case float64:
			md[k] = formatNumber(t)
		default:
			md[k] = fmt.Sprint(t)
		}
	}

	amount := cb.PaidAmount
	if amount == 0 {
		amount = cb.Amount
	}

	// Invoice ids are per invoice; without one the key falls back to the
	// merchant reference so unrelated callbacks never share a key.
	eventID := cb.ExternalID + ":" + cb.Status
	if cb.ID != "" {
		eventID = cb.ID + ":" + cb.Status
	}

	return billing.PaymentEvent{
		Provider:   ProviderName,
		EventID:    eventID,
		InvoiceID:  cb.ID,
		ExternalID: cb.ExternalID,
		Status:     cb.Status,
		Amount:     int64(amount),
		PayerEmail: cb.PayerEmail,
		Metadata:   md,
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
