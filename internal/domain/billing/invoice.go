package billing

import (
	"strconv"
	"time"

	"bali-advisory/internal/domain/plans"
)

// Metadata keys embedded in the hosted invoice and echoed back by the provider.
const (
	MetaUserID        = "user_id"
	MetaProductKey    = "product_key"
	MetaTier          = "tier"
	MetaCustomerEmail = "customer_email"
	MetaDisplayPrice  = "display_price"
	MetaExchangeRate  = "exchange_rate"
	MetaAffiliateCode = "affiliate_code"
)

// InvoiceRequest is what checkout asks a payment provider to host.
type InvoiceRequest struct {
	ExternalID  string
	Amount      int64
	Currency    string
	PayerEmail  string
	PayerName   string
	Description string
	SuccessURL  string
	FailureURL  string
	Metadata    map[string]string
}

// HostedInvoice is the provider's answer: where to send the buyer.
type HostedInvoice struct {
	ID         string
	ExternalID string
	URL        string
	ExpiresAt  *time.Time
}

// PaymentEvent is a provider callback normalized for fulfillment.
type PaymentEvent struct {
	Provider   string
	EventID    string
	InvoiceID  string
	ExternalID string
	Status     string
	Amount     int64
	PayerEmail string
	Metadata   map[string]string
}

func (e PaymentEvent) UserID() (uint, bool) {
	s := e.Metadata[MetaUserID]
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (e PaymentEvent) ProductKey() string {
	return e.Metadata[MetaProductKey]
}

func (e PaymentEvent) Tier() (plans.Tier, bool) {
	return plans.ParseTier(e.Metadata[MetaTier])
}

func (e PaymentEvent) AffiliateCode() string {
	return e.Metadata[MetaAffiliateCode]
}

// IdempotencyKey is the provider event id, falling back to the invoice id.
func (e PaymentEvent) IdempotencyKey() string {
	if e.EventID != "" {
		return e.EventID
	}
	return e.ExternalID
}
