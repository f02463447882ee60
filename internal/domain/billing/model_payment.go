package billing

import (
	"time"

	"bali-advisory/internal/domain/plans"
)

// Invoice statuses as reported by the payment provider.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusExpired = "EXPIRED"
)

// Payment mirrors a provider-owned invoice for the admin panel. The provider is
// the source of truth; only the resulting tier change matters for access.
type Payment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index" json:"user_id"`
	Provider     string     `gorm:"type:varchar(20);not null" json:"provider"`
	ExternalID   string     `gorm:"uniqueIndex;not null" json:"external_id"`
	InvoiceID    *string    `json:"invoice_id,omitempty"`
	ProductKey   string     `gorm:"not null" json:"product_key"`
	Tier         plans.Tier `gorm:"type:varchar(20)" json:"tier,omitempty"`
	AmountIDR    int64      `json:"amount_idr"`
	ExchangeRate float64    `json:"exchange_rate"`
	Status       string     `gorm:"type:varchar(20);not null;index" json:"status"`
	PayerEmail   string     `json:"payer_email,omitempty"`
	CheckoutURL  string     `json:"checkout_url,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProcessedEvent records a provider event that has been fulfilled, so that a
// redelivered webhook is acknowledged without repeating side effects.
type ProcessedEvent struct {
	ID         uint   `gorm:"primaryKey"`
	Provider   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_processed_events_provider_event"`
	EventID    string `gorm:"not null;uniqueIndex:idx_processed_events_provider_event"`
	ExternalID string `gorm:"index"`
	CreatedAt  time.Time
}

// AffiliateCommission is owed to the referrer of a paid invoice.
type AffiliateCommission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AffiliateCode string    `gorm:"index;not null" json:"affiliate_code"`
	ExternalID    string    `gorm:"uniqueIndex;not null" json:"external_id"`
	ProductKey    string    `json:"product_key"`
	BuyerUserID   uint      `json:"buyer_user_id"`
	AmountIDR     int64     `json:"amount_idr"`
	RateBps       int       `json:"rate_bps"`
	Status        string    `gorm:"type:varchar(20);not null;default:'owed'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// CommissionRateBps is the referral share in basis points.
const CommissionRateBps = 1000

func CommissionAmount(paidIDR int64) int64 {
	return paidIDR * CommissionRateBps / 10000
}
