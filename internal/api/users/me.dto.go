package users

import "time"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
	Access  AccessDTO  `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID           uint    `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Lastname     string  `json:"lastname"`
	Tel          *string `json:"tel"`
	Role         string  `json:"role"`
	AuthProvider string  `json:"auth_provider"`
	IsVerified   bool    `json:"is_verified"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Tier          string          `json:"tier"`
	TierUpdatedAt *time.Time      `json:"tier_updated_at"`
	Upgrade       *UpgradeDTO     `json:"upgrade"`
	Affiliate     *AffiliateDTO   `json:"affiliate"`
	LastPayment   *LastPaymentDTO `json:"last_payment"`
}

// UpgradeDTO points at the next product to buy; nil for vip.
type UpgradeDTO struct {
	ProductKey   string `json:"product_key"`
	Name         string `json:"name"`
	DisplayPrice string `json:"display_price"`
}

type AffiliateDTO struct {
	Code string `json:"code"`
}

type LastPaymentDTO struct {
	ProductKey string     `json:"product_key"`
	AmountIDR  int64      `json:"amount_idr"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paid_at"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State        string   `json:"state"` // locked|premium|vip
	Capabilities []string `json:"capabilities"`
}

/* ---------- AFFILIATE ---------- */

type CommissionDTO struct {
	ExternalID    string    `json:"external_id"`
	ProductKey    string    `json:"product_key"`
	CommissionIDR int64     `json:"commission_idr"`
	RateBps       int       `json:"rate_bps"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
