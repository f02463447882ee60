package users

import (
	"time"

	"bali-advisory/internal/domain/plans"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Lastname     string
	Tel          string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password     *string `json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'user'"`
	IsVerified   bool

	SubscriptionTier plans.Tier `gorm:"column:subscription_tier;type:varchar(20);not null;default:'free';index"`
	TierUpdatedAt    *time.Time `gorm:"column:tier_updated_at"`

	// External billing reference (Stripe customer id when Stripe is the provider).
	BillingCustomerID *string `gorm:"column:billing_customer_id;uniqueIndex:idx_users_billing_customer_id"`

	// Referral code owned by this user when they act as an affiliate.
	AffiliateCode *string `gorm:"column:affiliate_code;uniqueIndex:idx_users_affiliate_code"`

	CRMPartnerID *int64 `gorm:"column:crm_partner_id"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) DisplayName() string {
	name := u.Name
	if u.Lastname != "" {
		name += " " + u.Lastname
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Tier returns the stored tier, treating empty or unknown values as free.
func (u User) Tier() plans.Tier {
	t, _ := plans.ParseTier(string(u.SubscriptionTier))
	return t
}
