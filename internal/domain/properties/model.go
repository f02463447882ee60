package properties

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft         = "draft"
	StatusPublished     = "published"
	StatusPendingReview = "pending_review"
	StatusRejected      = "rejected"
)

const (
	TypeVilla      = "villa"
	TypeLand       = "land"
	TypeApartment  = "apartment"
	TypeCommercial = "commercial"
)

// Property is a listing. LeaseYears is 0 for freehold; PremiumOnly marks an
// off-market listing shown to VIP members only.
type Property struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string          `gorm:"not null" json:"title"`
	Area        string          `gorm:"index" json:"area"`
	Type        string          `gorm:"type:varchar(20);index" json:"type"`
	PriceUSD    decimal.Decimal `gorm:"type:numeric(14,2)" json:"price_usd"`
	LeaseYears  int             `json:"lease_years"`
	Bedrooms    int             `json:"bedrooms"`
	LandSizeM2  int             `json:"land_size_m2"`
	Description string          `json:"description"`
	ImageURLs   string          `json:"image_urls"`
	Status      string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PremiumOnly bool            `json:"premium_only"`
	VendorEmail string          `json:"vendor_email,omitempty"`
	VendorName  string          `json:"vendor_name,omitempty"`
	VendorPhone string          `json:"vendor_phone,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Property) IsFreehold() bool {
	return p.LeaseYears == 0
}

// JoinImages is the inverse of the split done for views.
func JoinImages(urls []string) string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return strings.Join(out, ",")
}

func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusPendingReview, StatusRejected:
		return true
	}
	return false
}

func ValidType(t string) bool {
	switch t {
	case TypeVilla, TypeLand, TypeApartment, TypeCommercial:
		return true
	}
	return false
}
