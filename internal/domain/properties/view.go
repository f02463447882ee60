package properties

import (
	"strings"

	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/plans"

	"github.com/shopspring/decimal"
)

// View is the client-facing shape of a listing. The gate is applied here: a
// locked view never carries the price.
type View struct {
	ID          uint             `json:"id"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Area        string           `json:"area"`
	Type        string           `json:"type"`
	PriceUSD    *decimal.Decimal `json:"price_usd"`
	LeaseYears  int              `json:"lease_years"`
	Freehold    bool             `json:"freehold"`
	Bedrooms    int              `json:"bedrooms"`
	LandSizeM2  int              `json:"land_size_m2"`
	Description string           `json:"description,omitempty"`
	Images      []string         `json:"images"`
	OffMarket   bool             `json:"off_market"`
	Locked      bool             `json:"locked"`
	Upsell      *access.Upsell   `json:"upsell,omitempty"`
}

// VisibleTo reports whether the listing appears at all for tier. Off-market
// listings are hidden from everyone but VIP members.
func (p Property) VisibleTo(tier plans.Tier) bool {
	if p.PremiumOnly {
		return access.CanViewVIP(tier)
	}
	return true
}

// ViewFor serializes p for a viewer of the given tier.
func ViewFor(p Property, tier plans.Tier, withDescription bool) View {
	v := View{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title,
		Area:       p.Area,
		Type:       p.Type,
		LeaseYears: p.LeaseYears,
		Freehold:   p.IsFreehold(),
		Bedrooms:   p.Bedrooms,
		LandSizeM2: p.LandSizeM2,
		Images:     splitImages(p.ImageURLs),
		OffMarket:  p.PremiumOnly,
	}
	if withDescription {
		v.Description = p.Description
	}

	if access.CanView(tier) {
		price := p.PriceUSD
		v.PriceUSD = &price
		return v
	}

	v.Locked = true
	v.Upsell = access.UpsellFor(plans.TierPremium)
	return v
}

func splitImages(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
