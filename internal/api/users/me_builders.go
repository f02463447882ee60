package users

import (
	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
)

func BuildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Lastname:     u.Lastname,
		Tel:          stringPtrIfNotEmpty(u.Tel),
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		IsVerified:   u.IsVerified,
	}
}

// BuildUpgradeDTO returns the next tier product, or nil when nothing is above t.
func BuildUpgradeDTO(t plans.Tier) *UpgradeDTO {
	var key string
	switch t {
	case plans.TierVIP:
		return nil
	case plans.TierPremium:
		key = catalog.KeyVIP
	default:
		key = catalog.KeyPremium
	}
	p, err := catalog.Get(key)
	if err != nil {
		return nil
	}
	return &UpgradeDTO{ProductKey: p.Key, Name: p.Name, DisplayPrice: p.DisplayPriceUSD()}
}

func BuildAffiliateDTO(u users.User) *AffiliateDTO {
	if u.AffiliateCode == nil || *u.AffiliateCode == "" {
		return nil
	}
	return &AffiliateDTO{Code: *u.AffiliateCode}
}

// BuildLastPaymentDTO picks the most recent paid invoice. payments is newest first.
func BuildLastPaymentDTO(payments []billing.Payment) *LastPaymentDTO {
	for _, p := range payments {
		if p.Status != billing.StatusPaid {
			continue
		}
		return &LastPaymentDTO{
			ProductKey: p.ProductKey,
			AmountIDR:  p.AmountIDR,
			Status:     p.Status,
			PaidAt:     p.PaidAt,
		}
	}
	return nil
}

func BuildAccessDTO(policy access.Policy) AccessDTO {
	return AccessDTO{
		State:        string(policy.State),
		Capabilities: policy.Capabilities,
	}
}

func BuildCommissionDTOs(in []billing.AffiliateCommission) []CommissionDTO {
	out := make([]CommissionDTO, 0, len(in))
	for _, c := range in {
		out = append(out, CommissionDTO{
			ExternalID:    c.ExternalID,
			ProductKey:    c.ProductKey,
			CommissionIDR: c.AmountIDR,
			RateBps:       c.RateBps,
			Status:        c.Status,
			CreatedAt:     c.CreatedAt,
		})
	}
	return out
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
