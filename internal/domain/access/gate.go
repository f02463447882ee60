package access

import "bali-advisory/internal/domain/plans"

// CanView gates premium content: premium and vip see it in full.
func CanView(t plans.Tier) bool {
	return t == plans.TierPremium || t == plans.TierVIP
}

// CanViewVIP gates VIP-only features.
func CanViewVIP(t plans.Tier) bool {
	return t == plans.TierVIP
}

func StateFor(t plans.Tier) AccessState {
	switch {
	case CanViewVIP(t):
		return AccessVIP
	case CanView(t):
		return AccessPremium
	default:
		return AccessLocked
	}
}

// Upsell is attached to locked payloads in place of the hidden values.
type Upsell struct {
	ProductKey string `json:"product_key"`
	Message    string `json:"message"`
}

func UpsellFor(required plans.Tier) *Upsell {
	if required == plans.TierVIP {
		return &Upsell{ProductKey: "vip", Message: "Become a VIP member to unlock this"}
	}
	return &Upsell{ProductKey: "premium", Message: "Upgrade to Premium to see the full details"}
}
