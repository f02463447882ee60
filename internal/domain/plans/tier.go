package plans

import "strings"

// Tier is the access level stored on a user account.
type Tier string

// Tier constants (single source of truth)
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// Tiers in upgrade order.
var Tiers = []Tier{TierFree, TierPremium, TierVIP}

// ParseTier normalizes a stored or user-supplied tier value.
// Unknown values map to free with ok=false.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, true
	case TierPremium:
		return TierPremium, true
	case TierVIP:
		return TierVIP, true
	default:
		return TierFree, false
	}
}

// Rank orders tiers: free < premium < vip.
func (t Tier) Rank() int {
	switch t {
	case TierPremium:
		return 1
	case TierVIP:
		return 2
	default:
		return 0
	}
}

func (t Tier) IsPaid() bool {
	return t.Rank() > 0
}

func (t Tier) Valid() bool {
	_, ok := ParseTier(string(t))
	return ok && string(t) == strings.ToLower(strings.TrimSpace(string(t)))
}

// AtLeast reports whether t grants everything min grants.
func (t Tier) AtLeast(min Tier) bool {
	return t.Rank() >= min.Rank()
}

// IsUpgrade reports whether moving from -> to raises the tier.
// Writing the same tier again is not an upgrade but is harmless.
func IsUpgrade(from, to Tier) bool {
	return to.Rank() > from.Rank()
}
