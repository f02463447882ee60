package advisor

import (
	"errors"

	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/plans"
)

var ErrInvalidBudget = errors.New("budget must be a positive amount in USD")

// Bracket keys, keyed by budget in USD.
const (
	BracketStarter = "under_100k"
	BracketMid     = "100k_250k"
	BracketUpper   = "250k_500k"
	BracketPrime   = "500k_plus"
)

type Recommendation struct {
	Bracket       string
	Headline      string
	Areas         []string
	PropertyTypes []string
	YieldRange    string
	Strategy      []string
	Shortlist     []string
}

var recommendations = map[string]Recommendation{
	BracketStarter: {
		Bracket:       BracketStarter,
		Headline:      "Leasehold studios and land plots in emerging areas",
		Areas:         []string{"Tabanan", "Kedungu", "Lovina"},
		PropertyTypes: []string{"leasehold land", "1BR villa"},
		YieldRange:    "8-11% gross",
		Strategy: []string{
			"Target 25-30 year leases with extension options written into the contract",
			"Build a compact 1-2BR villa for monthly rentals to digital nomads",
		},
		Shortlist: []string{"kedungu-1br-loft", "tabanan-rice-field-plot"},
	},
	BracketMid: {
		Bracket:       BracketMid,
		Headline:      "Turnkey 2-3BR villas for short-term rental",
		Areas:         []string{"Canggu", "Pererenan", "Ubud"},
		PropertyTypes: []string{"2BR villa", "3BR villa"},
		YieldRange:    "10-14% gross",
		Strategy: []string{
			"Buy off-plan from a licensed developer with a rental guarantee",
			"Use a local management company on a 15-20% revenue share",
		},
		Shortlist: []string{"pererenan-2br-pool-villa", "ubud-jungle-3br"},
	},
	BracketUpper: {
		Bracket:       BracketUpper,
		Headline:      "Boutique villa complexes and small hospitality",
		Areas:         []string{"Uluwatu", "Seminyak", "Canggu"},
		PropertyTypes: []string{"villa complex", "guesthouse"},
		YieldRange:    "12-16% gross",
		Strategy: []string{
			"Operate through a PT PMA to hold the business licence",
			"Mix nightly and monthly stays to smooth low season",
		},
		Shortlist: []string{"uluwatu-4-unit-complex", "seminyak-guesthouse-8-keys"},
	},
	BracketPrime: {
		Bracket:       BracketPrime,
		Headline:      "Freehold via PT PMA, cliff-front and beachfront assets",
		Areas:         []string{"Uluwatu", "Nusa Dua", "Sanur"},
		PropertyTypes: []string{"freehold land", "resort"},
		YieldRange:    "7-12% gross plus capital growth",
		Strategy: []string{
			"Acquire freehold (HGB title) through a PT PMA structure",
			"Develop in phases and pre-sell units to fund construction",
		},
		Shortlist: []string{"uluwatu-clifftop-land", "sanur-beachfront-resort"},
	},
}

// BracketFor maps a USD budget to its bracket.
func BracketFor(budgetUSD int64) (string, error) {
	switch {
	case budgetUSD <= 0:
		return "", ErrInvalidBudget
	case budgetUSD < 100_000:
		return BracketStarter, nil
	case budgetUSD < 250_000:
		return BracketMid, nil
	case budgetUSD < 500_000:
		return BracketUpper, nil
	default:
		return BracketPrime, nil
	}
}

// Advise looks up the recommendation for budget.
func Advise(budgetUSD int64) (Recommendation, error) {
	b, err := BracketFor(budgetUSD)
	if err != nil {
		return Recommendation{}, err
	}
	return recommendations[b], nil
}

type AdviceView struct {
	Bracket       string         `json:"bracket"`
	Headline      string         `json:"headline"`
	Areas         []string       `json:"areas"`
	PropertyTypes []string       `json:"property_types"`
	YieldRange    string         `json:"yield_range,omitempty"`
	Strategy      []string       `json:"strategy,omitempty"`
	Shortlist     []string       `json:"shortlist,omitempty"`
	Locked        bool           `json:"locked"`
	Upsell        *access.Upsell `json:"upsell,omitempty"`
}

// ViewFor drops yield, strategy and shortlist for non-entitled viewers.
func (r Recommendation) ViewFor(tier plans.Tier) AdviceView {
	v := AdviceView{
		Bracket:       r.Bracket,
		Headline:      r.Headline,
		Areas:         r.Areas,
		PropertyTypes: r.PropertyTypes,
	}
	if !access.CanView(tier) {
		v.Locked = true
		v.Upsell = access.UpsellFor(plans.TierPremium)
		return v
	}
	v.YieldRange = r.YieldRange
	v.Strategy = r.Strategy
	v.Shortlist = r.Shortlist
	return v
}
