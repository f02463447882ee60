package advisor

import (
	"errors"
	"strings"

	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/plans"
)

var ErrUnknownSector = errors.New("unknown sector")

const (
	SectorVillaRental = "villa_rental"
	SectorHospitality = "hospitality"
	SectorFnB         = "fnb"
	SectorRetail      = "retail"
	SectorLandBanking = "land_banking"
)

type SectorGuide struct {
	Sector       string
	Title        string
	Summary      string
	MinBudgetUSD int64
	ROIRange     string
	PaybackYears string
	Licensing    []string
	Risks        []string
	KBLICodes    []string
}

var guides = map[string]SectorGuide{
	SectorVillaRental: {
		Sector:       SectorVillaRental,
		Title:        "Villa rental",
		Summary:      "Short and mid-term rentals remain the most liquid entry into Bali property.",
		MinBudgetUSD: 80_000,
		ROIRange:     "10-15%",
		PaybackYears: "6-9",
		Licensing:    []string{"PT PMA with tourism accommodation KBLI", "Pondok Wisata or villa licence", "PBG building approval"},
		Risks:        []string{"Oversupply in Canggu", "Lease extension terms", "Zoning (green zone) restrictions"},
		KBLICodes:    []string{"55130"},
	},
	SectorHospitality: {
		Sector:       SectorHospitality,
		Title:        "Boutique hospitality",
		Summary:      "Guesthouses and boutique hotels capture higher nightly rates with more operating work.",
		MinBudgetUSD: 250_000,
		ROIRange:     "12-18%",
		PaybackYears: "5-8",
		Licensing:    []string{"PT PMA", "Hotel KBLI and CHSE certification", "Environmental permit (UKL-UPL)"},
		Risks:        []string{"Staffing and service quality", "Seasonality", "OTA commission pressure"},
		KBLICodes:    []string{"55110", "55120"},
	},
	SectorFnB: {
		Sector:       SectorFnB,
		Title:        "Food and beverage",
		Summary:      "Cafés and beach clubs benefit from tourist footfall but have thin margins.",
		MinBudgetUSD: 60_000,
		ROIRange:     "15-25%",
		PaybackYears: "3-5",
		Licensing:    []string{"PT PMA with restaurant KBLI", "Halal and BPOM where applicable", "Alcohol licence for bars"},
		Risks:        []string{"High failure rate", "Landlord lease terms", "Trend-driven demand"},
		KBLICodes:    []string{"56101", "56301"},
	},
	SectorRetail: {
		Sector:       SectorRetail,
		Title:        "Retail and concept stores",
		Summary:      "Lifestyle retail in Seminyak and Canggu targets tourists and expats.",
		MinBudgetUSD: 50_000,
		ROIRange:     "8-14%",
		PaybackYears: "5-7",
		Licensing:    []string{"PT PMA with retail KBLI", "Import licence (API) for imported goods"},
		Risks:        []string{"Rising rents on main streets", "Import duties"},
		KBLICodes:    []string{"47711"},
	},
	SectorLandBanking: {
		Sector:       SectorLandBanking,
		Title:        "Land banking",
		Summary:      "Buying land ahead of infrastructure for long-horizon capital growth.",
		MinBudgetUSD: 100_000,
		ROIRange:     "capital growth 8-20% p.a.",
		PaybackYears: "n/a (exit on sale)",
		Licensing:    []string{"Freehold only via PT PMA (HGB)", "Leasehold via notarial agreement"},
		Risks:        []string{"Title disputes", "Zoning changes", "Illiquidity"},
		KBLICodes:    []string{"68111"},
	},
}

func Sectors() []string {
	return []string{SectorVillaRental, SectorHospitality, SectorFnB, SectorRetail, SectorLandBanking}
}

func GuideFor(sector string) (SectorGuide, error) {
	g, ok := guides[strings.ToLower(strings.TrimSpace(sector))]
	if !ok {
		return SectorGuide{}, ErrUnknownSector
	}
	return g, nil
}

type WizardInput struct {
	BudgetUSD    int64
	Sector       string
	HorizonYears int
	Goal         string // income | growth | lifestyle
}

type WizardResult struct {
	Sector        string         `json:"sector"`
	Title         string         `json:"title"`
	Summary       string         `json:"summary"`
	Bracket       string         `json:"bracket"`
	BudgetFits    bool           `json:"budget_fits"`
	MinBudgetUSD  int64          `json:"min_budget_usd"`
	ROIRange      string         `json:"roi_range,omitempty"`
	PaybackYears  string         `json:"payback_years,omitempty"`
	Licensing     []string       `json:"licensing,omitempty"`
	Risks         []string       `json:"risks,omitempty"`
	KBLICodes     []string       `json:"kbli_codes,omitempty"`
	Advice        []string       `json:"advice"`
	ScoutingOffer bool           `json:"scouting_offer"`
	Locked        bool           `json:"locked"`
	Upsell        *access.Upsell `json:"upsell,omitempty"`
}

// RunWizard combines the sector guide with the budget bracket and applies the
// gate for tier.
func RunWizard(in WizardInput, tier plans.Tier) (WizardResult, error) {
	g, err := GuideFor(in.Sector)
	if err != nil {
		return WizardResult{}, err
	}
	bracket, err := BracketFor(in.BudgetUSD)
	if err != nil {
		return WizardResult{}, err
	}

	res := WizardResult{
		Sector:       g.Sector,
		Title:        g.Title,
		Summary:      g.Summary,
		Bracket:      bracket,
		BudgetFits:   in.BudgetUSD >= g.MinBudgetUSD,
		MinBudgetUSD: g.MinBudgetUSD,
		Advice:       adviceFor(in, g),
	}

	if !access.CanView(tier) {
		res.Locked = true
		res.Upsell = access.UpsellFor(plans.TierPremium)
		return res, nil
	}

	res.ROIRange = g.ROIRange
	res.PaybackYears = g.PaybackYears
	res.Licensing = g.Licensing
	res.Risks = g.Risks
	res.KBLICodes = g.KBLICodes
	res.ScoutingOffer = access.CanViewVIP(tier)
	return res, nil
}

func adviceFor(in WizardInput, g SectorGuide) []string {
	var out []string
	if in.BudgetUSD < g.MinBudgetUSD {
		out = append(out, "Your budget is below the typical entry point; consider a co-investment or a smaller leasehold asset.")
	}
	switch {
	case in.HorizonYears > 0 && in.HorizonYears < 5:
		out = append(out, "A short horizon favours leasehold assets with immediate rental income.")
	case in.HorizonYears >= 10:
		out = append(out, "A long horizon makes freehold through a PT PMA worth the setup cost.")
	}
	switch in.Goal {
	case "income":
		out = append(out, "Prioritise proven rental areas over emerging ones.")
	case "growth":
		out = append(out, "Emerging areas near new infrastructure offer the strongest appreciation.")
	case "lifestyle":
		out = append(out, "Choose an area you would live in; rental yield is secondary.")
	}
	if len(out) == 0 {
		out = append(out, "Book a free call to refine your plan.")
	}
	return out
}
