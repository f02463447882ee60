package access

type AccessState string

const (
	AccessLocked  AccessState = "locked"
	AccessPremium AccessState = "premium"
	AccessVIP     AccessState = "vip"
)

// Capability names returned to the frontend.
const (
	CapAdvisorFull     = "advisor_full"
	CapWizardFull      = "wizard_full"
	CapPropertyPrices  = "property_prices"
	CapOffMarket       = "off_market_listings"
	CapConsultation    = "private_consultation"
	CapScoutingRequest = "scouting_request"
)
