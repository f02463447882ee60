package access

func CapabilitiesFor(state AccessState) []string {
	switch state {
	case AccessPremium:
		return []string{CapAdvisorFull, CapWizardFull, CapPropertyPrices, CapScoutingRequest}
	case AccessVIP:
		return []string{CapAdvisorFull, CapWizardFull, CapPropertyPrices, CapScoutingRequest, CapOffMarket, CapConsultation}
	default:
		return []string{CapScoutingRequest}
	}
}
