package stripe

import (
	"strings"

	"github.com/stripe/stripe-go/v75"

	"bali-advisory/internal/domain/billing"
)

// SessionStatus maps a checkout session event onto the invoice status machine
// shared with Xendit. ok=false means the event carries no payment transition.
func SessionStatus(eventType string, s *stripe.CheckoutSession) (string, bool) {
	switch eventType {
	case "checkout.session.expired":
		return billing.StatusExpired, true
	case "checkout.session.async_payment_succeeded":
		return billing.StatusPaid, true
	case "checkout.session.async_payment_failed":
		return billing.StatusExpired, true
	case "checkout.session.completed":
		if s == nil {
			return "", false
		}
		switch strings.TrimSpace(string(s.PaymentStatus)) {
		case string(stripe.CheckoutSessionPaymentStatusPaid), string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired):
			return billing.StatusPaid, true
		default:
			// delayed methods settle later through async_payment_succeeded
			return billing.StatusPending, true
		}
	default:
		return "", false
	}
}

// SessionEvent converts a verified session event into a PaymentEvent. The
// Stripe amount is in minor units; IDR is stored whole.
func SessionEvent(eventID, eventType string, s *stripe.CheckoutSession) (billing.PaymentEvent, bool) {
	status, ok := SessionStatus(eventType, s)
	if !ok || s == nil {
		return billing.PaymentEvent{}, false
	}

	md := make(map[string]string, len(s.Metadata)+1)
	for k, v := range s.Metadata {
		md[k] = v
	}
	if md[billing.MetaUserID] == "" && s.ClientReferenceID != "" {
		md[billing.MetaUserID] = s.ClientReferenceID
	}

	email := md[billing.MetaCustomerEmail]
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		email = s.CustomerDetails.Email
	}

	externalID := md[externalIDKey]
	if externalID == "" {
		externalID = s.ID
	}

	return billing.PaymentEvent{
		Provider:   ProviderName,
		EventID:    eventID,
		InvoiceID:  s.ID,
		ExternalID: externalID,
		Status:     status,
		Amount:     s.AmountTotal / 100,
		PayerEmail: email,
		Metadata:   md,
	}, true
}
