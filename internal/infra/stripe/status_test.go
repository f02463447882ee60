package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v75"

	"bali-advisory/internal/domain/billing"
)

func TestSessionStatus(t *testing.T) {
	paid := &stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid}
	unpaid := &stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}

	s, ok := SessionStatus("checkout.session.completed", paid)
	assert.True(t, ok)
	assert.Equal(t, billing.StatusPaid, s)

	s, ok = SessionStatus("checkout.session.completed", unpaid)
	assert.True(t, ok)
	assert.Equal(t, billing.StatusPending, s)

	s, ok = SessionStatus("checkout.session.expired", unpaid)
	assert.True(t, ok)
	assert.Equal(t, billing.StatusExpired, s)

	_, ok = SessionStatus("customer.created", nil)
	assert.False(t, ok)
}

func TestSessionEvent(t *testing.T) {
	sess := &stripe.CheckoutSession{
		ID:                "cs_test_1",
		PaymentStatus:     stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:       31342500,
		ClientReferenceID: "12",
		Metadata: map[string]string{
			billing.MetaProductKey: "premium",
			billing.MetaTier:       "premium",
			externalIDKey:          "premium-12-abc",
		},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "nyoman@example.com"},
	}

	ev, ok := SessionEvent("evt_1", "checkout.session.completed", sess)
	assert.True(t, ok)
	assert.Equal(t, "evt_1", ev.EventID)
	assert.Equal(t, "premium-12-abc", ev.ExternalID)
	assert.Equal(t, int64(313425), ev.Amount)
	assert.Equal(t, "nyoman@example.com", ev.PayerEmail)

	uid, ok := ev.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(12), uid)
}
