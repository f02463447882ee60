package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"

	"bali-advisory/internal/domain/billing"
)

const (
	ProviderName = "stripe"

	// the session id is Stripe's, our external id travels in metadata
	externalIDKey = "external_id"
)

// Checkout creates one-off Stripe Checkout sessions priced inline.
type Checkout struct {
	secretKey string
}

func NewCheckout(secretKey string) *Checkout {
	stripe.Key = secretKey
	return &Checkout{secretKey: secretKey}
}

func (c *Checkout) Name() string { return ProviderName }

func (c *Checkout) CreateInvoice(ctx context.Context, req billing.InvoiceRequest) (*billing.HostedInvoice, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("stripe key not configured")
	}

	md := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		md[k] = v
	}
	md[externalIDKey] = req.ExternalID

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "idr"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.FailureURL),
		ClientReferenceID: stripe.String(req.Metadata[billing.MetaUserID]),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					// Stripe expects IDR in sen
					UnitAmount: stripe.Int64(req.Amount * 100),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: md,
		},
	}
	if req.PayerEmail != "" {
		params.CustomerEmail = stripe.String(req.PayerEmail)
	}
	params.Context = ctx
	for k, v := range md {
		params.AddMetadata(k, v)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	return &billing.HostedInvoice{
		ID:         s.ID,
		ExternalID: req.ExternalID,
		URL:        s.URL,
	}, nil
}
