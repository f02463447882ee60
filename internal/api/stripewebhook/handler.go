package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/domain/billing"
	stripeinfra "bali-advisory/internal/infra/stripe"
	"bali-advisory/internal/service"
)

type Fulfiller interface {
	Handle(ctx context.Context, ev billing.PaymentEvent) (service.Outcome, error)
}

type CustomerStore interface {
	SetBillingCustomerID(ctx context.Context, userID uint, customerID string) error
}

type Handler struct {
	endpointSecret string
	fulfiller      Fulfiller
	customers      CustomerStore
	log            zerolog.Logger
}

func NewHandler(endpointSecret string, f Fulfiller, customers CustomerStore, log zerolog.Logger) *Handler {
	return &Handler{
		endpointSecret: endpointSecret,
		fulfiller:      f,
		customers:      customers,
		log:            log.With().Str("component", "stripe_webhook").Logger(),
	}
}

// StripeWebhook handles POST /webhooks/stripe. Checkout session events go
// through the same fulfillment as Xendit callbacks; everything else is
// acknowledged and ignored.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, 65536)
	if err != nil {
		apierr.JSON(c, http.StatusServiceUnavailable, apierr.CodeUnavailable, "Error reading request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn().Err(err).Msg("signature verification failed")
		apierr.BadRequest(c, "Signature verification failed")
		return
	}

	eventType := string(event.Type)
	if !strings.HasPrefix(eventType, "checkout.session.") {
		c.JSON(http.StatusOK, gin.H{"received": true, "status": "ignored"})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		apierr.BadRequest(c, "Failed to parse session")
		return
	}

	ev, ok := stripeinfra.SessionEvent(event.ID, eventType, &session)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true, "status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.fulfiller.Handle(ctx, ev)
	if err != nil {
		h.log.Error().Err(err).Str("event_id", event.ID).Str("external_id", ev.ExternalID).Msg("fulfillment failed, asking for redelivery")
		apierr.Internal(c, "fulfillment failed")
		return
	}

	if outcome == service.OutcomeTierGranted || outcome == service.OutcomeServiceFulfilled {
		h.rememberCustomer(ctx, ev, &session)
	}

	h.log.Info().
		Str("event_id", event.ID).
		Str("event_type", eventType).
		Str("external_id", ev.ExternalID).
		Str("outcome", string(outcome)).
		Msg("stripe event processed")
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// rememberCustomer stores the Stripe customer id on the buyer. Best effort.
func (h *Handler) rememberCustomer(ctx context.Context, ev billing.PaymentEvent, s *stripe.CheckoutSession) {
	if s.Customer == nil || s.Customer.ID == "" {
		return
	}
	userID, ok := ev.UserID()
	if !ok {
		return
	}
	if err := h.customers.SetBillingCustomerID(ctx, userID, s.Customer.ID); err != nil {
		h.log.Warn().Err(err).Uint("user_id", userID).Msg("store stripe customer id failed")
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
