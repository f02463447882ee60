// Package xenditwebhook receives Xendit invoice callbacks.
package xenditwebhook

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/infra/xendit"
	"bali-advisory/internal/service"
)

const maxBodyBytes = 1 << 20

type Fulfiller interface {
	Handle(ctx context.Context, ev billing.PaymentEvent) (service.Outcome, error)
}

type Handler struct {
	token     string
	fulfiller Fulfiller
	log       zerolog.Logger
}

func NewHandler(callbackToken string, f Fulfiller, log zerolog.Logger) *Handler {
	return &Handler{
		token:     callbackToken,
		fulfiller: f,
		log:       log.With().Str("component", "xendit_webhook").Logger(),
	}
}

// Callback handles POST /webhooks/xendit. Every verified, well-formed callback
// is acknowledged, except when granting the tier failed: then a 500 makes
// Xendit retry.
func (h *Handler) Callback(c *gin.Context) {
	got := c.GetHeader(xendit.CallbackTokenHeader)
	if got == "" {
		apierr.JSON(c, http.StatusBadRequest, apierr.CodeBadRequest, "missing callback token")
		return
	}
	if !xendit.VerifyCallbackToken(got, h.token) {
		h.log.Warn().Str("client_ip", c.ClientIP()).Msg("callback token mismatch")
		apierr.JSON(c, http.StatusForbidden, apierr.CodeForbidden, "invalid callback token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		apierr.BadRequest(c, "unable to read body")
		return
	}
	cb, err := xendit.ParseInvoiceCallback(body)
	if err != nil {
		h.log.Warn().Err(err).Msg("malformed callback")
		apierr.BadRequest(c, "malformed callback")
		return
	}

	outcome, err := h.fulfiller.Handle(c.Request.Context(), cb.Event())
	if err != nil {
		h.log.Error().Err(err).Str("external_id", cb.ExternalID).Str("invoice_id", cb.ID).Msg("fulfillment failed, asking for redelivery")
		apierr.Internal(c, "fulfillment failed")
		return
	}

	h.log.Info().
		Str("external_id", cb.ExternalID).
		Str("invoice_id", cb.ID).
		Str("status", cb.Status).
		Str("outcome", string(outcome)).
		Msg("callback processed")
	c.JSON(http.StatusOK, gin.H{"received": true})
}
