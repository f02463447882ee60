package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/users"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type PaymentReader interface {
	ListByUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	ListCommissions(ctx context.Context, code string) ([]billing.AffiliateCommission, error)
}

type Handler struct {
	users    UserFinder
	payments PaymentReader
	log      zerolog.Logger
}

func NewHandler(u UserFinder, payments PaymentReader, log zerolog.Logger) *Handler {
	return &Handler{users: u, payments: payments, log: log.With().Str("component", "users_api").Logger()}
}

// GetCurrentUser handles GET /me. The tier is read from the database, never
// from the token.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, middleware.UserID(c))
	if err != nil {
		apierr.FromError(c, err)
		return
	}

	payments, err := h.payments.ListByUser(ctx, user.ID)
	if err != nil {
		// the profile is still useful without payment history
		h.log.Warn().Err(err).Uint("user_id", user.ID).Msg("load payments for /me failed")
	}

	policy := access.ComputePolicy(*user)
	c.JSON(http.StatusOK, MeResponse{
		User: BuildUserDTO(*user),
		Billing: BillingDTO{
			Tier:          string(policy.Tier),
			TierUpdatedAt: user.TierUpdatedAt,
			Upgrade:       BuildUpgradeDTO(policy.Tier),
			Affiliate:     BuildAffiliateDTO(*user),
			LastPayment:   BuildLastPaymentDTO(payments),
		},
		Access: BuildAccessDTO(policy),
	})
}

// GetCommissions handles GET /me/commissions for users holding an affiliate code.
func (h *Handler) GetCommissions(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, middleware.UserID(c))
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	if user.AffiliateCode == nil || *user.AffiliateCode == "" {
		apierr.JSON(c, http.StatusForbidden, apierr.CodeForbidden, "no affiliate code on this account")
		return
	}

	list, err := h.payments.ListCommissions(ctx, *user.AffiliateCode)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", user.ID).Msg("load commissions failed")
		apierr.Internal(c, "failed to load commissions")
		return
	}

	var total int64
	for _, cm := range list {
		total += cm.AmountIDR
	}
	c.JSON(http.StatusOK, gin.H{
		"affiliate_code": *user.AffiliateCode,
		"commissions":    BuildCommissionDTOs(list),
		"total_idr":      total,
	})
}
