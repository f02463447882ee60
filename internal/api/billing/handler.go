package billing

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	domainbilling "bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/service"
)

type Checkout interface {
	Start(ctx context.Context, in service.CheckoutInput) (*service.CheckoutResult, error)
}

type Rates interface {
	USDToIDR(ctx context.Context) (float64, bool)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type PaymentHistory interface {
	ListByUser(ctx context.Context, userID uint) ([]domainbilling.Payment, error)
}

type Handler struct {
	checkout Checkout
	rates    Rates
	users    UserFinder
	payments PaymentHistory
	log      zerolog.Logger
}

func NewHandler(checkout Checkout, rates Rates, u UserFinder, payments PaymentHistory, log zerolog.Logger) *Handler {
	return &Handler{
		checkout: checkout,
		rates:    rates,
		users:    u,
		payments: payments,
		log:      log.With().Str("component", "billing_api").Logger(),
	}
}

type productDTO struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceUSD     string `json:"price_usd"`
	DisplayPrice string `json:"display_price"`
	AmountIDR    int64  `json:"amount_idr"`
	FormattedIDR string `json:"formatted_idr"`
	Tier         string `json:"tier,omitempty"`
}

// ListProducts returns the catalog with the IDR amount an invoice would carry
// right now.
func (h *Handler) ListProducts(c *gin.Context) {
	rate, fallback := h.rates.USDToIDR(c.Request.Context())

	out := make([]productDTO, 0, 3)
	for _, p := range catalog.All() {
		amount := catalog.ToDestinationCurrency(p, rate)
		out = append(out, productDTO{
			Key:          p.Key,
			Name:         p.Name,
			Description:  p.Description,
			PriceUSD:     p.PriceUSD.StringFixed(2),
			DisplayPrice: p.DisplayPriceUSD(),
			AmountIDR:    amount,
			FormattedIDR: catalog.FormatIDR(amount),
			Tier:         string(p.Tier),
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out, "exchange_rate": rate, "fallback_rate": fallback})
}

// CreateCheckout starts a hosted invoice. POST /checkout
func (h *Handler) CreateCheckout(c *gin.Context) {
	var body struct {
		ProductKey    string `json:"product_key" binding:"required"`
		AffiliateCode string `json:"affiliate_code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "product_key is required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, middleware.UserID(c))
	if err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "User not found")
		return
	}

	res, err := h.checkout.Start(ctx, service.CheckoutInput{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.DisplayName(),
		ProductKey:    strings.TrimSpace(body.ProductKey),
		AffiliateCode: strings.TrimSpace(body.AffiliateCode),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, catalog.ErrUnknownProduct):
		apierr.JSON(c, http.StatusBadRequest, apierr.CodeUnknownProduct, "unknown product")
	case errors.Is(err, service.ErrPaymentSystem):
		apierr.JSON(c, http.StatusBadGateway, apierr.CodePaymentError, "payment system error")
	default:
		h.log.Error().Err(err).Uint("user_id", user.ID).Msg("checkout failed")
		apierr.Internal(c, "internal error")
	}
}

// GetPaymentHistory lists the caller's invoices, newest first.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	payments, err := h.payments.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Internal(c, "Failed to fetch payment history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
