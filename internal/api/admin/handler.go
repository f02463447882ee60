package admin

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
)

type UserStore interface {
	List(ctx context.Context) ([]users.User, error)
	FindByID(ctx context.Context, id uint) (*users.User, error)
	UpdateTier(ctx context.Context, userID uint, tier plans.Tier) error
	Update(ctx context.Context, userID uint, updates map[string]interface{}) error
	CountByTier(ctx context.Context) (map[plans.Tier]int64, error)
}

type PaymentStore interface {
	List(ctx context.Context) ([]billing.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	PaidRevenue(ctx context.Context, since *time.Time) (int64, error)
	ListCommissions(ctx context.Context, code string) ([]billing.AffiliateCommission, error)
}

type AdminUser struct {
	ID                uint       `json:"id"`
	Name              string     `json:"name"`
	Lastname          string     `json:"lastname"`
	Tel               string     `json:"tel"`
	Email             string     `json:"email"`
	Role              string     `json:"role"`
	IsVerified        bool       `json:"is_verified"`
	AuthProvider      string     `json:"auth_provider"`
	Tier              plans.Tier `json:"tier"`
	TierUpdatedAt     *time.Time `json:"tier_updated_at,omitempty"`
	BillingCustomerID *string    `json:"billing_customer_id,omitempty"`
	AffiliateCode     *string    `json:"affiliate_code,omitempty"`
	CRMPartnerID      *int64     `json:"crm_partner_id,omitempty"`
	CreatedAt         string     `json:"created_at"`
}

type AdminPayment struct {
	ID           uint       `json:"id"`
	UserID       uint       `json:"user_id"`
	Email        string     `json:"email"`
	Provider     string     `json:"provider"`
	ExternalID   string     `json:"external_id"`
	ProductKey   string     `json:"product_key"`
	AmountIDR    int64      `json:"amount_idr"`
	FormattedIDR string     `json:"formatted_idr"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    string     `json:"created_at"`
}

type AdminStats struct {
	TotalUsers    int64            `json:"total_users"`
	TotalRevenue  int64            `json:"total_revenue_idr"`
	RecentRevenue int64            `json:"recent_revenue_idr"`
	UsersPerTier  map[string]int64 `json:"users_per_tier"`
}

var affiliateCodeRe = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Handler struct {
	users    UserStore
	payments PaymentStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewHandler(u UserStore, p PaymentStore, log zerolog.Logger) *Handler {
	return &Handler{
		users:    u,
		payments: p,
		log:      log.With().Str("component", "admin_api").Logger(),
		now:      time.Now,
	}
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the admin dashboard",
	})
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		apierr.Internal(c, "failed to load users")
		return
	}

	tierFilter := c.Query("tier")
	adminUsers := make([]AdminUser, 0, len(list))
	for _, u := range list {
		if tierFilter != "" && string(u.Tier()) != tierFilter {
			continue
		}
		adminUsers = append(adminUsers, toAdminUser(u))
	}

	c.JSON(http.StatusOK, adminUsers)
}

func (h *Handler) ListAllPayments(c *gin.Context) {
	list, err := h.payments.List(c.Request.Context())
	if err != nil {
		apierr.Internal(c, "failed to load payments")
		return
	}

	status := strings.ToUpper(c.Query("status"))
	result := make([]AdminPayment, 0, len(list))
	for _, p := range list {
		if status != "" && p.Status != status {
			continue
		}
		result = append(result, toAdminPayment(p))
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.users.CountByTier(ctx)
	if err != nil {
		apierr.Internal(c, "failed to count users")
		return
	}
	total, err := h.payments.PaidRevenue(ctx, nil)
	if err != nil {
		apierr.Internal(c, "failed to sum revenue")
		return
	}
	thirtyDaysAgo := h.now().AddDate(0, 0, -30)
	recent, err := h.payments.PaidRevenue(ctx, &thirtyDaysAgo)
	if err != nil {
		apierr.Internal(c, "failed to sum revenue")
		return
	}

	stats := AdminStats{
		TotalRevenue:  total,
		RecentRevenue: recent,
		UsersPerTier:  map[string]int64{},
	}
	for _, t := range plans.Tiers {
		stats.UsersPerTier[string(t)] = 0
	}
	for t, n := range counts {
		// legacy or empty values count as free
		tier, _ := plans.ParseTier(string(t))
		stats.UsersPerTier[string(tier)] += n
		stats.TotalUsers += n
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	payments, err := h.payments.ListByUser(ctx, id)
	if err != nil {
		apierr.Internal(c, "failed to fetch payments")
		return
	}

	out := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, toAdminPayment(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     toAdminUser(*user),
		"payments": out,
	})
}

// SetUserTier handles PATCH /admin/users/:id/tier. Unlike fulfillment, an
// admin may move a user to any tier, including down.
func (h *Handler) SetUserTier(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "tier is required")
		return
	}
	tier, valid := plans.ParseTier(req.Tier)
	if !valid {
		apierr.BadRequest(c, "tier must be one of free, premium, vip")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	if err := h.users.UpdateTier(ctx, id, tier); err != nil {
		h.log.Error().Err(err).Uint("user_id", id).Str("tier", string(tier)).Msg("admin tier override failed")
		apierr.FromError(c, err)
		return
	}

	h.log.Info().
		Uint("user_id", id).
		Str("from", string(user.Tier())).
		Str("to", string(tier)).
		Msg("tier overridden by admin")
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": id, "tier": tier})
}

// SetAffiliateCode handles PUT /admin/users/:id/affiliate-code.
func (h *Handler) SetAffiliateCode(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "code is required")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !affiliateCodeRe.MatchString(code) {
		apierr.BadRequest(c, "code must be 3-32 letters, digits, '-' or '_'")
		return
	}

	if err := h.users.Update(c.Request.Context(), id, map[string]interface{}{"affiliate_code": code}); err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "affiliate_code": code})
}

// ListCommissions handles GET /admin/commissions?code=.
func (h *Handler) ListCommissions(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Query("code")))
	if code == "" {
		apierr.BadRequest(c, "code is required")
		return
	}
	list, err := h.payments.ListCommissions(c.Request.Context(), code)
	if err != nil {
		apierr.Internal(c, "failed to load commissions")
		return
	}

	var owed int64
	for _, cm := range list {
		if cm.Status == "owed" {
			owed += cm.AmountIDR
		}
	}
	c.JSON(http.StatusOK, gin.H{"commissions": list, "owed_idr": owed})
}

func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierr.BadRequest(c, "invalid user id")
		return 0, false
	}
	return uint(id), true
}

func toAdminUser(u users.User) AdminUser {
	return AdminUser{
		ID:                u.ID,
		Name:              u.Name,
		Lastname:          u.Lastname,
		Tel:               u.Tel,
		Email:             u.Email,
		Role:              u.Role,
		IsVerified:        u.IsVerified,
		AuthProvider:      u.AuthProvider,
		Tier:              u.Tier(),
		TierUpdatedAt:     u.TierUpdatedAt,
		BillingCustomerID: u.BillingCustomerID,
		AffiliateCode:     u.AffiliateCode,
		CRMPartnerID:      u.CRMPartnerID,
		CreatedAt:         u.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func toAdminPayment(p billing.Payment) AdminPayment {
	return AdminPayment{
		ID:           p.ID,
		UserID:       p.UserID,
		Email:        p.PayerEmail,
		Provider:     p.Provider,
		ExternalID:   p.ExternalID,
		ProductKey:   p.ProductKey,
		AmountIDR:    p.AmountIDR,
		FormattedIDR: catalog.FormatIDR(p.AmountIDR),
		Status:       p.Status,
		PaidAt:       p.PaidAt,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04"),
	}
}
