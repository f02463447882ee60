package routes

import (
	"net/http"

	adminapi "bali-advisory/internal/api/admin"
	advisorapi "bali-advisory/internal/api/advisor"
	authapi "bali-advisory/internal/api/auth"
	"bali-advisory/internal/api/billing"
	kycapi "bali-advisory/internal/api/kyc"
	leadsapi "bali-advisory/internal/api/leads"
	propertiesapi "bali-advisory/internal/api/properties"
	stripewebhooks "bali-advisory/internal/api/stripewebhook"
	"bali-advisory/internal/api/users"
	"bali-advisory/internal/api/xenditwebhook"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/plans"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups every API handler the router mounts. Stripe is nil when
// Xendit is the payment provider and vice versa.
type Handlers struct {
	Auth       *authapi.Handler
	Users      *users.Handler
	Billing    *billing.Handler
	Xendit     *xenditwebhook.Handler
	Stripe     *stripewebhooks.Handler
	Leads      *leadsapi.Handler
	Advisor    *advisorapi.Handler
	Properties *propertiesapi.Handler
	KYC        *kycapi.Handler
	Admin      *adminapi.Handler
}

type Deps struct {
	JWTSecret string
	Users     middleware.UserFinder
	Log       zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, h Handlers, d Deps) {
	auth := middleware.Auth(d.JWTSecret)
	optionalAuth := middleware.OptionalAuth(d.JWTSecret)
	loadTier := middleware.LoadTier(d.Users, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Webhooks read the raw body for signature checks; no sanitizing here.
	if h.Xendit != nil {
		r.POST("/webhooks/xendit", h.Xendit.Callback)
	}
	if h.Stripe != nil {
		r.POST("/webhooks/stripe", h.Stripe.StripeWebhook)
	}

	// Gated content: anonymous callers are served as free.
	content := r.Group("/", optionalAuth, loadTier)
	content.GET("/products", h.Billing.ListProducts)
	content.GET("/properties", h.Properties.List)
	content.GET("/properties/:slug", h.Properties.Get)
	content.GET("/wizard/sectors", h.Advisor.Sectors)

	public := content.Group("/")
	public.Use(middleware.SanitizeInput())

	public.POST("/leads", h.Leads.Submit)
	public.POST("/advisor", h.Advisor.Advise)
	public.POST("/wizard", h.Advisor.Wizard)
	public.POST("/properties/submissions", h.Properties.Submit)

	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.GET("/verify", h.Auth.VerifyEmail)
	public.POST("/resend-verification", h.Auth.ResendVerification)
	public.POST("/request-password-reset", h.Auth.RequestPasswordReset)
	public.POST("/reset-password", h.Auth.ResetPassword)

	r.GET("/auth/google", h.Auth.GoogleStart)
	r.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Authenticated
	authed := r.Group("/")
	authed.Use(auth, loadTier)
	authed.GET("/me", h.Users.GetCurrentUser)
	authed.GET("/me/commissions", h.Users.GetCommissions)
	authed.GET("/payments", h.Billing.GetPaymentHistory)
	authed.POST("/checkout", middleware.SanitizeInput(), h.Billing.CreateCheckout)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.POST("/kyc/documents", h.KYC.Upload)
	authed.GET("/kyc/documents", h.KYC.List)

	// VIP members
	vip := authed.Group("/")
	vip.Use(middleware.RequireTier(plans.TierVIP))
	vip.POST("/consultation-request", middleware.SanitizeInput(), h.Advisor.Consultation)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(auth, middleware.RequireRole("admin"))
	admin.GET("/dashboard", h.Admin.AdminDashboard)
	admin.GET("/users", h.Admin.ListAllUsers)
	admin.GET("/users/:id", h.Admin.GetUserDetails)
	admin.PATCH("/users/:id/tier", h.Admin.SetUserTier)
	admin.PUT("/users/:id/affiliate-code", h.Admin.SetAffiliateCode)
	admin.GET("/users/:id/kyc-documents", h.KYC.AdminList)
	admin.POST("/users/:id/kyc-request", h.KYC.RequestDocuments)
	admin.GET("/payments", h.Admin.ListAllPayments)
	admin.GET("/stats", h.Admin.GetAdminStats)
	admin.GET("/commissions", h.Admin.ListCommissions)

	admin.GET("/leads", h.Leads.List)
	admin.PATCH("/leads/:id", h.Leads.UpdateStatus)

	admin.GET("/properties", h.Properties.AdminList)
	admin.POST("/properties", h.Properties.Create)
	admin.PUT("/properties/:id", h.Properties.Update)
	admin.DELETE("/properties/:id", h.Properties.Delete)
	admin.POST("/properties/:id/approve", h.Properties.Approve)
	admin.POST("/properties/:id/reject", h.Properties.Reject)
}
