package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/repository"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

type UserStore interface {
	Create(ctx context.Context, u *users.User) error
	FindByID(ctx context.Context, id uint) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	Update(ctx context.Context, userID uint, updates map[string]interface{}) error
}

type TokenStore interface {
	Replace(ctx context.Context, t *users.VerificationToken) error
	Find(ctx context.Context, token, kind string) (*users.VerificationToken, error)
	Delete(ctx context.Context, id uint) error
}

// Events sends account emails off the request path.
type Events interface {
	Welcome(ctx context.Context, email, name string)
	Verification(ctx context.Context, email, name, token string)
	PasswordReset(ctx context.Context, email, name, token string)
}

type Handler struct {
	users     UserStore
	tokens    TokenStore
	events    Events
	jwtSecret string
	jwtTTL    time.Duration
	google    *Google
	log       zerolog.Logger
}

func NewHandler(u UserStore, t TokenStore, events Events, jwtSecret string, jwtTTL time.Duration, google *Google, log zerolog.Logger) *Handler {
	return &Handler{
		users:     u,
		tokens:    t,
		events:    events,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		google:    google,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// issueToken stores a fresh single-use token of kind for u.
func (h *Handler) issueToken(ctx context.Context, u *users.User, kind string, ttl time.Duration) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	err = h.tokens.Replace(ctx, &users.VerificationToken{
		UserID:    u.ID,
		Token:     token,
		Type:      kind,
		ExpiresAt: time.Now().Add(ttl),
	})
	return token, err
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Lastname string `json:"lastname"`
		Tel      string `json:"tel"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	input.Email = normalizeEmail(input.Email)
	if !isPasswordStrong(input.Password) {
		apierr.BadRequest(c, "Password must be at least 8 characters long and contain both letters and numbers")
		return
	}
	if !leads.IsEmailValid(input.Email) {
		apierr.BadRequest(c, "Invalid email format")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		apierr.Internal(c, "Failed to hash password")
		return
	}
	password := string(hashed)

	user := users.User{
		Name:             strings.TrimSpace(input.Name),
		Lastname:         strings.TrimSpace(input.Lastname),
		Tel:              strings.TrimSpace(input.Tel),
		Email:            input.Email,
		Password:         &password,
		AuthProvider:     users.ProviderLocal,
		Role:             users.RoleUser,
		SubscriptionTier: plans.TierFree,
	}

	ctx := c.Request.Context()
	if err := h.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			apierr.JSON(c, http.StatusConflict, apierr.CodeConflict, "Email already registered")
			return
		}
		h.log.Error().Err(err).Msg("create user failed")
		apierr.Internal(c, "Failed to create account")
		return
	}

	token, err := h.issueToken(ctx, &user, users.TokenEmailVerification, verificationTTL)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", user.ID).Msg("store verification token failed")
		apierr.Internal(c, "Failed to create verification token")
		return
	}

	h.events.Verification(ctx, user.Email, user.DisplayName(), token)
	h.events.Welcome(ctx, user.Email, user.DisplayName())

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully. Please check your email to verify your account."})
}

// VerifyEmail consumes an email verification token.
func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apierr.BadRequest(c, "Missing token")
		return
	}

	ctx := c.Request.Context()
	vt, err := h.tokens.Find(ctx, token, users.TokenEmailVerification)
	if err != nil || vt.Expired(time.Now()) {
		apierr.BadRequest(c, "Invalid or expired token")
		return
	}
	if err := h.users.Update(ctx, vt.UserID, map[string]interface{}{"is_verified": true}); err != nil {
		apierr.FromError(c, err)
		return
	}
	if err := h.tokens.Delete(ctx, vt.ID); err != nil {
		h.log.Warn().Err(err).Uint("user_id", vt.UserID).Msg("delete used verification token failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), normalizeEmail(input.Email))
	if err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "Invalid credentials")
		return
	}
	if user.Password == nil || *user.Password == "" {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "This account uses Google sign-in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsVerified {
		apierr.JSON(c, http.StatusForbidden, apierr.CodeForbidden, "Please verify your email before logging in")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, h.jwtTTL, *user)
	if err != nil {
		apierr.Internal(c, "Could not create token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "Missing or invalid email")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, normalizeEmail(body.Email))
	if err != nil {
		apierr.NotFound(c, "User not found")
		return
	}
	if user.IsVerified {
		apierr.BadRequest(c, "User already verified")
		return
	}

	token, err := h.issueToken(ctx, user, users.TokenEmailVerification, verificationTTL)
	if err != nil {
		apierr.Internal(c, "Failed to store verification token")
		return
	}
	h.events.Verification(ctx, user.Email, user.DisplayName(), token)

	c.JSON(http.StatusOK, gin.H{"message": "Verification email resent"})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "Invalid email")
		return
	}

	const msg = "If your email exists, you'll receive a reset link."
	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, normalizeEmail(body.Email))
	if err != nil {
		// don't expose whether the email exists
		c.JSON(http.StatusOK, gin.H{"message": msg})
		return
	}

	token, err := h.issueToken(ctx, user, users.TokenPasswordReset, resetTTL)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", user.ID).Msg("store reset token failed")
		apierr.Internal(c, "Failed to create reset token")
		return
	}
	h.events.PasswordReset(ctx, user.Email, user.DisplayName(), token)

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var body struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "Invalid request")
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		apierr.BadRequest(c, "Password must be at least 8 characters with letters and numbers")
		return
	}

	ctx := c.Request.Context()
	reset, err := h.tokens.Find(ctx, body.Token, users.TokenPasswordReset)
	if err != nil || reset.Expired(time.Now()) {
		apierr.BadRequest(c, "Invalid or expired token")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apierr.Internal(c, "Failed to hash password")
		return
	}
	if err := h.users.Update(ctx, reset.UserID, map[string]interface{}{"password": string(hashed)}); err != nil {
		apierr.FromError(c, err)
		return
	}
	if err := h.tokens.Delete(ctx, reset.ID); err != nil {
		h.log.Warn().Err(err).Uint("user_id", reset.UserID).Msg("delete used reset token failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var body struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "Invalid input")
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		apierr.BadRequest(c, "New password must be at least 8 characters with letters and numbers")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, middleware.UserID(c))
	if err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "User not found")
		return
	}
	if user.Password == nil || *user.Password == "" {
		apierr.BadRequest(c, "This account does not have a password. Sign in with Google or set a password first.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)); err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "Old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apierr.Internal(c, "Failed to hash password")
		return
	}
	if err := h.users.Update(ctx, user.ID, map[string]interface{}{"password": string(hashed)}); err != nil {
		apierr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
