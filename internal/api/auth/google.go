package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/repository"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "oauth_state"
)

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	SecureCookie     bool
}

// Google holds the OAuth client. The OIDC verifier is created on first use so
// startup does not depend on Google being reachable.
type Google struct {
	cfg   GoogleConfig
	oauth *oauth2.Config

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// NewGoogle returns nil when the client is not configured; the routes then
// answer 503.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &Google{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *Google) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	return g.verifier, nil
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (g *Google) verify(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	verifier, err := g.idTokenVerifier(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}
	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("token missing required claims")
	}
	return &claims, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleStart redirects to the consent screen. GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		apierr.JSON(c, http.StatusServiceUnavailable, apierr.CodeUnavailable, "Google sign-in is not configured")
		return
	}
	state, err := randomState()
	if err != nil {
		apierr.Internal(c, "failed to generate state")
		return
	}

	// 5 minutes, httpOnly
	c.SetCookie(stateCookie, state, 300, "/", "", h.google.cfg.SecureCookie, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback finishes the OIDC flow and issues the app token.
// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		apierr.JSON(c, http.StatusServiceUnavailable, apierr.CodeUnavailable, "Google sign-in is not configured")
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		apierr.BadRequest(c, "missing code/state")
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		apierr.BadRequest(c, "invalid oauth state")
		return
	}

	ctx := c.Request.Context()
	tok, err := h.google.oauth.Exchange(ctx, code)
	if err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "failed to exchange code")
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "missing id_token")
		return
	}
	claims, err := h.google.verify(ctx, rawIDToken)
	if err != nil {
		apierr.JSON(c, http.StatusUnauthorized, apierr.CodeUnauthorized, err.Error())
		return
	}

	user, created, err := h.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		h.log.Error().Err(err).Str("email", claims.Email).Msg("google user upsert failed")
		apierr.Internal(c, "failed to create user")
		return
	}
	if created {
		h.events.Welcome(ctx, user.Email, user.DisplayName())
	}

	token, err := middleware.IssueToken(h.jwtSecret, h.jwtTTL, *user)
	if err != nil {
		apierr.Internal(c, "could not create token")
		return
	}

	if h.google.cfg.FrontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}
	c.Redirect(http.StatusFound, h.google.cfg.FrontendRedirect+"?token="+url.QueryEscape(token))
}

// findOrCreateGoogleUser matches by google sub, then by email (linking the
// account), and creates a verified free user otherwise.
func (h *Handler) findOrCreateGoogleUser(ctx context.Context, gc *googleIDClaims) (*users.User, bool, error) {
	u, err := h.users.FindByGoogleSub(ctx, gc.Sub)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	email := normalizeEmail(gc.Email)
	u, err = h.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.GoogleSub == nil {
			sub := gc.Sub
			if err := h.users.Update(ctx, u.ID, map[string]interface{}{
				"google_sub":  sub,
				"is_verified": true,
			}); err != nil {
				return nil, false, err
			}
			u.GoogleSub = &sub
			u.IsVerified = true
		}
		return u, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	sub := gc.Sub
	user := users.User{
		Name:             firstNonEmpty(gc.GivenName, gc.Name),
		Lastname:         gc.FamilyName,
		Email:            email,
		AuthProvider:     users.ProviderGoogle,
		GoogleSub:        &sub,
		Role:             users.RoleUser,
		IsVerified:       true,
		SubscriptionTier: plans.TierFree,
	}
	if err := h.users.Create(ctx, &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
