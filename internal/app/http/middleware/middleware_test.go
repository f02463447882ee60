package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/repository"
)

const secret = "s3cret"

type tierUsers map[uint]plans.Tier

func (t tierUsers) FindByID(_ context.Context, id uint) (*users.User, error) {
	tier, ok := t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &users.User{ID: id, SubscriptionTier: tier}, nil
}

func tokenFor(t *testing.T, id uint, role string) string {
	t.Helper()
	tok, err := IssueToken(secret, time.Hour, users.User{ID: id, Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Auth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "email": Email(c)})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/private", "garbage").Code)

	other, err := IssueToken("other-secret", time.Hour, users.User{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/private", other).Code)

	w := serve(r, "/private", tokenFor(t, 9, users.RoleUser))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 9, body["user_id"])
}

func TestParseTokenRejectsExpiredAndNone(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	raw, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(secret, raw)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	raw, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(secret, raw)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", Auth(secret), RequireRole(users.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", tokenFor(t, 1, users.RoleUser)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "/admin", tokenFor(t, 1, users.RoleAdmin)).Code)
}

func TestOptionalAuthAndTier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := tierUsers{1: plans.TierPremium, 2: plans.TierVIP}

	r := gin.New()
	r.Use(OptionalAuth(secret), LoadTier(store, zerolog.Nop()))
	r.GET("/tier", func(c *gin.Context) {
		c.String(http.StatusOK, string(Tier(c)))
	})
	r.GET("/vip", RequireTier(plans.TierVIP), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, "free", serve(r, "/tier", "").Body.String())
	assert.Equal(t, "free", serve(r, "/tier", "not-a-jwt").Body.String())
	assert.Equal(t, "free", serve(r, "/tier", tokenFor(t, 77, users.RoleUser)).Body.String(), "unknown user")
	assert.Equal(t, "premium", serve(r, "/tier", tokenFor(t, 1, users.RoleUser)).Body.String())

	w := serve(r, "/vip", tokenFor(t, 1, users.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "TIER_REQUIRED")
	assert.Equal(t, http.StatusNoContent, serve(r, "/vip", tokenFor(t, 2, users.RoleUser)).Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()), RequestLogger(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL")
}
