package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/domain/users"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
	ctxTier   = "tier"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for u.
func IssueToken(secret string, ttl time.Duration, u users.User) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("token has no user_id")
	}
	return &claims, nil
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	tok := strings.TrimPrefix(h, "Bearer ")
	if tok == h {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

func setClaims(c *gin.Context, cl *Claims) {
	c.Set(ctxUserID, cl.UserID)
	c.Set(ctxEmail, cl.Email)
	c.Set(ctxRole, cl.Role)
}

// Auth rejects requests without a valid bearer token.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "authorization header missing or malformed")
			return
		}
		claims, err := ParseToken(secret, raw)
		if err != nil {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired token")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth reads the bearer token when present. Invalid tokens are treated
// as anonymous.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if claims, err := ParseToken(secret, raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ctxRole)
		if !exists {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "role not found in token")
			return
		}
		if value != role {
			apierr.Abort(c, http.StatusForbidden, apierr.CodeForbidden, "access denied")
			return
		}
		c.Next()
	}
}

// UserID is 0 for anonymous requests.
func UserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
