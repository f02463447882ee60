package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/domain/access"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

// LoadTier resolves the caller's current tier from the database, not from the
// token, so an upgrade applies on the next request. Anonymous callers are free.
func LoadTier(finder UserFinder, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier := plans.TierFree
		if id := UserID(c); id != 0 {
			u, err := finder.FindByID(c.Request.Context(), id)
			if err != nil {
				log.Warn().Err(err).Uint("user_id", id).Msg("tier lookup failed, serving free content")
			} else {
				tier = u.Tier()
			}
		}
		c.Set(ctxTier, tier)
		c.Next()
	}
}

// Tier is the tier LoadTier resolved, free when it did not run.
func Tier(c *gin.Context) plans.Tier {
	if v, ok := c.Get(ctxTier); ok {
		if t, ok := v.(plans.Tier); ok {
			return t
		}
	}
	return plans.TierFree
}

// RequireTier must run after LoadTier.
func RequireTier(min plans.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Tier(c).AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    apierr.CodeTierRequired,
				"message": string(min) + " membership required",
				"upsell":  access.UpsellFor(min),
			})
			return
		}
		c.Next()
	}
}
