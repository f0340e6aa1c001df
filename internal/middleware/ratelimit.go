package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// TierLimiters holds one request limiter per tier name. The limiter state is
// process-local: it smooths request bursts on one instance, while the
// durable daily charge limit is enforced by the ledger itself.
type TierLimiters struct {
	byTier   map[string]*limiter.Limiter
	fallback *limiter.Limiter
}

// NewTierLimiters builds limiters from requests-per-minute by tier.
// fallbackTier names the tier used for callers without a tier claim.
func NewTierLimiters(perMinute map[string]int64, fallbackTier string) (*TierLimiters, error) {
	store := memory.NewStore()
	tl := &TierLimiters{byTier: make(map[string]*limiter.Limiter, len(perMinute))}
	for tier, limit := range perMinute {
		if limit <= 0 {
			continue
		}
		tl.byTier[tier] = limiter.New(store, limiter.Rate{Period: time.Minute, Limit: limit})
	}
	fb, ok := tl.byTier[fallbackTier]
	if !ok {
		return nil, fmt.Errorf("no rate limit configured for fallback tier %q", fallbackTier)
	}
	tl.fallback = fb
	return tl, nil
}

func (tl *TierLimiters) forTier(tier string) (*limiter.Limiter, string) {
	if l, ok := tl.byTier[tier]; ok {
		return l, tier
	}
	return tl.fallback, "default"
}

// RateLimit creates a Gin middleware that throttles each authenticated
// account according to its tier claim. Unauthenticated callers are keyed by
// client IP.
func RateLimit(limiters *TierLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		key := "ip:" + c.ClientIP()
		if accountID, ok := GetAccountIDFromContext(c); ok {
			key = "account:" + accountID
		}
		l, bucket := limiters.forTier(GetTierFromContext(c.Request.Context()))

		context, err := l.Get(c.Request.Context(), bucket+":"+key)
		if err != nil {
			logger.Error("Failed to get rate limit context", slog.String("key", key), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "Internal server error during rate limit check"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
		if context.Reached {
			logger.Warn("Rate limit exceeded", slog.String("key", key), slog.Int64("limit", context.Limit))
			c.Header("Retry-After", strconv.FormatInt(max(context.Reset-time.Now().Unix(), 1), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "RATE_LIMITED", "message": "Too many requests. Please try again later."})
			return
		}

		c.Next()
	}
}
