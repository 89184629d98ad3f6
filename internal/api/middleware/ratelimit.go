package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apierrors "github.com/feral-file/ff-tier-pass/internal/api/shared/errors"
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/logger"
)

// RateLimitConfig bounds the mutating requests of each authenticated caller.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// limiterSweepInterval is how often idle limiters are dropped from the table
const limiterSweepInterval = time.Minute

type callerLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[domain.Account]*rate.Limiter
	lastSweep time.Time
	now       func() time.Time
}

func newCallerLimiters(limit rate.Limit, burst int, now func() time.Time) *callerLimiters {
	return &callerLimiters{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[domain.Account]*rate.Limiter),
		lastSweep: now(),
		now:       now,
	}
}

// allow takes one token from the caller's bucket
func (l *callerLimiters) allow(caller domain.Account) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now)
	}

	limiter, ok := l.limiters[caller]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[caller] = limiter
	}
	return limiter.AllowN(now, 1)
}

// sweep drops limiters whose bucket has refilled. Such a limiter behaves
// exactly like a new one, so dropping it loses no state.
func (l *callerLimiters) sweep(now time.Time) {
	for caller, limiter := range l.limiters {
		if limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, caller)
		}
	}
	l.lastSweep = now
}

// size returns the number of tracked callers
func (l *callerLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit returns a gin middleware that rejects callers exceeding their request rate with 429.
// It must run after Auth; unauthenticated requests pass through.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiters := newCallerLimiters(rate.Limit(cfg.RequestsPerSecond), burst, time.Now)

	return func(c *gin.Context) {
		caller, ok := Caller(c)
		if !ok {
			c.Next()
			return
		}

		if !limiters.allow(caller) {
			logger.WarnCtx(c.Request.Context(), "Rate limit exceeded",
				zap.String("caller", caller.String()),
				zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierrors.NewTooManyRequestsError("Rate limit exceeded"))
			return
		}
		c.Next()
	}
}
