package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/utils/cache"
	"github.com/sahilchouksey/learnpath/utils/response"
	"go.uber.org/zap"
)

const attemptWindow = 15 * time.Minute

// BruteForceProtection locks out an IP after repeated failed logins.
// Cache failures never block a request.
type BruteForceProtection struct {
	store cache.Store
	log   *zap.Logger
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store cache.Store, log *zap.Logger) *BruteForceProtection {
	return &BruteForceProtection{store: store, log: log}
}

func attemptKey(ip string) string { return "brute_force:attempts:" + ip }
func lockKey(ip string) string    { return "brute_force:lock:" + ip }

// lockoutFor returns how long to lock after the given number of failures
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// Check rejects requests from a locked IP with 429 and Retry-After
func (b *BruteForceProtection) Check() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := lockKey(c.IP())

		locked, err := b.store.Exists(c.Context(), key)
		if err != nil {
			b.log.Warn("brute force check skipped", zap.Error(err))
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		retryAfter := 60
		if ttl, err := b.store.TTL(c.Context(), key); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailure counts a failed login and applies progressive lockouts
func (b *BruteForceProtection) RecordFailure(c *fiber.Ctx) {
	ctx := c.Context()
	ip := c.IP()

	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		b.log.Warn("failed to record login failure", zap.Error(err))
		return
	}
	if attempts == 1 {
		_ = b.store.Expire(ctx, attemptKey(ip), attemptWindow)
	}

	if d := lockoutFor(attempts); d > 0 {
		if err := b.store.Set(ctx, lockKey(ip), "locked", d); err != nil {
			b.log.Warn("failed to lock ip", zap.String("ip", ip), zap.Error(err))
			return
		}
		b.log.Info("ip locked after failed logins", zap.String("ip", ip), zap.Int64("attempts", attempts), zap.Duration("for", d))
	}
}

// RecordSuccess clears the IP's counters
func (b *BruteForceProtection) RecordSuccess(c *fiber.Ctx) {
	ip := c.IP()
	_ = b.store.Delete(c.Context(), attemptKey(ip), lockKey(ip))
}
