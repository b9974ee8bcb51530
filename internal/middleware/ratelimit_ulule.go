package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/levelup-ai/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	// DefaultRate is the per-IP burst limit in front of /api
	DefaultRate = "20-S"

	rateLimitPrefix = "levelup:ratelimit"
)

// RateLimit returns per-IP rate limiting middleware. Counters live in Redis when a client
// is given so every server instance shares them, otherwise in process memory.
func RateLimit(rateStr string, redisClient redis.UniversalClient) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rateStr, err)
	}

	// Share counters across instances when Redis is available
	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: time.Minute,
		})
	}

	// Limit by client IP and answer 429 with the API error body
	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, slow down")
		}),
	)
	return mw.Handler, nil
}
