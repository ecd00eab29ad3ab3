package api

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

const (
	defaultRatePerSecond = 25
	defaultBurst         = 50
)

// limiter is satisfied by *rate.Limiter.
type limiter interface {
	Allow() bool
}

// newLimiter returns nil, disabling limiting, unless both values are positive.
func newLimiter(ratePerSecond float64, burst int) limiter {
	if ratePerSecond <= 0 || burst <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// retryAfterSeconds is the time until one token refills, rounded up to a whole second.
func retryAfterSeconds(ratePerSecond float64) int {
	if ratePerSecond <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/ratePerSecond)))
}

func rateLimitMiddleware(l limiter, retryAfter int, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	header := strconv.Itoa(retryAfter)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			w.Header().Set("Retry-After", header)
			writeError(w, http.StatusTooManyRequests, "Too many requests", "configuration endpoint rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
