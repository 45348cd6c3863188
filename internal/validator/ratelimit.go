package validator

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dineflow/hookbridge/internal/provider"
)

// RateLimiters holds one token-bucket limiter per client+provider pair.
// Client-specific limits come from the client config; the defaults cover
// clients without one. A zero default disables the gate entirely.
type RateLimiters struct {
	mu            sync.Mutex
	limiters      map[string]*rate.Limiter
	defaultCount  int
	defaultWindow time.Duration
}

func NewRateLimiters(defaultCount int, defaultWindow time.Duration) *RateLimiters {
	if defaultWindow <= 0 {
		defaultWindow = time.Minute
	}
	return &RateLimiters{
		limiters:      make(map[string]*rate.Limiter),
		defaultCount:  defaultCount,
		defaultWindow: defaultWindow,
	}
}

// Allow reports whether one more request from this client may proceed.
func (r *RateLimiters) Allow(p provider.Provider, clientID string, count int, window time.Duration) bool {
	if count <= 0 {
		count = r.defaultCount
		window = r.defaultWindow
	}
	if count <= 0 {
		return true
	}
	if window <= 0 {
		window = r.defaultWindow
	}

	key := string(p) + "/" + clientID
	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		// Burst equals the window allowance so a quiet client can post its
		// full quota at once.
		lim = rate.NewLimiter(rate.Limit(float64(count)/window.Seconds()), count)
		r.limiters[key] = lim
	}
	r.mu.Unlock()

	return lim.Allow()
}
