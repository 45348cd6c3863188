package queue

import (
	"math"
	"math/rand"
	"time"
)

// nextDelay computes the wait before retry number attempt (1-indexed: the
// first retry uses attempt=1). The jitter term desynchronizes jobs that
// failed together so they do not all come due in the same sweep.
func nextDelay(attempt int, cfg RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.Jitter > 0 {
		base += rand.Float64() * float64(cfg.Jitter)
	}
	if max := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && base > max {
		base = max
	}
	return time.Duration(base)
}
