package session

import (
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns the retry delay for consecutive transport
// failure N (1-based). Without a MaxDelay the delay still saturates at the
// largest representable duration.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	limit := float64(math.MaxInt64)
	if cfg.MaxDelay > 0 {
		limit = float64(cfg.MaxDelay)
	}
	if math.IsInf(delay, 1) || delay > limit {
		delay = limit
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = math.Min(delay*f, float64(math.MaxInt64))
	}
	return time.Duration(delay)
}
