package session

import "time"

// BackoffConfig defines retry backoff behavior after transport errors.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines pump pacing and error tolerance.
type Config struct {
	// Link labels this pump's metrics.
	Link string
	// PollInterval is slept when a tick moved no bytes. Zero busy-polls.
	PollInterval time.Duration
	// IdleSpins is how many consecutive idle steps yield the processor
	// before the pump falls back to sleeping PollInterval.
	IdleSpins int
	// MaxTransportErrors is the number of consecutive transport errors
	// tolerated before Run gives up. Zero retries forever.
	MaxTransportErrors int
	Backoff            BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Link:               "default",
		PollInterval:       time.Millisecond,
		IdleSpins:          64,
		MaxTransportErrors: 5,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
