package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/framedserial/internal/protocol/session"
	"github.com/danmuck/framedserial/internal/transport"
)

var ErrInvalid = errors.New("config: invalid")

// Config is the resolved framectl configuration.
type Config struct {
	Serial      transport.SerialConfig
	Session     session.Config
	LogLevel    string
	MetricsAddr string
}

type fileConfig struct {
	Serial struct {
		Device      string `toml:"device"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`
	Session struct {
		PollInterval       string  `toml:"poll_interval"`
		MaxTransportErrors int     `toml:"max_transport_errors"`
		BackoffInitial     string  `toml:"backoff_initial"`
		BackoffMultiplier  float64 `toml:"backoff_multiplier"`
		BackoffMax         string  `toml:"backoff_max"`
		BackoffJitter      bool    `toml:"backoff_jitter"`
	} `toml:"session"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`
}

func Default() Config {
	return Config{
		Serial: transport.SerialConfig{
			Device:      "/dev/ttyACM0",
			BaudRate:    115200,
			ReadTimeout: transport.DefaultReadTimeout,
		},
		Session:  session.DefaultConfig(),
		LogLevel: "info",
	}
}

// Load overlays the keys defined in the TOML file at path on Default and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
	}

	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.BaudRate = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "read_timeout") {
		if cfg.Serial.ReadTimeout, err = parseDuration("serial.read_timeout", raw.Serial.ReadTimeout); err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("session", "poll_interval") {
		if cfg.Session.PollInterval, err = parseDuration("session.poll_interval", raw.Session.PollInterval); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("session", "max_transport_errors") {
		cfg.Session.MaxTransportErrors = raw.Session.MaxTransportErrors
	}
	if meta.IsDefined("session", "backoff_initial") {
		if cfg.Session.Backoff.InitialDelay, err = parseDuration("session.backoff_initial", raw.Session.BackoffInitial); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("session", "backoff_multiplier") {
		cfg.Session.Backoff.Multiplier = raw.Session.BackoffMultiplier
	}
	if meta.IsDefined("session", "backoff_max") {
		if cfg.Session.Backoff.MaxDelay, err = parseDuration("session.backoff_max", raw.Session.BackoffMax); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("session", "backoff_jitter") {
		cfg.Session.Backoff.Jitter = raw.Session.BackoffJitter
	}

	if meta.IsDefined("log", "level") {
		cfg.LogLevel = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.Metrics.Addr)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Serial.Device) == "" {
		return fmt.Errorf("%w: serial.device is required", ErrInvalid)
	}
	if cfg.Serial.BaudRate <= 0 {
		return fmt.Errorf("%w: serial.baud must be positive", ErrInvalid)
	}
	if cfg.Serial.ReadTimeout <= 0 || cfg.Serial.ReadTimeout > time.Second {
		return fmt.Errorf("%w: serial.read_timeout must be in (0, 1s], got %v", ErrInvalid, cfg.Serial.ReadTimeout)
	}
	if cfg.Session.PollInterval < 0 {
		return fmt.Errorf("%w: session.poll_interval must not be negative", ErrInvalid)
	}
	if cfg.Session.MaxTransportErrors < 0 {
		return fmt.Errorf("%w: session.max_transport_errors must not be negative", ErrInvalid)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
