package config

import (
	"fmt"
	"os"
)

const defaultTemplate = `# framectl configuration

[serial]
device = "/dev/ttyACM0"
baud = 115200
# Tick latency is bounded by this; keep it short.
read_timeout = "100ms"

[session]
# Slept only when a tick moved no bytes.
poll_interval = "1ms"
max_transport_errors = 5
backoff_initial = "250ms"
backoff_multiplier = 2.0
backoff_max = "5s"
backoff_jitter = true

[log]
level = "info"

[metrics]
# host:port for /health, /stats and /metrics; empty disables it.
addr = ""
`

func Template() string {
	return defaultTemplate
}

// WriteTemplate writes the default configuration to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}
