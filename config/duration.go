package config

import (
	"time"
)

// Duration is a time.Duration that reads Go duration strings ("300s",
// "1m30s") from TOML values and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler, which both the TOML
// decoder and the env parser honor.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the canonical Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
