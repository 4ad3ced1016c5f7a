package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
)

// envOverrides lists the settings that can be overridden from the
// environment. Zero values mean "not set".
type envOverrides struct {
	UseLocalImages       string        `env:"MCPPROBE_USE_LOCAL_IMAGES"`
	LegacyUseLocalImages string        `env:"USE_LOCAL_IMAGES"`
	Runtime              string        `env:"MCPPROBE_RUNTIME"`
	StartupDelay         time.Duration `env:"MCPPROBE_STARTUP_DELAY"`
	StopTimeout          time.Duration `env:"MCPPROBE_STOP_TIMEOUT"`
	Parallel             int           `env:"MCPPROBE_PARALLEL"`
}

// ApplyEnv overlays environment overrides onto c.
func ApplyEnv(c *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		cerr := NewConfigurationError("", CategoryConfig, ErrorTypeEnv, "invalid environment override")
		cerr.Details = err.Error()
		return cerr
	}

	useLocal := env.UseLocalImages
	if useLocal == "" {
		useLocal = env.LegacyUseLocalImages
	}
	if useLocal != "" {
		v, err := parseBoolish(useLocal)
		if err != nil {
			cerr := NewConfigurationError("", CategoryConfig, ErrorTypeEnv, "invalid boolean "+strconv.Quote(useLocal))
			cerr.Field = "use_local_images"
			return cerr
		}
		c.UseLocalImages = v
	}

	if env.Runtime != "" {
		c.Runtime = env.Runtime
	}
	if env.StartupDelay != 0 {
		c.StartupDelay = env.StartupDelay
	}
	if env.StopTimeout != 0 {
		c.StopTimeout = env.StopTimeout
	}
	if env.Parallel != 0 {
		c.Parallel = env.Parallel
	}
	return nil
}

// parseBoolish accepts strconv booleans plus yes/no and on/off, the forms
// commonly used for CI flags.
func parseBoolish(s string) (bool, error) {
	switch s {
	case "yes", "YES", "Yes", "on", "ON", "On":
		return true, nil
	case "no", "NO", "No", "off", "OFF", "Off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
