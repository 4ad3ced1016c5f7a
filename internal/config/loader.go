package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mcpprobe/pkg/logging"
)

const (
	userConfigDir  = ".config/mcpprobe"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable to allow mocking in tests
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/mcpprobe/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig reads the configuration file at path over the defaults, applies
// environment overrides and validates the result. An empty path falls back to
// DefaultConfigPath, which may be absent; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			logging.Debug("ConfigLoader", "%v, using defaults", err)
		}
		path = defaultPath
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeConfig(data, &config); err != nil {
				cerr := NewConfigurationError(path, CategoryConfig, ErrorTypeParse, "malformed YAML")
				cerr.Details = err.Error()
				return Config{}, cerr
			}
			config.path = path
			logging.Info("ConfigLoader", "Loaded configuration from %s", path)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", path)
		default:
			return Config{}, NewConfigurationError(path, CategoryConfig, ErrorTypeIO, err.Error())
		}
	}

	if err := ApplyEnv(&config); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// decodeConfig decodes data over config, rejecting keys Config does not know.
// An empty document leaves config unchanged.
func decodeConfig(data []byte, config *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
