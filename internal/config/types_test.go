package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ImageList(t *testing.T) {
	cfg := Config{
		Images:      []string{"remote:latest"},
		LocalImages: []string{"remote:local"},
	}
	assert.Equal(t, []string{"remote:latest"}, cfg.ImageList())

	cfg.UseLocalImages = true
	assert.Equal(t, []string{"remote:local"}, cfg.ImageList())

	// The returned slice is a copy.
	list := cfg.ImageList()
	list[0] = "changed"
	assert.Equal(t, "remote:local", cfg.LocalImages[0])
}

func TestConfig_Validate(t *testing.T) {
	valid := GetDefaultConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "negative startup delay", mutate: func(c *Config) { c.StartupDelay = -1 }, field: "startup_delay"},
		{name: "zero stop timeout", mutate: func(c *Config) { c.StopTimeout = 0 }, field: "stop_timeout"},
		{name: "empty image", mutate: func(c *Config) { c.Images = []string{" "} }, field: "images[0]"},
		{name: "no local images", mutate: func(c *Config) { c.UseLocalImages = true; c.LocalImages = nil }, field: "local_images"},
		{name: "bad env key", mutate: func(c *Config) { c.Env = map[string]string{"A=B": "x"} }, field: "env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			coll, ok := err.(ConfigurationErrorCollection)
			if assert.True(t, ok, "expected ConfigurationErrorCollection, got %T", err) {
				assert.Len(t, coll.Errors, 1)
				assert.Equal(t, tt.field, coll.Errors[0].Field)
			}
		})
	}
}

func TestConfigurationError_Error(t *testing.T) {
	cerr := NewConfigurationError("/tmp/x/probe.yaml", CategoryConfig, ErrorTypeValidation, "must be positive")
	cerr.Field = "stop_timeout"
	assert.Equal(t, "[config] probe.yaml: stop_timeout: must be positive", cerr.Error())

	noFile := NewConfigurationError("", CategoryConfig, ErrorTypeEnv, "bad")
	assert.Equal(t, "[config] <defaults>: bad", noFile.Error())

	coll := ConfigurationErrorCollection{}
	assert.NoError(t, coll.ErrOrNil())
	coll.Add(cerr)
	coll.Add(noFile)
	assert.Contains(t, coll.Error(), "2 configuration errors")
}
