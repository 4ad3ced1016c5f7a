package config

import "time"

// Config is the top-level configuration structure for mcpprobe.
type Config struct {
	Images         []string          `yaml:"images,omitempty"`           // Published images tested by default
	LocalImages    []string          `yaml:"local_images,omitempty"`     // Locally built images
	UseLocalImages bool              `yaml:"use_local_images,omitempty"` // Test LocalImages instead of Images
	Runtime        string            `yaml:"runtime,omitempty"`          // docker or podman (default: docker)
	Pull           bool              `yaml:"pull,omitempty"`             // Pull images before running
	StartupDelay   time.Duration     `yaml:"startup_delay,omitempty"`    // Wait after launching a server (default: 2s)
	StopTimeout    time.Duration     `yaml:"stop_timeout,omitempty"`     // Grace period before killing (default: 5s)
	Parallel       int               `yaml:"parallel,omitempty"`         // Concurrent suite runs (default: 1)
	FailFast       bool              `yaml:"fail_fast,omitempty"`        // Stop the suite at the first failure
	Scenarios      string            `yaml:"scenarios,omitempty"`        // Scenario file or directory
	ReportPath     string            `yaml:"report_path,omitempty"`      // Write a JSON report here
	Env            map[string]string `yaml:"env,omitempty"`              // Environment passed to every server

	// path is the file the configuration was read from, if any.
	path string
}

// Path returns the file the configuration was loaded from, or "".
func (c Config) Path() string {
	return c.path
}

// ImageList returns the images a run should target.
func (c Config) ImageList() []string {
	if c.UseLocalImages {
		return append([]string(nil), c.LocalImages...)
	}
	return append([]string(nil), c.Images...)
}
