package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration and returns a ConfigurationErrorCollection
// describing every problem found, or nil.
func (c Config) Validate() error {
	errs := &ConfigurationErrorCollection{}
	add := func(field, message string, suggestions ...string) {
		cerr := NewConfigurationError(c.path, CategoryConfig, ErrorTypeValidation, message)
		cerr.Field = field
		cerr.Suggestions = suggestions
		errs.Add(cerr)
	}

	switch strings.ToLower(c.Runtime) {
	case "", "docker", "podman":
	default:
		add("runtime", fmt.Sprintf("unsupported container runtime %q", c.Runtime), "use docker or podman")
	}

	if c.StartupDelay < 0 {
		add("startup_delay", "must not be negative")
	}
	if c.StopTimeout <= 0 {
		add("stop_timeout", "must be positive")
	}
	if c.Parallel < 1 {
		add("parallel", fmt.Sprintf("must be at least 1, got %d", c.Parallel))
	}

	field := "images"
	if c.UseLocalImages {
		field = "local_images"
	}
	images := c.ImageList()
	if len(images) == 0 {
		add(field, "no images configured")
	}
	for i, image := range images {
		if strings.TrimSpace(image) == "" {
			add(fmt.Sprintf("%s[%d]", field, i), "image reference is empty")
		}
	}

	for key := range c.Env {
		if key == "" || strings.ContainsAny(key, "= ") {
			add("env", fmt.Sprintf("invalid variable name %q", key))
		}
	}

	return errs.ErrOrNil()
}
