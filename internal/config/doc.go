// Package config provides configuration for mcpprobe.
//
// Configuration is read from a single YAML file. When no file is given on the
// command line, ~/.config/mcpprobe/config.yaml is used if it exists and the
// built-in defaults otherwise.
//
// # File Format
//
//	images:
//	  - ghcr.io/githubnext/serena-go:latest
//	local_images:
//	  - serena-go:local
//	use_local_images: false
//	runtime: docker
//	pull: true
//	startup_delay: 2s
//	stop_timeout: 5s
//	parallel: 2
//	fail_fast: false
//	scenarios: ./scenarios
//	report_path: report.json
//	env:
//	  SERENA_LOG_LEVEL: debug
//
// # Environment Overrides
//
// After the file is read, a few settings can be overridden from the
// environment. Unset variables leave the file value alone:
//   - MCPPROBE_USE_LOCAL_IMAGES (or USE_LOCAL_IMAGES): run the local image list
//   - MCPPROBE_RUNTIME: docker or podman
//   - MCPPROBE_STARTUP_DELAY, MCPPROBE_STOP_TIMEOUT: Go durations
//   - MCPPROBE_PARALLEL: worker count
//
// # Image Selection
//
// The image list used by a run is never global state. ImageList returns either
// Images or LocalImages depending on UseLocalImages, and callers pass the
// result on explicitly.
//
// # Errors
//
// Load and Validate return ConfigurationError values, collected in a
// ConfigurationErrorCollection when there are several.
package config
