package config

import "time"

const (
	// DefaultRuntime is the container CLI used when none is configured.
	DefaultRuntime = "docker"

	// DefaultStartupDelay matches the stdio client's default.
	DefaultStartupDelay = 2 * time.Second

	// DefaultStopTimeout matches the stdio client's default.
	DefaultStopTimeout = 5 * time.Second

	// DefaultParallel runs one scenario at a time.
	DefaultParallel = 1
)

// DefaultImages are the published Serena images.
var DefaultImages = []string{
	"ghcr.io/githubnext/aw-serena:latest",
	"ghcr.io/githubnext/serena-go:latest",
	"ghcr.io/githubnext/serena-python:latest",
	"ghcr.io/githubnext/serena-typescript:latest",
	"ghcr.io/githubnext/serena-java:latest",
}

// DefaultLocalImages are the same images built locally.
var DefaultLocalImages = []string{
	"aw-serena:local",
	"serena-go:local",
	"serena-python:local",
	"serena-typescript:local",
	"serena-java:local",
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() Config {
	return Config{
		Images:       append([]string(nil), DefaultImages...),
		LocalImages:  append([]string(nil), DefaultLocalImages...),
		Runtime:      DefaultRuntime,
		StartupDelay: DefaultStartupDelay,
		StopTimeout:  DefaultStopTimeout,
		Parallel:     DefaultParallel,
	}
}
