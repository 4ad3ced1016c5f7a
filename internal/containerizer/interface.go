package containerizer

import (
	"context"

	"mcpprobe/internal/stdio"
)

// WorkspaceMountPoint is where the host mount path appears inside the container.
const WorkspaceMountPoint = "/workspace"

// ContainerRuntime launches MCP servers inside containers. It doubles as a
// stdio.Launcher so a client can start an image the same way it starts a
// host process.
type ContainerRuntime interface {
	stdio.Launcher
	stdio.Cleaner

	// Name returns the runtime binary, e.g. "docker".
	Name() string

	// Ping checks that the runtime daemon answers.
	Ping(ctx context.Context) error

	// PullImage pulls a container image if not already present
	PullImage(ctx context.Context, image string) error

	// IsContainerRunning checks if a container is running
	IsContainerRunning(ctx context.Context, name string) (bool, error)

	// RemoveContainer force-removes a container
	RemoveContainer(ctx context.Context, name string) error
}

// ContainerConfig holds configuration for an interactive server container
type ContainerConfig struct {
	Name    string            // Container name
	Image   string            // Container image
	Env     map[string]string // Environment variables
	Volumes []string          // Volume mounts (host:container[:mode])
	Args    []string          // Arguments passed after the image
}
