package containerizer

import (
	"fmt"
	"strings"
)

// RuntimeType defines the type of container runtime
type RuntimeType string

const (
	RuntimeTypeDocker RuntimeType = "docker"
	RuntimeTypePodman RuntimeType = "podman"
)

// ParseRuntimeType validates a runtime name. An empty name means docker.
func ParseRuntimeType(runtimeType string) (RuntimeType, error) {
	rt := RuntimeType(strings.ToLower(strings.TrimSpace(runtimeType)))
	switch rt {
	case "":
		return RuntimeTypeDocker, nil
	case RuntimeTypeDocker, RuntimeTypePodman:
		return rt, nil
	default:
		return "", fmt.Errorf("unsupported container runtime: %s", runtimeType)
	}
}

// NewContainerRuntime creates a new container runtime based on the specified type
func NewContainerRuntime(runtimeType string) (ContainerRuntime, error) {
	rt, err := ParseRuntimeType(runtimeType)
	if err != nil {
		return nil, err
	}
	return NewCLIRuntime(string(rt))
}
