package stdio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// LaunchSpec describes the server process to start.
type LaunchSpec struct {
	// Command is the program and its arguments. Container launchers treat
	// Command[0] as the image reference.
	Command []string
	// MountPath is an optional host directory exposed to the server.
	MountPath string
	// Env holds environment variable overrides passed to the server.
	Env map[string]string
}

// EnvList renders Env as sorted KEY=VALUE pairs.
func (s LaunchSpec) EnvList() []string {
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, s.Env[k]))
	}
	return out
}

// Launcher turns a LaunchSpec into a command ready to start. The context
// bounds the lifetime of the resulting process.
type Launcher interface {
	Command(ctx context.Context, spec LaunchSpec) (*exec.Cmd, error)
}

// Cleaner is implemented by launchers that may leave state behind once the
// launched process is gone, such as a container outliving a killed CLI.
type Cleaner interface {
	Cleanup(ctx context.Context, cmd *exec.Cmd) error
}

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// ProcessLauncher runs the command directly on the host. MountPath becomes the
// working directory and Env is layered over the parent environment.
type ProcessLauncher struct{}

// Command implements Launcher.
func (ProcessLauncher) Command(ctx context.Context, spec LaunchSpec) (*exec.Cmd, error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return nil, errors.New("empty command")
	}

	cmd := execCommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	if spec.MountPath != "" {
		info, err := os.Stat(spec.MountPath)
		if err != nil {
			return nil, fmt.Errorf("mount path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("mount path %s is not a directory", spec.MountPath)
		}
		cmd.Dir = spec.MountPath
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.EnvList()...)
	}
	return cmd, nil
}
