package containerizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"mcpprobe/internal/stdio"
	"mcpprobe/pkg/logging"
	pkgstrings "mcpprobe/pkg/strings"
)

const containerSubsystem = "Container"

// containerNamePrefix marks containers started by this tool.
const containerNamePrefix = "mcpprobe-"

// CLIRuntime implements ContainerRuntime on top of a docker compatible CLI
type CLIRuntime struct {
	binary string
}

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// lookPath is a variable to allow mocking in tests
var lookPath = exec.LookPath

// NewCLIRuntime creates a runtime driving the given binary
func NewCLIRuntime(binary string) (*CLIRuntime, error) {
	if _, err := lookPath(binary); err != nil {
		return nil, fmt.Errorf("%s command not found in PATH: %w", binary, err)
	}
	return &CLIRuntime{binary: binary}, nil
}

// NewDockerRuntime creates a new Docker runtime instance
func NewDockerRuntime() (*CLIRuntime, error) {
	return NewCLIRuntime(string(RuntimeTypeDocker))
}

// NewPodmanRuntime creates a new Podman runtime instance
func NewPodmanRuntime() (*CLIRuntime, error) {
	return NewCLIRuntime(string(RuntimeTypePodman))
}

// Name implements ContainerRuntime.
func (r *CLIRuntime) Name() string {
	return r.binary
}

// Ping checks that the daemon is accessible
func (r *CLIRuntime) Ping(ctx context.Context) error {
	cmd := execCommandContext(ctx, r.binary, "info")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s daemon not accessible: %w: %s", r.binary, err, pkgstrings.FirstLine(string(output)))
	}
	return nil
}

// Command builds the interactive run command for spec. Command[0] is the image.
func (r *CLIRuntime) Command(ctx context.Context, spec stdio.LaunchSpec) (*exec.Cmd, error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return nil, errors.New("no image given")
	}

	config := ContainerConfig{
		Name:  containerNamePrefix + uuid.NewString(),
		Image: spec.Command[0],
		Env:   spec.Env,
		Args:  spec.Command[1:],
	}
	if spec.MountPath != "" {
		hostPath, err := filepath.Abs(expandPath(spec.MountPath))
		if err != nil {
			return nil, fmt.Errorf("mount path: %w", err)
		}
		info, err := os.Stat(hostPath)
		if err != nil {
			return nil, fmt.Errorf("mount path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("mount path %s is not a directory", hostPath)
		}
		config.Volumes = append(config.Volumes, hostPath+":"+WorkspaceMountPoint+":rw")
	}

	args := runArgs(config)
	logging.Debug(containerSubsystem, "Launching container with command: %s %s", r.binary, strings.Join(args, " "))
	return execCommandContext(ctx, r.binary, args...), nil
}

// runArgs renders the arguments of an interactive, auto-removed run
func runArgs(config ContainerConfig) []string {
	args := []string{"run", "--rm", "-i", "--name", config.Name}

	for _, vol := range config.Volumes {
		args = append(args, "-v", vol)
	}

	keys := make([]string, 0, len(config.Env))
	for k := range config.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, config.Env[k]))
	}

	args = append(args, config.Image)
	return append(args, config.Args...)
}

// Cleanup removes the container started by cmd, if it is still around
func (r *CLIRuntime) Cleanup(ctx context.Context, cmd *exec.Cmd) error {
	name := ContainerName(cmd)
	if name == "" {
		return nil
	}
	err := r.RemoveContainer(ctx, name)
	if err == nil {
		return nil
	}
	running, inspectErr := r.IsContainerRunning(ctx, name)
	switch {
	case inspectErr != nil:
		logging.Warn(containerSubsystem, "Could not inspect container %s after failed removal: %v", name, inspectErr)
	case running:
		return fmt.Errorf("container %s is still running: %w", name, err)
	}
	return err
}

// ContainerName returns the --name argument of a run command, or "".
func ContainerName(cmd *exec.Cmd) string {
	if cmd == nil {
		return ""
	}
	for i, arg := range cmd.Args {
		if arg == "--name" && i+1 < len(cmd.Args) {
			return cmd.Args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--name="); ok {
			return v
		}
	}
	return ""
}

// PullImage pulls a container image if not already present
func (r *CLIRuntime) PullImage(ctx context.Context, image string) error {
	logging.Info(containerSubsystem, "Checking if image %s exists locally", image)

	checkCmd := execCommandContext(ctx, r.binary, "image", "inspect", image)
	if err := checkCmd.Run(); err == nil {
		logging.Debug(containerSubsystem, "Image %s already exists", image)
		return nil
	}

	logging.Info(containerSubsystem, "Pulling image %s", image)
	pullCmd := execCommandContext(ctx, r.binary, "pull", image)
	pullCmd.Stdout = logging.LineWriter(containerSubsystem, logging.LevelDebug)
	pullCmd.Stderr = logging.LineWriter(containerSubsystem, logging.LevelWarn)

	if err := pullCmd.Run(); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}

	return nil
}

// IsContainerRunning checks if a container is running
func (r *CLIRuntime) IsContainerRunning(ctx context.Context, name string) (bool, error) {
	cmd := execCommandContext(ctx, r.binary, "inspect", "-f", "{{.State.Running}}", name)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to inspect container %s: %w", pkgstrings.ShortID(name), err)
	}

	return strings.TrimSpace(string(output)) == "true", nil
}

// RemoveContainer force-removes a container. A container that is already
// gone is not an error.
func (r *CLIRuntime) RemoveContainer(ctx context.Context, name string) error {
	logging.Debug(containerSubsystem, "Removing container %s", name)

	cmd := execCommandContext(ctx, r.binary, "rm", "-f", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(strings.ToLower(string(output)), "no such container") {
			return nil
		}
		return fmt.Errorf("failed to remove container %s: %w: %s", name, err, pkgstrings.FirstLine(string(output)))
	}

	return nil
}

// expandPath expands tilde in paths to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
