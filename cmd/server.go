package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mcpprobe/internal/config"
	"mcpprobe/internal/containerizer"
	"mcpprobe/internal/stdio"
	"mcpprobe/pkg/logging"
)

const cmdSubsystem = "CLI"

// serverOptions are the flags shared by every command that starts a single server.
type serverOptions struct {
	runtime      string
	pull         bool
	env          []string
	startupDelay time.Duration
	stopTimeout  time.Duration
	exec         bool
	quiet        bool
}

// addServerFlags registers the launch flags on cmd.
func addServerFlags(cmd *cobra.Command, opts *serverOptions) {
	cmd.Flags().StringVar(&opts.runtime, "runtime", config.DefaultRuntime, "Container runtime (docker, podman)")
	cmd.Flags().BoolVar(&opts.pull, "pull", false, "Pull the image before starting it")
	cmd.Flags().StringArrayVarP(&opts.env, "env", "e", nil, "Environment variable for the server (KEY=VALUE, repeatable)")
	cmd.Flags().DurationVar(&opts.startupDelay, "startup-delay", config.DefaultStartupDelay, "Time to wait after starting the server")
	cmd.Flags().DurationVar(&opts.stopTimeout, "stop-timeout", config.DefaultStopTimeout, "Grace period before the server is killed")
	cmd.Flags().BoolVar(&opts.exec, "exec", false, "Treat the image argument as a host command line instead of a container image")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
}

// launcher returns the launcher the options select. Container runtimes are
// pinged, and the image pulled when requested.
func (o *serverOptions) launcher(ctx context.Context, image string) (stdio.Launcher, error) {
	if o.exec {
		return stdio.ProcessLauncher{}, nil
	}
	runtime, err := containerizer.NewContainerRuntime(o.runtime)
	if err != nil {
		return nil, err
	}
	if err := runtime.Ping(ctx); err != nil {
		return nil, err
	}
	if o.pull {
		if err := runtime.PullImage(ctx, image); err != nil {
			return nil, err
		}
	}
	return runtime, nil
}

// launchSpec builds the spec for target. In exec mode target is split on
// whitespace into a command line.
func (o *serverOptions) launchSpec(target, mountPath string) (stdio.LaunchSpec, error) {
	env, err := parseEnv(o.env)
	if err != nil {
		return stdio.LaunchSpec{}, err
	}
	command := []string{target}
	if o.exec {
		command = strings.Fields(target)
	}
	return stdio.LaunchSpec{Command: command, MountPath: mountPath, Env: env}, nil
}

// startServer launches target and waits out the startup delay behind a
// spinner. The caller must Stop the returned client.
func (o *serverOptions) startServer(ctx context.Context, errOut io.Writer, target, mountPath string) (*stdio.Client, error) {
	spec, err := o.launchSpec(target, mountPath)
	if err != nil {
		return nil, err
	}
	launcher, err := o.launcher(ctx, target)
	if err != nil {
		return nil, err
	}

	client := stdio.NewClient(launcher,
		stdio.WithStartupDelay(o.startupDelay),
		stdio.WithStopTimeout(o.stopTimeout),
	)

	stop := o.progress(errOut, fmt.Sprintf(" Starting %s...", target))
	err = client.Start(ctx, spec)
	stop()
	if err != nil {
		return nil, err
	}
	logging.Debug(cmdSubsystem, "Server %s started", target)
	return client, nil
}

// progress shows a spinner on errOut when it is a terminal and returns the
// function that removes it.
func (o *serverOptions) progress(errOut io.Writer, suffix string) func() {
	if o.quiet || !isTerminal(errOut) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(errOut))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseEnv turns KEY=VALUE pairs into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q: expected KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}
