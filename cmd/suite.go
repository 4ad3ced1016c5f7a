package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mcpprobe/internal/config"
	"mcpprobe/internal/containerizer"
	"mcpprobe/internal/stdio"
	"mcpprobe/internal/suite"
	"mcpprobe/pkg/logging"
)

var (
	suiteConfigPath   string
	suiteScenarios    string
	suiteOnly         []string
	suiteImages       []string
	suiteParallel     int
	suiteFailFast     bool
	suiteReportPath   string
	suiteLocal        bool
	suiteWatch        bool
	suiteVerbose      bool
	suiteOpts         serverOptions
	errSuiteHadFailed = errors.New("suite failed")
)

// suiteCmd represents the suite command
var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Run scenarios against a matrix of MCP server images",
	Long: `Run every scenario against every configured image. Each run gets a fresh
workspace fixture and its own server container.

Images, runtime and defaults come from ~/.config/mcpprobe/config.yaml (or
--config), MCPPROBE_* environment variables and finally the flags below.
Without a scenario file the built-in initialize and list_tools scenarios run.

The command exits with 1 when any run fails or errors.

Examples:
  mcpprobe suite
  mcpprobe suite --local --parallel 4
  mcpprobe suite --scenarios ./scenarios --image serena-go:dev --report out/report.json
  mcpprobe suite --scenarios ./scenarios --watch`,
	Args: cobra.NoArgs,
	RunE: runSuite,
}

func init() {
	rootCmd.AddCommand(suiteCmd)
	addServerFlags(suiteCmd, &suiteOpts)

	suiteCmd.Flags().StringVar(&suiteConfigPath, "config", "", "Configuration file (default ~/.config/mcpprobe/config.yaml)")
	suiteCmd.Flags().StringVar(&suiteScenarios, "scenarios", "", "Scenario file or directory (default: built-in scenarios)")
	suiteCmd.Flags().StringArrayVar(&suiteOnly, "scenario", nil, "Only run the named scenario (repeatable)")
	suiteCmd.Flags().StringArrayVar(&suiteImages, "image", nil, "Image to test instead of the configured list (repeatable)")
	suiteCmd.Flags().IntVar(&suiteParallel, "parallel", config.DefaultParallel, "Number of concurrent runs")
	suiteCmd.Flags().BoolVar(&suiteFailFast, "fail-fast", false, "Stop after the first failed run")
	suiteCmd.Flags().StringVar(&suiteReportPath, "report", "", "Write a JSON report to this file")
	suiteCmd.Flags().BoolVar(&suiteLocal, "local", false, "Test the locally built images")
	suiteCmd.Flags().BoolVar(&suiteWatch, "watch", false, "Re-run whenever the scenario files change")
	suiteCmd.Flags().BoolVarP(&suiteVerbose, "verbose", "v", false, "Print every run and step")

	suiteCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if suiteParallel < 1 || suiteParallel > 50 {
			return fmt.Errorf("parallel workers must be between 1 and 50, got %d", suiteParallel)
		}
		return nil
	}
}

// suiteConfig loads the configuration and applies the flags the user set.
func suiteConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadConfig(suiteConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("scenarios") {
		cfg.Scenarios = suiteScenarios
	}
	if flags.Changed("parallel") {
		cfg.Parallel = suiteParallel
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = suiteFailFast
	}
	if flags.Changed("report") {
		cfg.ReportPath = suiteReportPath
	}
	if flags.Changed("local") {
		cfg.UseLocalImages = suiteLocal
	}
	if flags.Changed("runtime") {
		cfg.Runtime = suiteOpts.runtime
	}
	if flags.Changed("pull") {
		cfg.Pull = suiteOpts.pull
	}
	if flags.Changed("startup-delay") {
		cfg.StartupDelay = suiteOpts.startupDelay
	}
	if flags.Changed("stop-timeout") {
		cfg.StopTimeout = suiteOpts.stopTimeout
	}
	if len(suiteImages) > 0 {
		cfg.Images = suiteImages
		cfg.LocalImages = suiteImages
	}
	env, err := parseEnv(suiteOpts.env)
	if err != nil {
		return config.Config{}, err
	}
	for k, v := range env {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string)
		}
		cfg.Env[k] = v
	}

	return cfg, cfg.Validate()
}

// loadSuiteScenarios returns the configured scenarios, narrowed to --scenario.
func loadSuiteScenarios(path string) ([]suite.Scenario, error) {
	scenarios := suite.DefaultScenarios()
	if path != "" {
		var err error
		if scenarios, err = suite.LoadScenarios(path); err != nil {
			return nil, err
		}
	}
	if len(suiteOnly) == 0 {
		return scenarios, nil
	}

	wanted := make(map[string]bool, len(suiteOnly))
	for _, name := range suiteOnly {
		wanted[name] = true
	}
	var selected []suite.Scenario
	for _, sc := range scenarios {
		if wanted[sc.Name] {
			selected = append(selected, sc)
			delete(wanted, sc.Name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("scenario not found: %s", name)
	}
	return selected, nil
}

// suiteLauncher returns the launcher for the suite and the workspace path
// the servers see.
func suiteLauncher(ctx context.Context, cfg config.Config, images []string) (stdio.Launcher, string, error) {
	if suiteOpts.exec {
		return commandLineLauncher{}, "", nil
	}
	runtime, err := containerizer.NewContainerRuntime(cfg.Runtime)
	if err != nil {
		return nil, "", err
	}
	if err := runtime.Ping(ctx); err != nil {
		return nil, "", err
	}
	if cfg.Pull {
		for _, image := range images {
			if err := runtime.PullImage(ctx, image); err != nil {
				return nil, "", err
			}
		}
	}
	return runtime, containerizer.WorkspaceMountPoint, nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := suiteConfig(cmd)
	if err != nil {
		return err
	}
	images := cfg.ImageList()
	if len(images) == 0 {
		return errors.New("no images configured")
	}

	launcher, guestWorkspace, err := suiteLauncher(ctx, cfg, images)
	if err != nil {
		return err
	}

	opts := suite.Options{
		Images:         images,
		LocalImages:    cfg.UseLocalImages,
		Parallel:       cfg.Parallel,
		FailFast:       cfg.FailFast,
		StartupDelay:   cfg.StartupDelay,
		StopTimeout:    cfg.StopTimeout,
		Env:            cfg.Env,
		GuestWorkspace: guestWorkspace,
	}
	reporter := suite.NewConsoleReporter(cmd.OutOrStdout(), suiteVerbose)

	runOnce := func() error {
		scenarios, err := loadSuiteScenarios(cfg.Scenarios)
		if err != nil {
			return err
		}
		result, err := suite.NewRunner(launcher, reporter, opts).Run(ctx, scenarios)
		if err != nil {
			return err
		}
		if cfg.ReportPath != "" {
			if err := suite.WriteJSONReport(cfg.ReportPath, *result); err != nil {
				return err
			}
			logging.Info(cmdSubsystem, "Report written to %s", cfg.ReportPath)
		}
		if !result.Succeeded() {
			return &reportedError{err: errSuiteHadFailed}
		}
		return nil
	}

	if !suiteWatch {
		return runOnce()
	}
	if cfg.Scenarios == "" {
		return errors.New("--watch needs a scenario file or directory")
	}

	if err := runOnce(); err != nil && !errors.Is(err, errSuiteHadFailed) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes (Ctrl+C to stop)\n", cfg.Scenarios)
	return suite.Watch(ctx, cfg.Scenarios, suite.DefaultDebounce, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nScenarios changed, re-running\n\n")
		if err := runOnce(); err != nil && !errors.Is(err, errSuiteHadFailed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// commandLineLauncher runs each image string as a host command line.
type commandLineLauncher struct {
	stdio.ProcessLauncher
}

// Command implements stdio.Launcher.
func (l commandLineLauncher) Command(ctx context.Context, spec stdio.LaunchSpec) (*exec.Cmd, error) {
	if len(spec.Command) == 1 {
		spec.Command = strings.Fields(spec.Command[0])
	}
	return l.ProcessLauncher.Command(ctx, spec)
}
