package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mcpprobe/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed check, a failed suite or invalid arguments.
	ExitCodeError = 1
)

var (
	rootDebug    bool
	rootLogLevel string
)

// rootCmd represents the base command for the mcpprobe application.
var rootCmd = &cobra.Command{
	Use:   "mcpprobe",
	Short: "Probe MCP servers over stdio",
	Long: `mcpprobe starts MCP servers, usually container images, speaks JSON-RPC
to them over stdin and stdout, and checks that they answer the way an MCP
client expects.

Use 'check' for a quick diagnostic of one image, 'call' to invoke a single
tool, 'suite' to run scenario files against a matrix of images and 'repl'
to explore a server interactively.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Errors are printed by Execute so reported failures are not printed twice.
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLogLevel(rootLogLevel)
		if err != nil {
			return err
		}
		if rootDebug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		if isTerminal(cmd.OutOrStdout()) {
			text.EnableColors()
		} else {
			text.DisableColors()
		}
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcpprobe version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(getExitCode(err))
	}
}

// reportedError marks a failure whose details were already written to the
// user, so Execute only sets the exit code.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging, including server stderr")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}
