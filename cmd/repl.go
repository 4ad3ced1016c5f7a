package cmd

import (
	"github.com/spf13/cobra"

	"mcpprobe/internal/formatting"
	"mcpprobe/internal/repl"
)

var (
	replOpts   serverOptions
	replOutput string
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl <image> [mount-path]",
	Short: "Explore an MCP server interactively",
	Long: `Start an MCP server, initialize it and open an interactive session.

Commands inside the session:
  tools                 list tools
  describe <tool>       show a tool's arguments
  call <tool> [json]    call a tool
  raw <method> [json]   send any JSON-RPC request
  exit                  leave

Tool names complete with TAB. History is kept between sessions.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
	addServerFlags(replCmd, &replOpts)
	replCmd.Flags().StringVarP(&replOutput, "output", "o", "console", "Output format (console, table, json, yaml)")
}

func runREPL(cmd *cobra.Command, args []string) error {
	target := args[0]
	mountPath := ""
	if len(args) > 1 {
		mountPath = args[1]
	}

	format, err := formatting.ParseFormat(replOutput)
	if err != nil {
		return err
	}

	client, err := replOpts.startServer(cmd.Context(), cmd.ErrOrStderr(), target, mountPath)
	if err != nil {
		return err
	}
	defer client.Stop()

	if _, err := client.Initialize(nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	formatter := formatting.New(formatting.Options{Format: format, Out: out})
	return repl.New(client, formatter, out, target).Run(cmd.Context())
}
