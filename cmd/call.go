package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mcpprobe/internal/formatting"
)

var (
	callOpts   serverOptions
	callArgs   string
	callMount  string
	callOutput string
)

// callCmd represents the call command
var callCmd = &cobra.Command{
	Use:   "call <image> <tool>",
	Short: "Call a single tool on an MCP server",
	Long: `Start an MCP server, initialize it and call one tool.

Arguments are passed as a JSON object with --args. The result is printed as
text (console), a table, JSON or YAML depending on --output. The command
exits with 1 when the call fails or the tool reports an error.

Examples:
  mcpprobe call serena-go:dev get_current_config --mount ./project
  mcpprobe call serena-go:dev find_symbol --args '{"name_path":"main"}' -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	addServerFlags(callCmd, &callOpts)
	callCmd.Flags().StringVar(&callArgs, "args", "", "Tool arguments as a JSON object")
	callCmd.Flags().StringVar(&callMount, "mount", "", "Host directory to mount as the server workspace")
	callCmd.Flags().StringVarP(&callOutput, "output", "o", "console", "Output format (console, table, json, yaml)")
}

func runCall(cmd *cobra.Command, args []string) error {
	target, toolName := args[0], args[1]

	format, err := formatting.ParseFormat(callOutput)
	if err != nil {
		return err
	}
	var arguments map[string]any
	if callArgs != "" {
		if err := json.Unmarshal([]byte(callArgs), &arguments); err != nil {
			return fmt.Errorf("--args must be a JSON object: %w", err)
		}
	}

	client, err := callOpts.startServer(cmd.Context(), cmd.ErrOrStderr(), target, callMount)
	if err != nil {
		return err
	}
	defer client.Stop()

	if _, err := client.Initialize(nil); err != nil {
		return err
	}
	resp, err := client.CallToolResponse(toolName, arguments)
	if err != nil {
		return err
	}
	if rpcErr := resp.RPCError(); rpcErr != nil {
		return fmt.Errorf("tool call failed: %w", rpcErr)
	}

	formatter := formatting.New(formatting.Options{Format: format, Out: cmd.OutOrStdout()})
	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCallResult(resp.Result()))

	if resp.IsToolError() {
		return &reportedError{err: errors.New("tool reported an error")}
	}
	return nil
}
