package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mcpprobe/internal/formatting"
	"mcpprobe/internal/stdio"
	pkgstrings "mcpprobe/pkg/strings"
)

// checkToolPreview is how many tools check prints.
const checkToolPreview = 5

var checkOpts serverOptions

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <image> [mount-path]",
	Short: "Check that an MCP server initializes and lists its tools",
	Long: `Start an MCP server, send initialize and tools/list, and report the result.

The image is started with the container runtime in interactive mode. When a
mount path is given it is mounted read-write at /workspace inside the
container. With --exec the first argument is run as a host command instead,
with the mount path as its working directory.

The command exits with 0 when the server answers initialize with a result,
and with 1 on any failure.

Examples:
  mcpprobe check ghcr.io/githubnext/serena-mcp-server:latest
  mcpprobe check serena-go:dev ./my-project --env LOG_LEVEL=debug
  mcpprobe check --exec "uvx serena start-mcp-server" .`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addServerFlags(checkCmd, &checkOpts)
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := args[0]
	mountPath := ""
	if len(args) > 1 {
		mountPath = args[1]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Testing MCP Server: %s ===\n\n", target)

	err := checkServer(cmd.Context(), out, cmd.ErrOrStderr(), target, mountPath)
	if err != nil {
		fmt.Fprintf(out, "\n%s Test failed with error: %v\n", text.FgRed.Sprint("❌"), err)
		var noResp *stdio.NoResponseError
		if errors.As(err, &noResp) && noResp.Stderr != "" {
			fmt.Fprintf(out, "\nServer stderr:\n%s\n", noResp.Stderr)
		}
		return &reportedError{err: err}
	}

	fmt.Fprintf(out, "\n%s All tests passed!\n", text.FgGreen.Sprint("✅"))
	return nil
}

// checkServer runs the initialize and tools/list diagnostic against target.
func checkServer(ctx context.Context, out, errOut io.Writer, target, mountPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := checkOpts.startServer(ctx, errOut, target, mountPath)
	if err != nil {
		return err
	}
	defer client.Stop()

	fmt.Fprintln(out, "Test 1: Initialize")
	resp, err := client.Initialize(nil)
	if err != nil {
		return err
	}
	if !resp.HasResult() {
		if rpcErr := resp.RPCError(); rpcErr != nil {
			return fmt.Errorf("initialize failed: %w", rpcErr)
		}
		return fmt.Errorf("initialize failed: response has no result: %s", formatting.PrettyJSON(map[string]any(resp)))
	}

	fmt.Fprintf(out, "%s Initialize successful\n", text.FgGreen.Sprint("✓"))
	if info, err := resp.InitializeResult(); err == nil {
		fmt.Fprintf(out, "  Server info: %s %s (protocol %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)
	}

	fmt.Fprintln(out, "\nTest 2: List tools")
	defs, err := client.ListTools()
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintf(out, "%s No tools available (might be expected)\n", text.FgYellow.Sprint("⚠"))
		return nil
	}

	fmt.Fprintf(out, "%s Found %d tools:\n", text.FgGreen.Sprint("✓"), len(defs))
	for i, def := range defs {
		if i == checkToolPreview {
			fmt.Fprintf(out, "  ... and %d more\n", len(defs)-checkToolPreview)
			break
		}
		fmt.Fprintf(out, "  - %s: %s\n", def.Name(), toolDescription(def))
	}
	return nil
}

func toolDescription(def stdio.ToolDefinition) string {
	if def.Description() == "" {
		return "No description"
	}
	return pkgstrings.TruncateDescription(def.Description(), pkgstrings.DefaultDescriptionMaxLen)
}
