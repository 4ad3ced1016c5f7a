package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// helperCommand is a command line that re-executes the test binary in mode.
func helperCommand(mode string) string {
	return fmt.Sprintf("%s -test.run=TestHelperProcess -- %s", os.Args[0], mode)
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of suite
// workers and the logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// executeRoot runs the root command with args and returns its stdout.
func executeRoot(args ...string) (string, error) {
	out, _, err := executeRootStreams(args...)
	return out, err
}

// executeRootStreams runs the root command with args and returns stdout and
// stderr separately. Log output goes to stderr.
func executeRootStreams(args ...string) (string, string, error) {
	checkOpts.env, callOpts.env, replOpts.env, suiteOpts.env = nil, nil, nil, nil
	suiteImages, suiteOnly = nil, nil

	var stdout, stderr syncBuffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// TestHelperProcess is not a real test. It is re-executed as the MCP server
// started by the command tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "No helper mode\n")
		os.Exit(2)
	}

	switch args[0] {
	case "mcp":
		if err := server.ServeStdio(newHelperServer()); err != nil {
			os.Exit(1)
		}

	case "no-result":
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			var req map[string]any
			_ = json.Unmarshal(scanner.Bytes(), &req)
			out, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": req["id"]})
			fmt.Println(string(out))
		}

	case "exit":
		fmt.Fprintln(os.Stderr, "cannot find language server")
		os.Exit(3)

	default:
		fmt.Fprintf(os.Stderr, "Unknown helper mode: %s\n", args[0])
		os.Exit(2)
	}
	os.Exit(0)
}

func newHelperServer() *server.MCPServer {
	s := server.NewMCPServer("helper-server", "9.9.9", server.WithToolCapabilities(false))
	s.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo the message back"),
			mcp.WithString("message", mcp.Required()),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			message, err := request.RequireString("message")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(message), nil
		},
	)
	s.AddTool(
		mcp.NewTool("pwd", mcp.WithDescription("Print the working directory")),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			wd, err := os.Getwd()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(wd), nil
		},
	)
	return s
}
