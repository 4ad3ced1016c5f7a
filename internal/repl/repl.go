package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mark3labs/mcp-go/mcp"

	"mcpprobe/internal/formatting"
	"mcpprobe/internal/stdio"
	"mcpprobe/pkg/logging"
)

const replSubsystem = "REPL"

// historyFileName lives in the temp dir; history is a convenience, not state.
const historyFileName = ".mcpprobe_history"

// errExit is returned by Execute when the user asks to leave.
var errExit = errors.New("exit")

// Session is the part of the stdio client the REPL drives.
type Session interface {
	ListTools() ([]stdio.ToolDefinition, error)
	CallToolResponse(name string, arguments map[string]any) (stdio.Response, error)
	SendRequest(method string, params map[string]any) (stdio.Response, error)
}

// REPL is an interactive loop over a running MCP server.
type REPL struct {
	session   Session
	formatter formatting.Formatter
	out       io.Writer
	prompt    string
	tools     []mcp.Tool
	rl        *readline.Instance
}

// New creates a REPL writing to out. The prompt shows name, usually the image.
func New(session Session, formatter formatting.Formatter, out io.Writer, name string) *REPL {
	if out == nil {
		out = os.Stdout
	}
	return &REPL{
		session:   session,
		formatter: formatter,
		out:       out,
		prompt:    fmt.Sprintf("%s » ", name),
	}
}

// Run reads commands until exit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.RefreshTools(); err != nil {
		logging.Warn(replSubsystem, "Could not list tools: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt,
		HistoryFile:     filepath.Join(os.TempDir(), historyFileName),
		AutoComplete:    r.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	fmt.Fprintf(r.out, "Connected. %d tools available. Type 'help' for commands.\n\n", len(r.tools))

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if err := r.Execute(input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		fmt.Fprintln(r.out)
	}
}

// RefreshTools reloads the tool list used by completion and describe.
func (r *REPL) RefreshTools() error {
	defs, err := r.session.ListTools()
	if err != nil {
		return err
	}
	tools := make([]mcp.Tool, 0, len(defs))
	for _, def := range defs {
		tool, err := def.Tool()
		if err != nil {
			logging.Debug(replSubsystem, "Skipping undecodable tool %q: %v", def.Name(), err)
			continue
		}
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	r.tools = tools
	if r.rl != nil {
		r.rl.Config.AutoComplete = r.createCompleter()
	}
	return nil
}

// Execute runs a single command line.
func (r *REPL) Execute(input string) error {
	command, rest := splitWord(input)

	switch strings.ToLower(command) {
	case "help", "?":
		r.printHelp()
		return nil

	case "exit", "quit":
		return errExit

	case "tools", "list":
		if err := r.RefreshTools(); err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.formatter.FormatToolsList(r.tools))
		return nil

	case "describe":
		if rest == "" {
			return fmt.Errorf("usage: describe <tool>")
		}
		tool := formatting.FindTool(r.tools, rest)
		if tool == nil {
			return fmt.Errorf("tool not found: %s", rest)
		}
		fmt.Fprintln(r.out, r.formatter.FormatToolDetail(*tool))
		return nil

	case "call":
		name, argText := splitWord(rest)
		if name == "" {
			return fmt.Errorf("usage: call <tool> [json-arguments]")
		}
		args, err := parseJSONObject(argText)
		if err != nil {
			return err
		}
		resp, err := r.session.CallToolResponse(name, args)
		if err != nil {
			return err
		}
		if rpcErr := resp.RPCError(); rpcErr != nil {
			return rpcErr
		}
		fmt.Fprintln(r.out, r.formatter.FormatCallResult(resp.Result()))
		return nil

	case "raw":
		method, paramText := splitWord(rest)
		if method == "" {
			return fmt.Errorf("usage: raw <method> [json-params]")
		}
		params, err := parseJSONObject(paramText)
		if err != nil {
			return err
		}
		resp, err := r.session.SendRequest(method, params)
		if err != nil {
			return err
		}
		return r.formatter.FormatData(map[string]interface{}(resp))

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", command)
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `Commands:
  tools                       List the server's tools
  describe <tool>             Show a tool's arguments
  call <tool> [json]          Call a tool, e.g. call find_symbol {"name_path":"main"}
  raw <method> [json]         Send any JSON-RPC request and print the response
  help                        Show this help
  exit                        Leave the session`)
}

// splitWord returns the first whitespace-separated word and the trimmed rest.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// parseJSONObject decodes an optional JSON object argument.
func parseJSONObject(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return out, nil
}
