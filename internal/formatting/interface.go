// Package formatting renders MCP server information, tool listings and tool
// call results for the command line, in console, table, JSON or YAML form.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// Formats lists every supported output format.
func Formats() []OutputFormat {
	return []OutputFormat{FormatConsole, FormatTable, FormatJSON, FormatYAML}
}

// ParseFormat validates a format name. An empty name selects the console format.
func ParseFormat(s string) (OutputFormat, error) {
	if s == "" {
		return FormatConsole, nil
	}
	for _, f := range Formats() {
		if OutputFormat(strings.ToLower(s)) == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (expected console, table, json or yaml)", s)
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	// Out receives FormatData output; nil means stdout
	Out io.Writer
}

func (o Options) writer() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Formatter renders MCP data
type Formatter interface {
	// Server formatting
	FormatServerInfo(info *mcp.InitializeResult) string

	// Tool formatting
	FormatToolsList(tools []mcp.Tool) string
	FormatToolDetail(tool mcp.Tool) string

	// FormatCallResult renders the result object of a tools/call response
	FormatCallResult(result interface{}) string

	// FormatData writes arbitrary decoded JSON to the configured output
	FormatData(data interface{}) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// New creates the formatter for options.Format
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		return NewTableFormatter(options)
	case FormatConsole:
		fallthrough
	default:
		return NewConsoleFormatter(options)
	}
}

// FindTool finds a tool by name
func FindTool(tools []mcp.Tool, name string) *mcp.Tool {
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i]
		}
	}
	return nil
}
