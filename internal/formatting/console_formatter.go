package formatting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	pkgstrings "mcpprobe/pkg/strings"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatServerInfo formats the initialize result for console output
func (f *ConsoleFormatter) FormatServerInfo(info *mcp.InitializeResult) string {
	if info == nil {
		return "No server information."
	}
	var output []string
	output = append(output, fmt.Sprintf("Server: %s %s", info.ServerInfo.Name, info.ServerInfo.Version))
	if info.ProtocolVersion != "" {
		output = append(output, fmt.Sprintf("Protocol: %s", info.ProtocolVersion))
	}
	if !f.options.Quiet && info.Instructions != "" {
		output = append(output, fmt.Sprintf("Instructions: %s", pkgstrings.FirstLine(info.Instructions)))
	}
	return strings.Join(output, "\n")
}

// FormatToolsList formats tools list for console output
func (f *ConsoleFormatter) FormatToolsList(tools []mcp.Tool) string {
	if len(tools) == 0 {
		return "No tools available."
	}

	var output []string
	output = append(output, fmt.Sprintf("Available tools (%d):", len(tools)))
	for i, tool := range tools {
		desc := pkgstrings.TruncateDescription(tool.Description, pkgstrings.DefaultDescriptionMaxLen)
		output = append(output, fmt.Sprintf("  %d. %-30s - %s", i+1, tool.Name, desc))
	}
	return strings.Join(output, "\n")
}

// FormatToolDetail formats detailed tool information
func (f *ConsoleFormatter) FormatToolDetail(tool mcp.Tool) string {
	var output []string
	output = append(output, fmt.Sprintf("Tool: %s", tool.Name))
	output = append(output, fmt.Sprintf("Description: %s", tool.Description))

	if len(tool.InputSchema.Properties) == 0 {
		output = append(output, "Arguments: none")
		return strings.Join(output, "\n")
	}

	required := make(map[string]bool, len(tool.InputSchema.Required))
	for _, name := range tool.InputSchema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	output = append(output, "Arguments:")
	for _, name := range names {
		prop, _ := tool.InputSchema.Properties[name].(map[string]interface{})
		typ, _ := prop["type"].(string)
		desc, _ := prop["description"].(string)
		marker := ""
		if required[name] {
			marker = " (required)"
		}
		line := fmt.Sprintf("  - %s%s", name, marker)
		if typ != "" {
			line += fmt.Sprintf(" [%s]", typ)
		}
		if desc != "" {
			line += ": " + pkgstrings.TruncateDescription(desc, 100)
		}
		output = append(output, line)
	}
	return strings.Join(output, "\n")
}

// FormatCallResult prints the text content of a tool call result
func (f *ConsoleFormatter) FormatCallResult(result interface{}) string {
	text, isError, ok := CallResultText(result)
	if !ok {
		return PrettyJSON(result)
	}
	if isError {
		return "Error: " + text
	}
	return text
}

// FormatData formats generic data (fallback to simple text representation)
func (f *ConsoleFormatter) FormatData(data interface{}) error {
	out := f.options.writer()
	switch d := data.(type) {
	case map[string]interface{}, []interface{}:
		fmt.Fprintln(out, PrettyJSON(d))
	case string:
		fmt.Fprintln(out, d)
	default:
		fmt.Fprintf(out, "%v\n", d)
	}
	return nil
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}
