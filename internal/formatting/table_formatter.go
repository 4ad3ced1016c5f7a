package formatting

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"

	pkgstrings "mcpprobe/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatServerInfo formats the initialize result as a key-value table
func (f *TableFormatter) FormatServerInfo(info *mcp.InitializeResult) string {
	if info == nil {
		return f.formatEmptyMessage("No server information")
	}
	t := f.createTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("PROPERTY"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRow(table.Row{"Name", info.ServerInfo.Name})
	t.AppendRow(table.Row{"Version", info.ServerInfo.Version})
	if info.ProtocolVersion != "" {
		t.AppendRow(table.Row{"Protocol", info.ProtocolVersion})
	}
	if info.Capabilities.Tools != nil {
		t.AppendRow(table.Row{"Tools", text.FgGreen.Sprint("✓")})
	}
	if info.Capabilities.Resources != nil {
		t.AppendRow(table.Row{"Resources", text.FgGreen.Sprint("✓")})
	}
	if info.Capabilities.Prompts != nil {
		t.AppendRow(table.Row{"Prompts", text.FgGreen.Sprint("✓")})
	}
	return t.Render()
}

// FormatToolsList formats tools list as a table
func (f *TableFormatter) FormatToolsList(tools []mcp.Tool) string {
	if len(tools) == 0 {
		return f.formatEmptyMessage("No tools found")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
		text.FgHiCyan.Sprint("REQUIRED"),
	})
	for _, tool := range tools {
		t.AppendRow(table.Row{
			text.FgHiWhite.Sprint(tool.Name),
			pkgstrings.TruncateDescription(tool.Description, pkgstrings.DefaultDescriptionMaxLen),
			requiredArgs(tool.InputSchema.Required),
		})
	}
	if !f.options.Quiet {
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d tools", len(tools)), ""})
	}
	return t.Render()
}

// FormatToolDetail formats the arguments of a tool as a table
func (f *TableFormatter) FormatToolDetail(tool mcp.Tool) string {
	t := f.createTable()
	t.SetTitle(tool.Name)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ARGUMENT"),
		text.FgHiCyan.Sprint("TYPE"),
		text.FgHiCyan.Sprint("REQUIRED"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})

	required := make(map[string]bool, len(tool.InputSchema.Required))
	for _, name := range tool.InputSchema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, _ := tool.InputSchema.Properties[name].(map[string]interface{})
		typ, _ := prop["type"].(string)
		desc, _ := prop["description"].(string)
		req := ""
		if required[name] {
			req = text.FgGreen.Sprint("✓")
		}
		t.AppendRow(table.Row{name, typ, req, pkgstrings.TruncateDescription(desc, pkgstrings.DefaultDescriptionMaxLen)})
	}

	out := t.Render()
	if tool.Description != "" {
		out = tool.Description + "\n" + out
	}
	return out
}

// FormatCallResult prints the text content of a tool call result
func (f *TableFormatter) FormatCallResult(result interface{}) string {
	content, isError, ok := CallResultText(result)
	if !ok {
		return PrettyJSON(result)
	}
	if isError {
		return text.FgRed.Sprint("Error: ") + content
	}
	return content
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data interface{}) error {
	out := f.options.writer()
	switch d := data.(type) {
	case map[string]interface{}:
		fmt.Fprintln(out, f.formatObjectData(d))
	case []interface{}:
		f.formatArrayData(d)
	case string:
		fmt.Fprintln(out, d)
	default:
		fmt.Fprintf(out, "%v\n", d)
	}
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(message))
}

// formatObjectData formats object data as key-value pairs sorted by key
func (f *TableFormatter) formatObjectData(data map[string]interface{}) string {
	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		valueStr := fmt.Sprintf("%v", data[key])
		if _, nested := data[key].(map[string]interface{}); nested {
			valueStr = pkgstrings.TruncateDescription(PrettyJSON(data[key]), 100)
		} else if len(valueStr) > 100 {
			valueStr = valueStr[:97] + "..."
		}
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(key), valueStr})
	}
	return t.Render()
}

// formatArrayData formats array data as a numbered list
func (f *TableFormatter) formatArrayData(data []interface{}) {
	out := f.options.writer()
	if len(data) == 0 {
		fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint("No items found"))
		return
	}

	for i, item := range data {
		fmt.Fprintf(out, "  %d. %v\n", i+1, item)
	}

	fmt.Fprintf(out, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(data)),
		text.FgHiBlue.Sprint("items"))
}
