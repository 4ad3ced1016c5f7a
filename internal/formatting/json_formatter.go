package formatting

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatServerInfo formats the initialize result as JSON
func (f *JSONFormatter) FormatServerInfo(info *mcp.InitializeResult) string {
	return PrettyJSON(info)
}

// FormatToolsList formats tools list as JSON
func (f *JSONFormatter) FormatToolsList(tools []mcp.Tool) string {
	if tools == nil {
		tools = []mcp.Tool{}
	}
	return PrettyJSON(map[string]interface{}{
		"tools": tools,
		"count": len(tools),
	})
}

// FormatToolDetail formats detailed tool information as JSON
func (f *JSONFormatter) FormatToolDetail(tool mcp.Tool) string {
	return PrettyJSON(tool)
}

// FormatCallResult formats the complete call result as JSON
func (f *JSONFormatter) FormatCallResult(result interface{}) string {
	return PrettyJSON(result)
}

// FormatData outputs data as formatted JSON
func (f *JSONFormatter) FormatData(data interface{}) error {
	_, err := fmt.Fprintln(f.options.writer(), PrettyJSON(data))
	return err
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}
