package formatting

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatServerInfo formats the initialize result as YAML
func (f *YAMLFormatter) FormatServerInfo(info *mcp.InitializeResult) string {
	return f.toYAML(info)
}

// FormatToolsList formats tools list as YAML
func (f *YAMLFormatter) FormatToolsList(tools []mcp.Tool) string {
	if tools == nil {
		tools = []mcp.Tool{}
	}
	return f.toYAML(map[string]interface{}{
		"tools": tools,
		"count": len(tools),
	})
}

// FormatToolDetail formats detailed tool information as YAML
func (f *YAMLFormatter) FormatToolDetail(tool mcp.Tool) string {
	return f.toYAML(tool)
}

// FormatCallResult formats the complete call result as YAML
func (f *YAMLFormatter) FormatCallResult(result interface{}) string {
	return f.toYAML(result)
}

// FormatData outputs data as YAML
func (f *YAMLFormatter) FormatData(data interface{}) error {
	yamlData, err := yaml.Marshal(toGeneric(data))
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = fmt.Fprint(f.options.writer(), string(yamlData))
	return err
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

// toYAML marshals v through its JSON form so keys match the MCP wire names
func (f *YAMLFormatter) toYAML(v interface{}) string {
	data, err := yaml.Marshal(toGeneric(v))
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(data)
}
