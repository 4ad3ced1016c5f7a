package formatting

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It falls back to fmt's %v formatting when v cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// toGeneric converts a typed value into maps and slices by way of its JSON
// form, so that YAML output uses the JSON field names.
func toGeneric(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// CallResultText extracts the text blocks of a tools/call result. Non-text
// content is rendered as JSON. ok is false when result does not look like a
// tool call result at all.
func CallResultText(result interface{}) (text string, isError bool, ok bool) {
	obj, isObj := toGeneric(result).(map[string]interface{})
	if !isObj {
		return "", false, false
	}
	content, hasContent := obj["content"].([]interface{})
	if !hasContent {
		return "", false, false
	}
	isError, _ = obj["isError"].(bool)

	var parts []string
	for _, item := range content {
		block, _ := item.(map[string]interface{})
		if t, _ := block["type"].(string); t == "text" {
			s, _ := block["text"].(string)
			parts = append(parts, s)
			continue
		}
		parts = append(parts, PrettyJSON(item))
	}
	return strings.Join(parts, "\n"), isError, true
}

// requiredArgs returns the required argument names of a tool schema
func requiredArgs(required []string) string {
	if len(required) == 0 {
		return "-"
	}
	return strings.Join(required, ", ")
}
