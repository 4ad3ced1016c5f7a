// Package template resolves Go templates embedded in scenario arguments.
package template

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders {{ ... }} expressions found in argument values
type Engine struct {
	funcs template.FuncMap
	// Pattern to match field references like {{ .Steps.init.serverInfo }}
	fieldPattern *regexp.Regexp
}

// New creates a new template engine with the sprig function set
func New() *Engine {
	return &Engine{
		funcs:        sprig.TxtFuncMap(),
		fieldPattern: regexp.MustCompile(`\.([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)`),
	}
}

// Replace renders every string inside value against data. Maps and slices are
// walked recursively and other types are returned as-is. Referencing a
// missing key is an error.
func (e *Engine) Replace(value interface{}, data map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.replaceString(v, data)
	case map[string]interface{}:
		return e.replaceMap(v, data)
	case []interface{}:
		return e.replaceSlice(v, data)
	default:
		return value, nil
	}
}

// replaceString renders a single string
func (e *Engine) replaceString(s string, data map[string]interface{}) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	tmpl, err := template.New("arg").Funcs(e.funcs).Option("missingkey=error").Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid template %q: %w", s, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", s, err)
	}
	return buf.String(), nil
}

// replaceMap recursively replaces templates in a map
func (e *Engine) replaceMap(m map[string]interface{}, data map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(m))

	for key, value := range m {
		replacedValue, err := e.Replace(value, data)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replacedValue
	}

	return result, nil
}

// replaceSlice recursively replaces templates in a slice
func (e *Engine) replaceSlice(s []interface{}, data map[string]interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(s))

	for i, value := range s {
		replacedValue, err := e.Replace(value, data)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replacedValue
	}

	return result, nil
}

// ExtractFields returns the sorted, de-duplicated dotted field references
// (without the leading dot) used inside template actions of value.
func (e *Engine) ExtractFields(value interface{}) []string {
	fields := make(map[string]bool)
	e.extractFieldsRecursive(value, fields)

	result := make([]string, 0, len(fields))
	for field := range fields {
		result = append(result, field)
	}
	sort.Strings(result)
	return result
}

// extractFieldsRecursive recursively extracts field references from any value type
func (e *Engine) extractFieldsRecursive(value interface{}, fields map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, action := range templateActions(v) {
			for _, match := range e.fieldPattern.FindAllStringSubmatch(action, -1) {
				fields[match[1]] = true
			}
		}
	case map[string]interface{}:
		for _, val := range v {
			e.extractFieldsRecursive(val, fields)
		}
	case []interface{}:
		for _, val := range v {
			e.extractFieldsRecursive(val, fields)
		}
	}
}

// templateActions returns the text between each {{ and }} pair
func templateActions(s string) []string {
	var actions []string
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			return actions
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			return actions
		}
		actions = append(actions, s[start+2:start+end])
		s = s[start+end+2:]
	}
}
