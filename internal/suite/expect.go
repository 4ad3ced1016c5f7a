package suite

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"mcpprobe/internal/stdio"
)

// checkExpectations validates a step's response. The returned error explains
// the first unmet expectation.
func checkExpectations(step Step, resp stdio.Response) error {
	expected := step.Expected

	rpcErr := resp.RPCError()
	isError := rpcErr != nil || resp.IsToolError()

	if expected.Error {
		if !isError {
			return fmt.Errorf("expected an error but the call succeeded")
		}
	} else if isError {
		if rpcErr != nil {
			return fmt.Errorf("unexpected error: %s", rpcErr.Error())
		}
		return fmt.Errorf("tool reported an error: %s", compactJSON(resp.Result()))
	}

	if expected.Result && resp.Result() == nil {
		return fmt.Errorf("response has no result")
	}

	texts := searchableTexts(map[string]interface{}(resp))
	for _, want := range expected.Contains {
		if !containsText(texts, want) {
			return fmt.Errorf("response does not contain %q", want)
		}
	}
	for _, unwanted := range expected.NotContains {
		if containsText(texts, unwanted) {
			return fmt.Errorf("response contains unexpected text %q", unwanted)
		}
	}

	if expected.MinTools > 0 || len(expected.Tools) > 0 {
		tools := resp.Tools()
		if len(tools) < expected.MinTools {
			return fmt.Errorf("expected at least %d tools, got %d", expected.MinTools, len(tools))
		}
		names := make(map[string]bool, len(tools))
		for _, tool := range tools {
			names[tool.Name()] = true
		}
		for _, want := range expected.Tools {
			if !names[want] {
				return fmt.Errorf("tool %q not listed", want)
			}
		}
	}

	root := map[string]interface{}(resp)
	for _, path := range expected.Exists {
		value, ok := lookupPath(root, path)
		if !ok || value == nil {
			return fmt.Errorf("path %s not found in response", path)
		}
	}
	for path, want := range expected.JSONPath {
		value, ok := lookupPath(root, path)
		if !ok {
			return fmt.Errorf("path %s not found in response", path)
		}
		if !compareValues(value, want) {
			return fmt.Errorf("path %s: expected %v, got %v", path, want, value)
		}
	}
	return nil
}

// lookupPath walks a dotted path through decoded JSON. Numeric segments index
// into arrays.
func lookupPath(root interface{}, path string) (interface{}, bool) {
	current := root
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// compareValues compares a decoded JSON value with a YAML-declared
// expectation. Both sides are normalized through JSON so that YAML ints
// match JSON floats.
func compareValues(actual, expected interface{}) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return string(data)
	}
	return out
}

// containsText checks if any of texts contains the expected substring (case-insensitive)
func containsText(texts []string, expected string) bool {
	expected = strings.ToLower(expected)
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), expected) {
			return true
		}
	}
	return false
}

// searchableTexts returns the compact JSON of v followed by every string
// value inside it, unescaped, so expectations can match structure as well
// as literal tool output.
func searchableTexts(v interface{}) []string {
	texts := []string{compactJSON(v)}
	var walk func(interface{})
	walk = func(v interface{}) {
		switch val := v.(type) {
		case string:
			texts = append(texts, val)
		case map[string]interface{}:
			for _, item := range val {
				walk(item)
			}
		case []interface{}:
			for _, item := range val {
				walk(item)
			}
		}
	}
	walk(v)
	return texts
}

// compactJSON encodes v on one line without HTML escaping.
func compactJSON(v interface{}) string {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
