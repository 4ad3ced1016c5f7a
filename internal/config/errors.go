package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Error categories.
const (
	CategoryConfig    = "config"
	CategoryScenarios = "scenarios"
)

// Error types.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
	ErrorTypeEnv        = "env"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	FileName    string   `json:"fileName"`    // Base name of the file
	Category    string   `json:"category"`    // Configuration category (config, scenarios)
	ErrorType   string   `json:"errorType"`   // Type of error (parse, validation, io, env)
	Field       string   `json:"field"`       // Offending field, if known
	Message     string   `json:"message"`     // Human-readable error message
	Details     string   `json:"details"`     // Additional details about the error
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	where := ce.FileName
	if where == "" {
		where = "<defaults>"
	}
	if ce.Field != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", ce.Category, where, ce.Field, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ce.Category, where, ce.Message)
}

// DetailedError returns a detailed error message with all context
func (ce ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error in %s", ce.FileName))
	if ce.FilePath != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	}
	parts = append(parts, fmt.Sprintf("  Category: %s", ce.Category))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	if ce.Field != "" {
		parts = append(parts, fmt.Sprintf("  Field: %s", ce.Field))
	}

	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// NewConfigurationError creates a new configuration error with basic information
func NewConfigurationError(filePath, category, errorType, message string) ConfigurationError {
	fileName := ""
	if filePath != "" {
		fileName = filepath.Base(filePath)
	}
	return ConfigurationError{
		FilePath:  filePath,
		FileName:  fileName,
		Category:  category,
		ErrorType: errorType,
		Message:   message,
	}
}

// ConfigurationErrorCollection holds multiple configuration errors
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

// Error implements the error interface for the collection
func (cec ConfigurationErrorCollection) Error() string {
	if len(cec.Errors) == 0 {
		return "no configuration errors"
	}

	if len(cec.Errors) == 1 {
		return cec.Errors[0].Error()
	}

	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

// Add adds a new error to the collection
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// ErrOrNil returns the collection as an error, or nil when it is empty.
func (cec *ConfigurationErrorCollection) ErrOrNil() error {
	if !cec.HasErrors() {
		return nil
	}
	return *cec
}

// GetDetailedReport returns a detailed report of all errors
func (cec *ConfigurationErrorCollection) GetDetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Detailed Configuration Error Report (%d errors):", len(cec.Errors)))
	parts = append(parts, strings.Repeat("=", 60))

	for i, err := range cec.Errors {
		parts = append(parts, fmt.Sprintf("\nError %d:", i+1))
		parts = append(parts, err.DetailedError())

		if i < len(cec.Errors)-1 {
			parts = append(parts, strings.Repeat("-", 40))
		}
	}

	return strings.Join(parts, "\n")
}
