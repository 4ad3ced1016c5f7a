package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion(testVersion)
	if GetVersion() != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "mcpprobe" {
		t.Errorf("Expected Use to be 'mcpprobe', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	if rootCmd.PersistentFlags().Lookup("debug") == nil {
		t.Error("Expected persistent --debug flag")
	}
	if f := rootCmd.PersistentFlags().Lookup("log-level"); f == nil || f.DefValue != "warn" {
		t.Error("Expected persistent --log-level flag defaulting to warn")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}

	// Set the same version template as in Execute()
	testCmd.SetVersionTemplate(`{{printf "mcpprobe version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)

	testCmd.SetArgs([]string{"--version"})
	err := testCmd.Execute()
	if err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	output := buf.String()
	expected := "mcpprobe version 1.0.0\n"
	if output != expected {
		t.Errorf("Expected version output %q, got %q", expected, output)
	}
}

func TestSubcommands(t *testing.T) {
	commands := rootCmd.Commands()

	expectedCommands := []string{"version", "check", "call", "suite", "repl"}
	foundCommands := make(map[string]bool)

	for _, cmd := range commands {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	out, err := executeRoot("--help")
	if err != nil {
		t.Fatalf("Error executing help command: %v", err)
	}

	if !strings.Contains(out, "mcpprobe") {
		t.Errorf("Help output should contain 'mcpprobe'. Got: %q", out)
	}

	if !strings.Contains(out, "speaks JSON-RPC") {
		t.Errorf("Help output should contain the long description. Got: %q", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	defer func() { rootLogLevel = "warn" }()

	_, err := executeRoot("--log-level", "chatty", "version")
	if err == nil {
		t.Fatal("Expected an error for an unknown log level")
	}
}

func TestGetExitCode(t *testing.T) {
	if code := getExitCode(nil); code != ExitCodeSuccess {
		t.Errorf("Expected %d for nil error, got %d", ExitCodeSuccess, code)
	}

	cause := errors.New("boom")
	if code := getExitCode(cause); code != ExitCodeError {
		t.Errorf("Expected %d for an error, got %d", ExitCodeError, code)
	}

	reported := &reportedError{err: cause}
	if code := getExitCode(reported); code != ExitCodeError {
		t.Errorf("Expected %d for a reported error, got %d", ExitCodeError, code)
	}
	if !errors.Is(reported, cause) {
		t.Error("Expected reportedError to unwrap to its cause")
	}
	if reported.Error() != "boom" {
		t.Errorf("Expected reportedError message 'boom', got %q", reported.Error())
	}
}
