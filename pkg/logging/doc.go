// Package logging provides subsystem-tagged structured logging for mcpprobe.
//
// The package wraps Go's log/slog with a small, printf-style API where every
// entry carries the subsystem that produced it:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Stdio", "Started %s (pid %d)", name, pid)
//	logging.Debug("Docker", "Running: docker %s", strings.Join(args, " "))
//	logging.Error("Suite", err, "Run %s failed", runID)
//
// Output always goes to the writer given at initialization, which the CLI sets
// to stderr so that stdout stays reserved for command results.
//
// # Child process output
//
// LineWriter returns an io.Writer that splits whatever is written to it into
// lines and logs each one under the given subsystem. The stdio client uses it
// to mirror an MCP server's stderr into the debug log.
//
// # Levels
//
// Debug, Info, Warn and Error map one to one onto the slog levels. Messages
// below the configured level are dropped before formatting.
package logging
