// Package repl provides an interactive shell over a running MCP server for
// listing, describing and calling tools by hand.
package repl
