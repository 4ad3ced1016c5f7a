// Package stdio implements a synchronous JSON-RPC 2.0 client for MCP servers
// that speak line-delimited JSON over a child process's standard streams.
//
// A Client owns exactly one child process. Start launches it through a
// Launcher, SendRequest writes one request line and blocks until the matching
// response line arrives, and Stop terminates the process, escalating to a
// forced kill when it does not exit within the stop timeout.
//
// The three MCP operations the harness needs are layered on SendRequest:
//
//	client := stdio.NewClient(stdio.ProcessLauncher{})
//	if err := client.Start(ctx, stdio.LaunchSpec{Command: []string{"my-server"}}); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Initialize(nil)
//	tools, err := client.ListTools()
//	result, err := client.CallTool("echo", map[string]any{"message": "hi"})
//
// Run wraps the same Start/defer Stop sequence for callers that want the
// process released no matter how the body returns.
//
// # Framing
//
// Every request is a single JSON object followed by "\n". Responses are read
// one line at a time. Lines carrying a "method" are notifications or
// server-initiated requests; they are logged and skipped. A response whose id
// does not match the request in flight is reported as a ResponseMismatchError.
// Only one request is ever in flight.
//
// # Errors
//
// LaunchError, NotStartedError, NoResponseError and MalformedResponseError are
// returned as pointers and can be matched with errors.As. None of the client's
// operations retry.
package stdio
