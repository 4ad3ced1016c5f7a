package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"mcpprobe/pkg/logging"
	pkgstrings "mcpprobe/pkg/strings"
)

const stdioSubsystem = "Stdio"

const (
	// DefaultStartupDelay is how long Start waits for the server to come up.
	DefaultStartupDelay = 2 * time.Second
	// DefaultStopTimeout is how long Stop waits after the graceful signal.
	DefaultStopTimeout = 5 * time.Second

	// waitDelay bounds how long exec waits for stderr to drain after exit.
	waitDelay = 2 * time.Second
	// cleanupTimeout bounds the launcher cleanup hook.
	cleanupTimeout = 15 * time.Second
	// logLineMaxLen truncates logged request/response lines.
	logLineMaxLen = 512
)

// Option configures a Client.
type Option func(*Client)

// WithStartupDelay overrides DefaultStartupDelay. Zero disables the delay.
func WithStartupDelay(d time.Duration) Option {
	return func(c *Client) { c.startupDelay = d }
}

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Client) { c.stopTimeout = d }
}

// Client is a synchronous JSON-RPC client bound to one child process.
// A Client is single use: once stopped it cannot be started again.
type Client struct {
	launcher     Launcher
	startupDelay time.Duration
	stopTimeout  time.Duration

	// exchangeMu keeps a single request in flight.
	exchangeMu sync.Mutex

	mu        sync.Mutex
	sess      *session
	stderr    *tailBuffer
	closed    bool
	requestID int64
}

// session holds the state of one running child process.
type session struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdoutR  *os.File
	stdout   *bufio.Reader
	stderr   *tailBuffer
	waitDone chan struct{}
	waitErr  error
}

// NewClient creates a client that launches its process through launcher.
// A nil launcher runs commands directly on the host.
func NewClient(launcher Launcher, opts ...Option) *Client {
	if launcher == nil {
		launcher = ProcessLauncher{}
	}
	c := &Client{
		launcher:     launcher,
		startupDelay: DefaultStartupDelay,
		stopTimeout:  DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the server process and waits out the startup delay.
// Readiness is not probed beyond the delay.
func (c *Client) Start(ctx context.Context, spec LaunchSpec) error {
	if err := c.launch(ctx, spec); err != nil {
		return err
	}
	if c.startupDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(c.startupDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		c.Stop()
		return ctx.Err()
	}
}

func (c *Client) launch(ctx context.Context, spec LaunchSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}
	if c.sess != nil {
		return ErrAlreadyStarted
	}

	cmd, err := c.launcher.Command(ctx, spec)
	if err != nil {
		return &LaunchError{Command: spec.Command, Err: err}
	}

	sess, err := startSession(cmd)
	if err != nil {
		return &LaunchError{Command: cmd.Args, Err: err}
	}
	c.sess = sess
	c.stderr = sess.stderr

	logging.Info(stdioSubsystem, "Started MCP server: %s (pid %d)", strings.Join(cmd.Args, " "), cmd.Process.Pid)
	return nil
}

func startSession(cmd *exec.Cmd) (*session, error) {
	configureProcAttr(cmd)
	if cmd.Cancel != nil {
		cmd.Cancel = func() error { return killProcess(cmd) }
	}
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	// The stdout pipe is owned here rather than by exec so that Wait does not
	// close it while a response is still buffered.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stdout = stdoutW

	stderr := newTailBuffer(maxStderrBytes)
	cmd.Stderr = io.MultiWriter(stderr, logging.LineWriter(stdioSubsystem, logging.LevelDebug))

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, err
	}
	stdoutW.Close()

	s := &session{
		cmd:      cmd,
		stdin:    stdin,
		stdoutR:  stdoutR,
		stdout:   bufio.NewReader(stdoutR),
		stderr:   stderr,
		waitDone: make(chan struct{}),
	}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.waitDone)
	}()
	return s, nil
}

// Running reports whether the client owns a process that has not exited.
func (c *Client) Running() bool {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return false
	}
	select {
	case <-s.waitDone:
		return false
	default:
		return true
	}
}

// RequestCount returns the number of requests sent in this session.
func (c *Client) RequestCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestID
}

// Stderr returns the error output captured from the most recent process,
// including after it has been stopped.
func (c *Client) Stderr() string {
	c.mu.Lock()
	buf := c.stderr
	c.mu.Unlock()
	if buf == nil {
		return ""
	}
	return buf.String()
}

// Stop terminates the server: stdin is closed and a graceful signal sent,
// then the process is killed if it has not exited within the stop timeout.
// Stop is a no-op when no process is running and is safe to call from another
// goroutine while a request is blocked.
func (c *Client) Stop() {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	if s != nil {
		c.closed = true
	}
	c.mu.Unlock()

	if s == nil {
		return
	}

	start := time.Now()
	pid := s.cmd.Process.Pid
	_ = s.stdin.Close()

	select {
	case <-s.waitDone:
	default:
		if err := terminateProcess(s.cmd); err != nil {
			logging.Debug(stdioSubsystem, "Graceful terminate of pid %d failed: %v", pid, err)
		}
		timer := time.NewTimer(c.stopTimeout)
		select {
		case <-s.waitDone:
			timer.Stop()
		case <-timer.C:
			logging.Warn(stdioSubsystem, "MCP server pid %d did not exit within %s, killing", pid, c.stopTimeout)
			if err := killProcess(s.cmd); err != nil {
				logging.Debug(stdioSubsystem, "Kill of pid %d failed: %v", pid, err)
			}
			<-s.waitDone
		}
	}
	_ = s.stdoutR.Close()

	if cleaner, ok := c.launcher.(Cleaner); ok {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		if err := cleaner.Cleanup(ctx, s.cmd); err != nil {
			logging.Debug(stdioSubsystem, "Cleanup after pid %d: %v", pid, err)
		}
		cancel()
	}

	if s.waitErr != nil {
		logging.Info(stdioSubsystem, "Stopped MCP server pid %d in %s (%v)", pid, logging.Since(start), s.waitErr)
		return
	}
	logging.Info(stdioSubsystem, "Stopped MCP server pid %d in %s", pid, logging.Since(start))
}

// Close stops the server. It satisfies io.Closer and always returns nil.
func (c *Client) Close() error {
	c.Stop()
	return nil
}

// SendRequest writes one request and blocks until its response is read.
// Notifications and server-initiated requests that arrive first are skipped.
func (c *Client) SendRequest(method string, params map[string]any) (Response, error) {
	c.exchangeMu.Lock()
	defer c.exchangeMu.Unlock()

	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return nil, &NotStartedError{Method: method}
	}
	id := c.requestID + 1
	c.mu.Unlock()

	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	// The id is only used up once the request can be sent.
	c.mu.Lock()
	c.requestID = id
	c.mu.Unlock()
	logging.Debug(stdioSubsystem, "Sending request: %s", pkgstrings.TruncateDescription(string(line), logLineMaxLen))

	if _, err := s.stdin.Write(append(line, '\n')); err != nil {
		return nil, &NoResponseError{Method: method, Stderr: c.drainStderr(s), Err: err}
	}

	for {
		raw, readErr := s.stdout.ReadBytes('\n')
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			if readErr != nil {
				var cause error
				if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, os.ErrClosed) {
					cause = readErr
				}
				return nil, &NoResponseError{Method: method, Stderr: c.drainStderr(s), Err: cause}
			}
			continue
		}
		logging.Debug(stdioSubsystem, "Received response: %s", pkgstrings.TruncateDescription(string(trimmed), logLineMaxLen))

		var resp Response
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, &MalformedResponseError{Method: method, Line: string(trimmed), Err: err}
		}
		if resp == nil {
			return nil, &MalformedResponseError{Method: method, Line: string(trimmed), Err: errors.New("not a JSON object")}
		}

		if inbound, ok := resp["method"].(string); ok {
			if _, hasID := resp["id"]; hasID {
				logging.Warn(stdioSubsystem, "Ignoring server request %s while waiting for %s", inbound, method)
			} else {
				logging.Debug(stdioSubsystem, "Skipping notification %s while waiting for %s", inbound, method)
			}
			if readErr != nil {
				return nil, &NoResponseError{Method: method, Stderr: c.drainStderr(s), Err: nil}
			}
			continue
		}

		if !idMatches(resp.ID(), id) {
			// A null id is what servers send when they could not parse the
			// request; surface it as the response for this call.
			if resp.ID() == nil && resp.RPCError() != nil {
				return resp, nil
			}
			return nil, &ResponseMismatchError{Method: method, Expected: id, Got: resp.ID(), Response: resp}
		}
		return resp, nil
	}
}

// drainStderr waits briefly for the process to exit so that its final stderr
// output is captured, then returns the captured text.
func (c *Client) drainStderr(s *session) string {
	timer := time.NewTimer(c.stopTimeout)
	defer timer.Stop()
	select {
	case <-s.waitDone:
	case <-timer.C:
	}
	return s.stderr.String()
}

// Initialize sends the MCP initialize request. A nil clientInfo is replaced
// by the default mcp-test-client identity.
func (c *Client) Initialize(clientInfo *mcp.Implementation) (Response, error) {
	if clientInfo == nil {
		clientInfo = &mcp.Implementation{
			Name:    DefaultClientName,
			Version: DefaultClientVersion,
		}
	}
	params := map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      clientInfo,
	}
	return c.SendRequest(MethodInitialize, params)
}

// ListTools returns result.tools from a tools/list call. A missing result or
// tools field yields an empty list, never an error.
func (c *Client) ListTools() ([]ToolDefinition, error) {
	resp, err := c.SendRequest(MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	return resp.Tools(), nil
}

// CallTool invokes a tool and returns the result field, or nil when the
// response has none.
func (c *Client) CallTool(name string, arguments map[string]any) (any, error) {
	resp, err := c.CallToolResponse(name, arguments)
	if err != nil {
		return nil, err
	}
	return resp.Result(), nil
}

// CallToolResponse is CallTool but returns the whole response, including any
// error object.
func (c *Client) CallToolResponse(name string, arguments map[string]any) (Response, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	return c.SendRequest(MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": arguments,
	})
}

// Run starts a client for spec, hands it to fn and always stops it afterwards.
func Run(ctx context.Context, launcher Launcher, spec LaunchSpec, fn func(*Client) error, opts ...Option) error {
	client := NewClient(launcher, opts...)
	if err := client.Start(ctx, spec); err != nil {
		return err
	}
	defer client.Stop()
	return fn(client)
}
