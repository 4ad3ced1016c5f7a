package stdio

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendRequestAssignsSequentialIDs(t *testing.T) {
	client := newHelperClient(t, "echo")

	for want := int64(1); want <= 3; want++ {
		resp, err := client.SendRequest("ping", map[string]any{"n": want})
		require.NoError(t, err)
		assert.Equal(t, float64(want), resp.ID())

		result, ok := resp.ResultObject()
		require.True(t, ok)
		assert.Equal(t, "ping", result["method"])
		assert.Equal(t, map[string]any{"n": float64(want)}, result["params"])
	}
	assert.Equal(t, int64(3), client.RequestCount())
}

func TestClient_EncodeFailureKeepsID(t *testing.T) {
	client := newHelperClient(t, "echo")

	_, err := client.SendRequest("ping", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode ping request")
	assert.Equal(t, int64(0), client.RequestCount())

	resp, err := client.SendRequest("ping", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.ID())
}

func TestClient_SendRequestOmitsNilParams(t *testing.T) {
	client := newHelperClient(t, "echo")

	resp, err := client.SendRequest(MethodToolsList, nil)
	require.NoError(t, err)

	result, ok := resp.ResultObject()
	require.True(t, ok)
	assert.Nil(t, result["params"])
}

func TestClient_InitializeDefaultClientInfo(t *testing.T) {
	client := newHelperClient(t, "echo")

	resp, err := client.Initialize(nil)
	require.NoError(t, err)

	result, ok := resp.ResultObject()
	require.True(t, ok)
	assert.Equal(t, MethodInitialize, result["method"])

	params, ok := result["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ProtocolVersion, params["protocolVersion"])
	assert.Equal(t, map[string]any{}, params["capabilities"])
	assert.Equal(t, map[string]any{"name": "mcp-test-client", "version": "1.0.0"}, params["clientInfo"])
}

func TestClient_InitializeCustomClientInfo(t *testing.T) {
	client := newHelperClient(t, "echo")

	resp, err := client.Initialize(&mcp.Implementation{Name: "probe", Version: "9.9.9"})
	require.NoError(t, err)

	result, _ := resp.ResultObject()
	params := result["params"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "probe", "version": "9.9.9"}, params["clientInfo"])
}

func TestClient_InitializeCannedResponse(t *testing.T) {
	client := newHelperClient(t, "canned")

	resp, err := client.Initialize(nil)
	require.NoError(t, err)
	assert.Equal(t, Response{
		"jsonrpc": "2.0",
		"id":      float64(1),
		"result": map[string]any{
			"serverInfo": map[string]any{"name": "x", "version": "1.0"},
		},
	}, resp)

	typed, err := resp.InitializeResult()
	require.NoError(t, err)
	assert.Equal(t, "x", typed.ServerInfo.Name)
	assert.Equal(t, "1.0", typed.ServerInfo.Version)
}

func TestClient_ListToolsWithoutResult(t *testing.T) {
	for _, mode := range []string{"no-result", "result-without-tools"} {
		t.Run(mode, func(t *testing.T) {
			client := newHelperClient(t, mode)

			tools, err := client.ListTools()
			require.NoError(t, err)
			assert.NotNil(t, tools)
			assert.Empty(t, tools)
		})
	}
}

func TestClient_CallToolWithoutResult(t *testing.T) {
	client := newHelperClient(t, "no-result")

	result, err := client.CallTool("anything", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_CallToolNilArgumentsSendsEmptyObject(t *testing.T) {
	client := newHelperClient(t, "echo")

	result, err := client.CallTool("list_dir", nil)
	require.NoError(t, err)

	echoed := result.(map[string]any)
	assert.Equal(t, MethodToolsCall, echoed["method"])
	assert.Equal(t, map[string]any{"name": "list_dir", "arguments": map[string]any{}}, echoed["params"])
}

func TestClient_NoResponseIncludesStderr(t *testing.T) {
	client := newHelperClient(t, "exit")

	_, err := client.SendRequest("ping", nil)
	require.Error(t, err)

	var noResp *NoResponseError
	require.True(t, errors.As(err, &noResp), "expected NoResponseError, got %T", err)
	assert.Equal(t, "ping", noResp.Method)
	assert.Contains(t, noResp.Stderr, "fatal: could not open workspace")
	assert.Contains(t, err.Error(), "ping")
	assert.Contains(t, err.Error(), "fatal: could not open workspace")
	assert.Contains(t, client.Stderr(), "fatal: could not open workspace")
}

func TestClient_MalformedResponse(t *testing.T) {
	client := newHelperClient(t, "garbage")

	_, err := client.SendRequest("ping", nil)
	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed), "expected MalformedResponseError, got %T", err)
	assert.Equal(t, "this is not json", malformed.Line)
}

func TestClient_SkipsNotificationsAndServerRequests(t *testing.T) {
	client := newHelperClient(t, "notify-first")

	resp, err := client.SendRequest("ping", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.ID())
	assert.Equal(t, map[string]any{"ok": true}, resp.Result())
}

func TestClient_ResponseMismatch(t *testing.T) {
	client := newHelperClient(t, "wrong-id")

	_, err := client.SendRequest("ping", nil)
	var mismatch *ResponseMismatchError
	require.True(t, errors.As(err, &mismatch), "expected ResponseMismatchError, got %T", err)
	assert.Equal(t, int64(1), mismatch.Expected)
	assert.Equal(t, float64(4242), mismatch.Got)
}

func TestClient_NullIDErrorIsReturned(t *testing.T) {
	client := newHelperClient(t, "parse-error")

	resp, err := client.SendRequest("ping", nil)
	require.NoError(t, err)
	rpcErr := resp.RPCError()
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32700, rpcErr.Code)
}

func TestClient_NotStarted(t *testing.T) {
	client := NewClient(nil)

	_, err := client.SendRequest("initialize", nil)
	var notStarted *NotStartedError
	require.True(t, errors.As(err, &notStarted))
	assert.Equal(t, "initialize", notStarted.Method)

	_, err = client.ListTools()
	assert.True(t, errors.As(err, &notStarted))

	_, err = client.CallTool("x", nil)
	assert.True(t, errors.As(err, &notStarted))

	// Stop without Start is a no-op.
	client.Stop()
	assert.False(t, client.Running())
}

func TestClient_LaunchError(t *testing.T) {
	client := NewClient(nil, WithStartupDelay(0))

	err := client.Start(context.Background(), LaunchSpec{Command: []string{"/definitely/not/a/real/binary"}})
	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr), "expected LaunchError, got %T", err)
	assert.Equal(t, "/definitely/not/a/real/binary", launchErr.Command[0])
	assert.False(t, client.Running())

	err = client.Start(context.Background(), LaunchSpec{})
	assert.True(t, errors.As(err, &launchErr))
}

func TestClient_StartTwice(t *testing.T) {
	client := newHelperClient(t, "echo")

	err := client.Start(context.Background(), helperSpec("echo"))
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestClient_StopIsFinal(t *testing.T) {
	client := newHelperClient(t, "echo")
	require.True(t, client.Running())

	client.Stop()
	assert.False(t, client.Running())

	_, err := client.SendRequest("ping", nil)
	var notStarted *NotStartedError
	assert.True(t, errors.As(err, &notStarted))

	err = client.Start(context.Background(), helperSpec("echo"))
	assert.ErrorIs(t, err, ErrSessionClosed)

	// A second Stop must not panic or block.
	client.Stop()
	assert.NoError(t, client.Close())
}

func TestClient_StopKillsStubbornProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM cannot be ignored on windows")
	}

	client := NewClient(ProcessLauncher{}, WithStartupDelay(0), WithStopTimeout(200*time.Millisecond))
	require.NoError(t, client.Start(context.Background(), helperSpec("ignore-term")))
	// Give the helper time to install its signal handler.
	time.Sleep(300 * time.Millisecond)

	done := make(chan struct{})
	start := time.Now()
	go func() {
		client.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return after kill")
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.False(t, client.Running())
}

func TestClient_StopUnblocksPendingRequest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM cannot be ignored on windows")
	}

	client := NewClient(ProcessLauncher{}, WithStartupDelay(0), WithStopTimeout(200*time.Millisecond))
	require.NoError(t, client.Start(context.Background(), helperSpec("ignore-term")))

	errCh := make(chan error, 1)
	go func() {
		_, err := client.SendRequest("ping", nil)
		errCh <- err
	}()

	time.Sleep(300 * time.Millisecond)
	client.Stop()

	select {
	case err := <-errCh:
		var noResp *NoResponseError
		assert.True(t, errors.As(err, &noResp), "expected NoResponseError, got %T", err)
	case <-time.After(10 * time.Second):
		t.Fatal("pending request was not released by Stop")
	}
}

func TestClient_StartupDelayHonorsContext(t *testing.T) {
	client := NewClient(ProcessLauncher{}, WithStartupDelay(time.Minute), WithStopTimeout(200*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.Start(ctx, helperSpec("echo"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 30*time.Second)
	assert.False(t, client.Running())
}

func TestClient_WorkingDirectoryAndEnv(t *testing.T) {
	dir := t.TempDir()
	spec := helperSpec("pwd")
	spec.MountPath = dir
	spec.Env["PROBE_MARKER"] = "marker-value"

	client := NewClient(ProcessLauncher{}, WithStartupDelay(0))
	require.NoError(t, client.Start(context.Background(), spec))
	defer client.Stop()

	resp, err := client.SendRequest("pwd", nil)
	require.NoError(t, err)

	result, _ := resp.ResultObject()
	gotDir, err := os.Stat(result["cwd"].(string))
	require.NoError(t, err)
	wantDir, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, os.SameFile(gotDir, wantDir))
	assert.Equal(t, "marker-value", result["env"])
}

func TestRun_StopsAfterCallback(t *testing.T) {
	var captured *Client
	err := Run(context.Background(), nil, helperSpec("echo"), func(c *Client) error {
		captured = c
		require.True(t, c.Running())
		_, err := c.SendRequest("ping", nil)
		return err
	}, WithStartupDelay(0))
	require.NoError(t, err)
	assert.False(t, captured.Running())
}

func TestRun_StopsWhenCallbackFails(t *testing.T) {
	boom := errors.New("boom")
	var captured *Client
	err := Run(context.Background(), nil, helperSpec("echo"), func(c *Client) error {
		captured = c
		return boom
	}, WithStartupDelay(0))
	assert.ErrorIs(t, err, boom)
	assert.False(t, captured.Running())
}

func TestClient_AgainstMCPServer(t *testing.T) {
	client := newHelperClient(t, "mcp")

	resp, err := client.Initialize(nil)
	require.NoError(t, err)
	init, err := resp.InitializeResult()
	require.NoError(t, err)
	assert.Equal(t, "echo-server", init.ServerInfo.Name)

	tools, err := client.ListTools()
	require.NoError(t, err)
	require.Len(t, tools, 2)

	names := []string{tools[0].Name(), tools[1].Name()}
	assert.ElementsMatch(t, []string{"echo", "add"}, names)
	for _, def := range tools {
		tool, err := def.Tool()
		require.NoError(t, err)
		assert.NotEmpty(t, tool.Description)
	}

	result, err := client.CallTool("echo", map[string]any{"message": "hello"})
	require.NoError(t, err)
	content := result.(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "hello", content[0].(map[string]any)["text"])

	result, err = client.CallTool("add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	content = result.(map[string]any)["content"].([]any)
	assert.Equal(t, "5", content[0].(map[string]any)["text"])

	assert.Equal(t, int64(4), client.RequestCount())
}
