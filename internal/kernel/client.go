package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"resty.dev/v3"

	"github.com/deepnote/deepnote-sub005/internal/ctxlog"
	"github.com/deepnote/deepnote-sub005/internal/document"
)

const (
	defaultKernelName    = "python3"
	defaultReadyTimeout  = 30 * time.Second
	defaultReadyInterval = 200 * time.Millisecond
)

// ExecutionResult is the structured outcome of one execute call. Success is
// true iff no accumulated output is the error variant; a transport call that
// "succeeded" but produced an error output is still a failed execution.
type ExecutionResult struct {
	Success        bool
	Outputs        []document.Output
	ExecutionCount *int
}

// OutputFunc receives each output as it arrives, before execution completes,
// so callers can render live progress.
type OutputFunc func(document.Output)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	KernelName    string
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
}

// Client owns one kernel session over the server's protocol endpoint. It is
// not safe for concurrent use; executions are strictly sequential by design.
type Client struct {
	opts ClientOptions

	http          *resty.Client
	conn          *websocket.Conn
	session       *apiSession
	clientSession string
}

// NewClient builds a disconnected Client.
func NewClient(opts ClientOptions) *Client {
	if opts.KernelName == "" {
		opts.KernelName = defaultKernelName
	}
	if opts.ReadyTimeout == 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	if opts.ReadyInterval == 0 {
		opts.ReadyInterval = defaultReadyInterval
	}
	return &Client{opts: opts}
}

// Connected reports whether a kernel session is currently established.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Connect establishes a kernel session against the endpoint: it waits for
// the REST API to answer, starts a new session and kernel, polls the kernel
// until it reports idle, and dials the kernel's websocket channel. Any
// failure cleans up partially created session resources before returning.
func (c *Client) Connect(ctx context.Context, endpointURL, token string) error {
	logger := ctxlog.FromContext(ctx)

	c.http = resty.New().
		SetBaseURL(endpointURL).
		SetTimeout(10 * time.Second).
		SetHeader("Authorization", "token "+token)
	c.clientSession = uuid.NewString()

	if err := c.awaitServerReady(ctx); err != nil {
		c.reset()
		return err
	}

	session := &apiSession{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":   c.clientSession,
			"path":   c.clientSession + ".ipynb",
			"type":   "notebook",
			"kernel": map[string]any{"name": c.opts.KernelName},
		}).
		SetResult(session).
		Post("/api/sessions")
	if err != nil {
		c.reset()
		return fmt.Errorf("failed to create kernel session: %w", err)
	}
	if resp.IsError() {
		c.reset()
		return fmt.Errorf("failed to create kernel session: server answered %s", resp.Status())
	}
	c.session = session
	logger.Debug("Kernel session created.", "session", session.ID, "kernel", session.Kernel.ID)

	if err := c.awaitKernelIdle(ctx); err != nil {
		c.deleteSession(ctx)
		c.reset()
		return err
	}

	wsURL := channelsURL(endpointURL, session.Kernel.ID, c.clientSession, token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		c.deleteSession(ctx)
		c.reset()
		return fmt.Errorf("failed to open kernel channel: %w", err)
	}
	c.conn = conn
	logger.Info("🔌 Kernel session ready", "kernel", session.Kernel.ID)
	return nil
}

// awaitServerReady polls the server status endpoint until it answers.
func (c *Client) awaitServerReady(ctx context.Context) error {
	deadline := time.Now().Add(c.opts.ReadyTimeout)
	for {
		resp, err := c.http.R().SetContext(ctx).Get("/api/status")
		if err == nil && resp.IsSuccess() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server endpoint did not become ready within %s", c.opts.ReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("kernel connect canceled: %w", ctx.Err())
		case <-time.After(c.opts.ReadyInterval):
		}
	}
}

// awaitKernelIdle polls kernel status until it reports idle. A dead kernel is
// a terminal connection failure, not something to wait out.
func (c *Client) awaitKernelIdle(ctx context.Context) error {
	kernelID := c.session.Kernel.ID
	deadline := time.Now().Add(c.opts.ReadyTimeout)
	for {
		k := &apiKernel{}
		resp, err := c.http.R().SetContext(ctx).SetResult(k).Get("/api/kernels/" + kernelID)
		if err == nil && resp.IsSuccess() {
			switch k.ExecutionState {
			case kernelStateIdle:
				return nil
			case kernelStateDead:
				return &KernelDeadError{KernelID: kernelID}
			}
		}
		if time.Now().After(deadline) {
			return &ReadyTimeoutError{KernelID: kernelID, Timeout: c.opts.ReadyTimeout}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("kernel connect canceled: %w", ctx.Err())
		case <-time.After(c.opts.ReadyInterval):
		}
	}
}

// channelsURL derives the websocket channel URL from the HTTP endpoint.
func channelsURL(endpointURL, kernelID, clientSession, token string) string {
	ws := strings.Replace(endpointURL, "http", "ws", 1)
	return fmt.Sprintf("%s/api/kernels/%s/channels?session_id=%s&token=%s", ws, kernelID, clientSession, token)
}

// Execute submits one execution request and demultiplexes the streamed reply
// messages scoped to it. Stream, rich-result and error messages become
// outputs, appended in arrival order and forwarded to onOutput immediately;
// the input-echo message carries the authoritative execution counter; every
// other message kind is ignored. Completion is the protocol's own
// execute_reply on the shell channel, never inferred from message content.
func (c *Client) Execute(ctx context.Context, code string, onOutput OutputFunc) (*ExecutionResult, error) {
	if c.conn == nil {
		return nil, &NotConnectedError{}
	}
	logger := ctxlog.FromContext(ctx)

	request, err := newExecuteRequest(c.clientSession, code)
	if err != nil {
		return nil, fmt.Errorf("failed to build execute request: %w", err)
	}
	if err := c.conn.WriteJSON(request); err != nil {
		return nil, fmt.Errorf("failed to send execute request: %w", err)
	}

	// The per-call read deadline is the only listener state this call owns;
	// restore it on every exit path so the next call starts clean.
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	defer c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	result := &ExecutionResult{}
	for {
		var msg wireMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("kernel channel read failed: %w", err)
		}
		if msg.ParentHeader.MsgID != request.Header.MsgID {
			continue
		}

		switch msg.Header.MsgType {
		case msgTypeExecuteInput:
			var content executeInputContent
			if err := json.Unmarshal(msg.Content, &content); err == nil {
				count := content.ExecutionCount
				result.ExecutionCount = &count
			}

		case msgTypeStream:
			var content streamContent
			if err := json.Unmarshal(msg.Content, &content); err != nil {
				logger.Warn("Dropping malformed stream message.", "error", err)
				continue
			}
			c.appendOutput(result, document.NewStreamOutput(content.Name, content.Text), onOutput)

		case msgTypeExecuteResult, msgTypeDisplayData:
			var content resultContent
			if err := json.Unmarshal(msg.Content, &content); err != nil {
				logger.Warn("Dropping malformed result message.", "error", err)
				continue
			}
			c.appendOutput(result, document.NewRichOutput(content.Data, content.ExecutionCount), onOutput)

		case msgTypeError:
			var content errorContent
			if err := json.Unmarshal(msg.Content, &content); err != nil {
				logger.Warn("Dropping malformed error message.", "error", err)
				continue
			}
			c.appendOutput(result, document.NewErrorOutput(content.Ename, content.Evalue, content.Traceback), onOutput)

		case msgTypeExecuteReply:
			if msg.Channel == channelShell {
				result.Success = !hasErrorOutput(result.Outputs)
				return result, nil
			}
		}
	}
}

func (c *Client) appendOutput(result *ExecutionResult, out document.Output, onOutput OutputFunc) {
	result.Outputs = append(result.Outputs, out)
	if onOutput != nil {
		onOutput(out)
	}
}

func hasErrorOutput(outputs []document.Output) bool {
	for _, o := range outputs {
		if o.IsError() {
			return true
		}
	}
	return false
}

// Disconnect shuts down the session and releases client resources. Shutdown
// errors from an already-gone session are ignored; afterwards the client
// reports as not connected. Disconnect never fails.
func (c *Client) Disconnect(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if c.session != nil {
		c.deleteSession(ctx)
		logger.Debug("Kernel session shut down.")
	}
	c.reset()
}

// deleteSession tells the server to dispose the session, ignoring failures
// from sessions that are already gone.
func (c *Client) deleteSession(ctx context.Context) {
	if c.http == nil || c.session == nil {
		return
	}
	_, _ = c.http.R().SetContext(ctx).Delete("/api/sessions/" + c.session.ID)
}

// reset drops all connection state so the client can be reused or queried as
// not connected.
func (c *Client) reset() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.http != nil {
		_ = c.http.Close()
		c.http = nil
	}
	c.session = nil
	c.clientSession = ""
}
