package kernel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/deepnote/deepnote-sub005/internal/document"
)

// scriptFunc drives the fake kernel's side of one execute request. It
// receives the websocket connection and the parsed request envelope.
type scriptFunc func(t *testing.T, conn *websocket.Conn, request wireMessage)

// fakeServer emulates the runtime server's REST API and kernel channel.
type fakeServer struct {
	srv            *httptest.Server
	script         scriptFunc
	sessionDeletes atomic.Int32

	mu          sync.Mutex
	kernelState string
}

func newFakeServer(t *testing.T, script scriptFunc) *fakeServer {
	t.Helper()
	f := &fakeServer{script: script, kernelState: kernelStateIdle}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"started": "2026-01-01T00:00:00Z"})
	})
	mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, apiSession{ID: "sess-1", Kernel: apiKernel{ID: "kern-1", ExecutionState: "starting"}})
	})
	mux.HandleFunc("DELETE /api/sessions/sess-1", func(w http.ResponseWriter, r *http.Request) {
		f.sessionDeletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/kernels/kern-1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		state := f.kernelState
		f.mu.Unlock()
		writeJSON(w, apiKernel{ID: "kern-1", ExecutionState: state})
	})
	mux.HandleFunc("GET /api/kernels/kern-1/channels", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var request wireMessage
			if err := conn.ReadJSON(&request); err != nil {
				return
			}
			if f.script != nil {
				f.script(t, conn, request)
			}
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) setKernelState(state string) {
	f.mu.Lock()
	f.kernelState = state
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// send writes one protocol message parented to the given request.
func send(t *testing.T, conn *websocket.Conn, request wireMessage, channel, msgType string, content any) {
	t.Helper()
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wireMessage{
		Header:       messageHeader{MsgID: "srv-" + msgType, MsgType: msgType, Session: "kernel"},
		ParentHeader: request.Header,
		Content:      raw,
		Channel:      channel,
	}))
}

func newTestClient() *Client {
	return NewClient(ClientOptions{
		ReadyTimeout:  2 * time.Second,
		ReadyInterval: 10 * time.Millisecond,
	})
}

func TestExecute_DemultiplexesOutputsInOrder(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t, func(t *testing.T, conn *websocket.Conn, request wireMessage) {
		// A message for someone else's request must be skipped.
		raw, _ := json.Marshal(streamContent{Name: "stdout", Text: "not yours"})
		require.NoError(t, conn.WriteJSON(wireMessage{
			Header:       messageHeader{MsgID: "stray", MsgType: msgTypeStream},
			ParentHeader: messageHeader{MsgID: "other-request"},
			Content:      raw,
			Channel:      "iopub",
		}))

		send(t, conn, request, "iopub", msgTypeExecuteInput, executeInputContent{ExecutionCount: 5})
		send(t, conn, request, "iopub", "status", map[string]string{"execution_state": "busy"})
		send(t, conn, request, "iopub", msgTypeStream, streamContent{Name: "stdout", Text: "hi\n"})
		count := 5
		send(t, conn, request, "iopub", msgTypeExecuteResult, resultContent{
			Data:           map[string]any{"text/plain": "2"},
			ExecutionCount: &count,
		})
		send(t, conn, request, channelShell, msgTypeExecuteReply, map[string]string{"status": "ok"})
	})

	client := newTestClient()
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx, fake.srv.URL, "tok"))
	defer client.Disconnect(ctx)
	require.True(t, client.Connected())

	var live []document.Output
	result, err := client.Execute(ctx, "1 + 1", func(o document.Output) { live = append(live, o) })
	require.NoError(t, err)

	require.True(t, result.Success)
	require.NotNil(t, result.ExecutionCount)
	require.Equal(t, 5, *result.ExecutionCount)
	require.Len(t, result.Outputs, 2)
	require.Equal(t, document.OutputTypeStream, result.Outputs[0].Type)
	require.Equal(t, "hi\n", result.Outputs[0].Text)
	require.Equal(t, document.OutputTypeRich, result.Outputs[1].Type)
	require.Equal(t, "2", result.Outputs[1].Data["text/plain"])

	// Live callbacks mirror the accumulated outputs, in arrival order.
	require.Equal(t, result.Outputs, live)
}

func TestExecute_ErrorOutputMeansFailure(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t, func(t *testing.T, conn *websocket.Conn, request wireMessage) {
		send(t, conn, request, "iopub", msgTypeError, errorContent{
			Ename:     "ZeroDivisionError",
			Evalue:    "division by zero",
			Traceback: []string{"Traceback (most recent call last):", "ZeroDivisionError: division by zero"},
		})
		// The transport itself still completes normally.
		send(t, conn, request, channelShell, msgTypeExecuteReply, map[string]string{"status": "error"})
	})

	client := newTestClient()
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx, fake.srv.URL, "tok"))
	defer client.Disconnect(ctx)

	result, err := client.Execute(ctx, "1 / 0", nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, result.Outputs, 1)
	require.True(t, result.Outputs[0].IsError())
	require.Equal(t, "ZeroDivisionError", result.Outputs[0].ErrorName)
	require.Equal(t, "division by zero", result.Outputs[0].ErrorMessage)
}

func TestConnect_DeadKernelIsTerminal(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t, nil)
	fake.setKernelState(kernelStateDead)

	client := newTestClient()
	err := client.Connect(context.Background(), fake.srv.URL, "tok")

	var dead *KernelDeadError
	require.ErrorAs(t, err, &dead)
	require.False(t, client.Connected())
	// Partially created session resources were cleaned up.
	require.Equal(t, int32(1), fake.sessionDeletes.Load())
}

func TestExecute_WithoutConnect(t *testing.T) {
	t.Parallel()

	client := newTestClient()
	_, err := client.Execute(context.Background(), "x", nil)

	var notConnected *NotConnectedError
	require.ErrorAs(t, err, &notConnected)
}

func TestDisconnect_ShutsDownSessionAndIsSafeTwice(t *testing.T) {
	t.Parallel()

	fake := newFakeServer(t, nil)
	client := newTestClient()
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx, fake.srv.URL, "tok"))

	client.Disconnect(ctx)
	require.False(t, client.Connected())
	require.Equal(t, int32(1), fake.sessionDeletes.Load())

	// A second disconnect finds no session and must not fail or re-delete.
	client.Disconnect(ctx)
	require.Equal(t, int32(1), fake.sessionDeletes.Load())
}
