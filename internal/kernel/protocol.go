package kernel

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kernel protocol message kinds this client cares about. Everything else on
// the channel is ignored.
const (
	msgTypeExecuteRequest = "execute_request"
	msgTypeExecuteReply   = "execute_reply"
	msgTypeExecuteInput   = "execute_input"
	msgTypeStream         = "stream"
	msgTypeExecuteResult  = "execute_result"
	msgTypeDisplayData    = "display_data"
	msgTypeError          = "error"

	channelShell = "shell"

	protocolVersion = "5.3"
)

// messageHeader identifies one protocol message. ParentHeader carries the
// header of the request a message responds to, which is how replies are
// scoped to a single execution.
type messageHeader struct {
	MsgID    string `json:"msg_id"`
	MsgType  string `json:"msg_type"`
	Username string `json:"username,omitempty"`
	Session  string `json:"session,omitempty"`
	Date     string `json:"date,omitempty"`
	Version  string `json:"version,omitempty"`
}

// wireMessage is the envelope shared by every channel message. Content is
// kept raw and decoded per message type.
type wireMessage struct {
	Header       messageHeader   `json:"header"`
	ParentHeader messageHeader   `json:"parent_header"`
	Metadata     map[string]any  `json:"metadata"`
	Content      json.RawMessage `json:"content"`
	Channel      string          `json:"channel,omitempty"`
}

type executeRequestContent struct {
	Code            string         `json:"code"`
	Silent          bool           `json:"silent"`
	StoreHistory    bool           `json:"store_history"`
	UserExpressions map[string]any `json:"user_expressions"`
	AllowStdin      bool           `json:"allow_stdin"`
	StopOnError     bool           `json:"stop_on_error"`
}

type executeInputContent struct {
	ExecutionCount int `json:"execution_count"`
}

type streamContent struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type resultContent struct {
	Data           map[string]any `json:"data"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
}

type errorContent struct {
	Ename     string   `json:"ename"`
	Evalue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// newExecuteRequest builds a complete execute_request envelope for the shell
// channel.
func newExecuteRequest(clientSession, code string) (wireMessage, error) {
	content, err := json.Marshal(executeRequestContent{
		Code:            code,
		Silent:          false,
		StoreHistory:    true,
		UserExpressions: map[string]any{},
		AllowStdin:      false,
		StopOnError:     true,
	})
	if err != nil {
		return wireMessage{}, err
	}
	return wireMessage{
		Header: messageHeader{
			MsgID:    uuid.NewString(),
			MsgType:  msgTypeExecuteRequest,
			Username: "kernel-client",
			Session:  clientSession,
			Date:     time.Now().UTC().Format(time.RFC3339),
			Version:  protocolVersion,
		},
		Metadata: map[string]any{},
		Content:  content,
		Channel:  channelShell,
	}, nil
}

// apiSession is the REST shape of a created kernel session.
type apiSession struct {
	ID     string    `json:"id"`
	Kernel apiKernel `json:"kernel"`
}

// apiKernel is the REST shape of a kernel.
type apiKernel struct {
	ID             string `json:"id"`
	ExecutionState string `json:"execution_state"`
}

const (
	kernelStateIdle = "idle"
	kernelStateDead = "dead"
)
