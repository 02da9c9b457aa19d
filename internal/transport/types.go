// Package transport implements the long-lived bidirectional message bus
// between the orchestrator and the MCP proxy: command/reply correlation,
// queueing, timeouts, and liveness, over a WebSocket channel (grounded on
// github.com/gorilla/websocket, the WS library present across the
// retrieval pack).
package transport

import "encoding/json"

// State is the Transport Session state machine (spec.md §3, §4.1).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Envelope is a command sent to the proxy. It is marshaled with both the
// canonical (command/params) and legacy (action/options) field names, per
// the Open Question resolution in DESIGN.md: either shape is accepted on
// ingest, and both are emitted on send.
type Envelope struct {
	CorrelationID string         `json:"correlationId"`
	Application   string         `json:"application"`
	Command       string         `json:"command"`
	Params        map[string]any `json:"params,omitempty"`
	DeadlineMs    int64          `json:"deadlineMs"`
}

// wireEnvelope is the JSON shape actually written to the socket: it
// duplicates Command/Params under the legacy action/options names.
type wireEnvelope struct {
	CorrelationID string         `json:"correlationId"`
	Application   string         `json:"application"`
	Command       string         `json:"command"`
	Params        map[string]any `json:"params,omitempty"`
	Action        string         `json:"action"`
	Options       map[string]any `json:"options,omitempty"`
	DeadlineMs    int64          `json:"deadlineMs"`
}

// MarshalJSON implements json.Marshaler, emitting both naming conventions.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		CorrelationID: e.CorrelationID,
		Application:   e.Application,
		Command:       e.Command,
		Params:        e.Params,
		Action:        e.Command,
		Options:       e.Params,
		DeadlineMs:    e.DeadlineMs,
	})
}

// ReplyStatus is the outcome reported by the remote application.
type ReplyStatus string

const (
	StatusOK    ReplyStatus = "ok"
	StatusError ReplyStatus = "error"
)

// Reply is the response to a sent Envelope, matched by CorrelationID.
type Reply struct {
	CorrelationID string          `json:"correlationId"`
	Status        ReplyStatus     `json:"status"`
	Result        json.RawMessage `json:"result,omitempty"`
	ErrorKind     string          `json:"errorKind,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// controlFrame is used to sniff the "type" discriminator of frames that
// are not command replies: register_ack, ping, pong.
type controlFrame struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type registerFrame struct {
	Type        string `json:"type"`
	Application string `json:"application"`
}
