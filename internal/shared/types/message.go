// Package types defines the WebSocket wire messages exchanged between the
// facet server and its clients.
package types

import "github.com/bytedance/sonic"

// Server → client message types.
const (
	MsgSplash   = "splash"
	MsgProgress = "progress"
	MsgUISwap   = "ui_swap"
	MsgActive   = "active"
	MsgError    = "error"
	MsgPong     = "pong"
	MsgAck      = "ack"
)

// Client → server message types.
const (
	MsgTimezone     = "timezone"
	MsgSetFilter    = "set_filter"
	MsgClearFilter  = "clear_filter"
	MsgModuleAction = "module_action"
	MsgPing         = "ping"
)

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Type     string         `json:"type"`
	Timezone string         `json:"timezone,omitempty"`
	Filter   *FilterPayload `json:"filter,omitempty"`
	Dataset  string         `json:"dataset,omitempty"`
	LeafID   string         `json:"leaf_id,omitempty"`
	Action   string         `json:"action,omitempty"`
}

// FilterPayload carries one predicate mutation.
type FilterPayload struct {
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
	Op      string `json:"op"`
	Value   any    `json:"value"`
}

// Encode marshals a wire message.
func Encode(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Decode unmarshals a client message.
func Decode(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := sonic.Unmarshal(raw, &msg)
	return msg, err
}
