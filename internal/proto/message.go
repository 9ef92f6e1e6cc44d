package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeChatSend = "chat.send"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// ChatSendData is a direct message submitted over the socket.
type ChatSendData struct {
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
}

// Outbound is the envelope for messages sent to the client. Topic names the
// logical channel the event belongs to so one socket can multiplex presence,
// notification, friend and chat events.
type Outbound struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
