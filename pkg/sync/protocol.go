// Package sync layers patch-based document synchronization over the
// rope and dmp packages: edit sessions hold a rope document, edits
// travel as delta text, revision history is stored as delta chains,
// and a websocket transport pushes accepted edits to subscribers.
package sync

import (
	"encoding/json"
	"time"
)

// MessageType identifies a protocol message.
type MessageType string

const (
	// Client -> server.
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeEdit        MessageType = "edit"

	// Server -> client.
	MessageTypeWelcome  MessageType = "welcome"
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeRemote   MessageType = "remote_edit"
	MessageTypeAck      MessageType = "ack"
	MessageTypeError    MessageType = "error"
)

// Message is the JSON envelope every protocol message travels in.
type Message struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps a payload into an envelope.
func NewMessage(t MessageType, sessionID string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      t,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}, nil
}

// SubscribeData asks to join a session, creating it when the ID is
// empty.
type SubscribeData struct {
	SessionID   string `json:"session_id,omitempty"`
	InitialText string `json:"initial_text,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

// EditData carries one edit as a delta against the client's base
// revision.
type EditData struct {
	SessionID string `json:"session_id"`
	Revision  int64  `json:"revision"`
	Delta     string `json:"delta"`
}

// SnapshotData carries the full document state.
type SnapshotData struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Revision  int64  `json:"revision"`
	UpdatedAt int64  `json:"updated_at"`
}

// RemoteEditData notifies subscribers of an accepted edit.
type RemoteEditData struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	Revision  int64  `json:"revision"`
	Delta     string `json:"delta"`
}

// AckData confirms an edit and always carries the per-patch
// application results; Partial is set when at least one patch missed.
type AckData struct {
	SessionID string `json:"session_id"`
	Revision  int64  `json:"revision"`
	Applied   []bool `json:"applied,omitempty"`
	Partial   bool   `json:"partial"`
}

// ErrorData reports a protocol-level failure.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
