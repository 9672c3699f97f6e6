// Package ws owns the WebSocket transport: the live-session registry,
// per-connection sessions with a FIFO send queue, and the JSON event
// protocol exchanged with clients.
package ws

import (
	"encoding/json"
	"fmt"
)

// Server -> client event names.
const (
	EventNewMessage     = "newMessage"
	EventMessagesSeen   = "messagesSeen"
	EventUserTyping     = "userTyping"
	EventUserStopTyping = "userStopTyping"
	EventOnlineUsers    = "getOnlineUsers"
)

// Client -> server event names.
const (
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
)

// Envelope is the wire format for every event in both directions:
// an event name plus a raw payload decoded lazily by the consumer.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds the wire bytes for an event with the given payload.
func Encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("ws: marshal %s payload: %w", event, err)
		}
		env.Data = raw
	}

	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("ws: marshal %s envelope: %w", event, err)
	}
	return b, nil
}

// Decode parses the wire bytes into an envelope, leaving the payload raw.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ws: unmarshal envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("ws: missing event name")
	}
	return &env, nil
}

// DecodeData unmarshals the envelope payload into v.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("ws: %s has no payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("ws: unmarshal %s payload: %w", e.Event, err)
	}
	return nil
}

// SeenPayload announces that the peer has loaded the conversation and all
// messages sent to them are now seen.
type SeenPayload struct {
	From string `json:"from"`
}

// TypingPayload is the client -> server typing relay target.
type TypingPayload struct {
	To string `json:"to"`
}
