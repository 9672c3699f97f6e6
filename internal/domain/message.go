package domain

import "time"

const MaxTextSize = 5000

// Message Invariants:
// 1. Immutability: all fields are immutable after creation except Seen.
// 2. Seen transitions false -> true exactly once, never back.
// 3. At least one of Text/Image must be set.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessage(id, senderID, receiverID, text, image string, now time.Time) (*Message, error) {
	if id == "" || senderID == "" || receiverID == "" {
		return nil, ErrInvalidMessage
	}

	if text == "" && image == "" {
		return nil, ErrEmptyMessage
	}

	if len(text) > MaxTextSize {
		return nil, ErrMessageTooLarge
	}

	return &Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  now,
	}, nil
}

// Between reports whether the message belongs to the conversation
// between the two given users, in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) ||
		(m.SenderID == b && m.ReceiverID == a)
}
