package domain

import "time"

// User is the identity referenced by messages, blocks and requests.
// Credentials never leave the auth provider; this is the public view.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	ProfilePic string    `json:"profilePic,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Contact is one sidebar entry: a peer the user has history with,
// the number of their messages not yet seen, and the latest message
// in either direction.
type Contact struct {
	User        *User    `json:"user"`
	UnreadCount int      `json:"unreadCount"`
	LastMessage *Message `json:"lastMessage,omitempty"`
}
