package domain

import "errors"

var (
	ErrInvalidMessage  = errors.New("invalid message")
	ErrEmptyMessage    = errors.New("message has no text and no image")
	ErrMessageTooLarge = errors.New("message too large")
	ErrUserNotFound    = errors.New("user not found")
	ErrBlocked         = errors.New("sender is blocked by receiver")
	ErrSelfMessage     = errors.New("cannot message self")
)
