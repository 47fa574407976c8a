package domain

import "errors"

// Sentinel errors for the notification domain. Use errors.Is() to check these.
var (
	// ErrInvalidChatID indicates a Telegram chat id that is empty or malformed.
	ErrInvalidChatID = errors.New("invalid telegram chat id")
)
