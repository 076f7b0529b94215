package domain

import "errors"

var (
	ErrMissingDestination = errors.New("destination reference is required")
	ErrMissingOwner       = errors.New("owner reference is required")
	ErrSessionActive      = errors.New("a session is already active")
	ErrSessionNotFound    = errors.New("session not found")
)
