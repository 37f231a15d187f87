package domain

import "errors"

var (
	// ErrNetwork covers every way the question fetch can fail: transport, payload or an empty list.
	ErrNetwork = errors.New("failed to load questions")
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
)
