package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client is no longer registered")
	ErrHubStopped      = errors.New("hub is stopped")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrUnknownTable    = errors.New("unknown table")
)
