package server

import "errors"

// Server-specific errors
var (
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListenerFailed       = errors.New("failed to create listener")
	ErrUnknownCollection    = errors.New("unknown collection")
	ErrHubStopped           = errors.New("hub is stopped")
	ErrTaskPanicked         = errors.New("hub task panicked")
	ErrSlowClient           = errors.New("client too slow")
	ErrFeedClosed           = errors.New("feed is closed")
	ErrInvalidRequest       = errors.New("invalid request")
)
