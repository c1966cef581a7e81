package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected        = fmt.Errorf("channel is not connected")
	ErrRetriesExhausted    = fmt.Errorf("reconnect retries exhausted")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrSessionNotFound     = fmt.Errorf("no stored session")
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials")
	ErrEmptyKeywords       = fmt.Errorf("no alert keywords have been provided")
	ErrUnknownConversation = fmt.Errorf("unknown conversation")
	ErrUnknownParticipant  = fmt.Errorf("unknown participant")
	ErrDuplicateChat       = fmt.Errorf("conversation already exists")
	ErrUnauthorized        = fmt.Errorf("unauthorized")
)

// FetchError wraps a failed REST call. The affected list or timeline simply
// stays stale; callers log it and move on, no retry loop.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TransportError marks a dropped or unreachable push channel. Recovery is
// reconnect-and-resubscribe, never a user-facing failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError carries a message meant for the user, not the console.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}
