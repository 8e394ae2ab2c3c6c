package chat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotSignedIn    = errors.New("not signed in")
	ErrNoRoomSelected = errors.New("no room selected")
)

// RemoteError is any failed backend call: network, validation on the
// server side, or auth.
type RemoteError struct {
	Op      string
	Status  int // HTTP status when the backend answered, 0 otherwise
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// remoteError tags err with op, keeping status and message when err already
// is a RemoteError.
func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		out := *re
		out.Op = op
		return &out
	}
	return &RemoteError{Op: op, Err: err}
}

// IsRemote reports whether err came from the backend.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// ValidationError is an input problem caught before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors collects the ValidationErrors of one form. errors.As finds
// each of them.
type FieldErrors []*ValidationError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() []error {
	out := make([]error, len(fe))
	for i, e := range fe {
		out[i] = e
	}
	return out
}

// For returns the message for field, or "".
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}
