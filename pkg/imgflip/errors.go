package imgflip

import (
	"errors"
	"fmt"
)

// ErrNoCaptions is returned by CreateMeme when called with an empty caption list.
// It signals a caller bug rather than a user-facing condition.
var ErrNoCaptions = errors.New("imgflip: at least one caption is required")

// SchemaError reports a response that did not match the expected shape,
// including failure envelopes ({"success": false, ...}).
type SchemaError struct {
	Endpoint string
	Status   int
	Reason   string
	Cause    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("imgflip %s: unexpected response (status %d): %s", e.Endpoint, e.Status, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func schemaErrorf(endpoint string, status int, cause error, format string, args ...any) *SchemaError {
	return &SchemaError{
		Endpoint: endpoint,
		Status:   status,
		Reason:   fmt.Sprintf(format, args...),
		Cause:    cause,
	}
}
