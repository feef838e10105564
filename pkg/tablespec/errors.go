package tablespec

import "errors"

var (
	// ErrInvalidConfiguration is returned by Builder.Build when a definition
	// cannot be used safely (bad pagination method, bad identifiers...).
	ErrInvalidConfiguration = errors.New("invalid table configuration")

	// ErrInvalidCursor reports a cursor token that could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrUnknownAction is returned when an action name is not declared on the table.
	ErrUnknownAction = errors.New("unknown action")
)
