package plugin

import (
	"errors"
	"fmt"
)

// Descriptor validation errors.
var (
	// ErrMissingName is returned when a descriptor has no name.
	ErrMissingName = errors.New("descriptor has no name")

	// ErrUnknownKind is returned when a descriptor kind is not command, context or event.
	ErrUnknownKind = errors.New("unknown descriptor kind")

	// ErrMissingHandler is returned when no compiled-in handler matches the descriptor.
	ErrMissingHandler = errors.New("no handler registered")

	// ErrUnknownEvent is returned when an event descriptor names an unsupported event.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrUnknownTarget is returned when a context action target is not user or message.
	ErrUnknownTarget = errors.New("unknown context target")

	// ErrInvalidOption is returned when a command option cannot be declared.
	ErrInvalidOption = errors.New("invalid command option")
)

// LoadError reports a plugin descriptor that was rejected at load time.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load plugin %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
