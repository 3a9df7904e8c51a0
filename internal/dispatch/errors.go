package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sglre6355/vaneta/internal/cooldown"
)

var (
	// ErrTimeout is wrapped by an ExecutionError when execute outlives the timeout.
	ErrTimeout = errors.New("execute timed out")

	// ErrPanic is wrapped by an ExecutionError when execute panics.
	ErrPanic = errors.New("execute panicked")

	// ErrUnknownCommand is returned for an interaction naming no loaded entry.
	ErrUnknownCommand = errors.New("unknown command")
)

// ThrottleError reports an invocation rejected by a cooldown.
type ThrottleError struct {
	Kind    cooldown.Kind
	RetryAt time.Time
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled on %s until %s", e.Kind, e.RetryAt.Format(time.RFC3339))
}

// AuthorizationError reports an invocation rejected because the actor is not
// the developer or a permission is missing.
type AuthorizationError struct {
	// DeveloperOnly is set when a root command was invoked by someone else.
	DeveloperOnly bool
	MissingClient []string
	MissingMember []string
}

func (e *AuthorizationError) Error() string {
	if e.DeveloperOnly {
		return "developer only"
	}
	var parts []string
	if len(e.MissingClient) > 0 {
		parts = append(parts, "client missing "+strings.Join(e.MissingClient, ", "))
	}
	if len(e.MissingMember) > 0 {
		parts = append(parts, "member missing "+strings.Join(e.MissingMember, ", "))
	}
	return strings.Join(parts, "; ")
}

// ExecutionError reports a plugin that failed, panicked or timed out.
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
