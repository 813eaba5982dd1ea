package delegation

import (
	"fmt"
	"strings"

	"github.com/inference-gateway/capability-orchestrator/capability"
)

// ErrorKind classifies a failed delegation
type ErrorKind string

const (
	// ErrorKindUnavailable means the id is unknown, disabled or not an agent
	ErrorKindUnavailable ErrorKind = "unavailable"
	// ErrorKindCommunication means the agent could not be reached or answered badly
	ErrorKindCommunication ErrorKind = "communication"
)

// Error is returned by Delegate for every failure. Its message is meant to be
// shown to the user or fed back to the reasoning engine as is.
type Error struct {
	Kind         ErrorKind
	CapabilityID string
	Available    []string
	Err          error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindUnavailable:
		return fmt.Sprintf("Agent '%s' not found or not enabled. Available agents: %s", e.CapabilityID, strings.Join(e.Available, ", "))
	default:
		return fmt.Sprintf("Error communicating with agent '%s': %v", e.CapabilityID, e.Err)
	}
}

// Unwrap exposes the matching capability sentinel and the cause
func (e *Error) Unwrap() []error {
	sentinel := capability.ErrCommunication
	if e.Kind == ErrorKindUnavailable {
		sentinel = capability.ErrCapabilityNotFound
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

func unavailable(id string, available []string, cause error) *Error {
	return &Error{Kind: ErrorKindUnavailable, CapabilityID: id, Available: available, Err: cause}
}

func communication(id string, cause error) *Error {
	return &Error{Kind: ErrorKindCommunication, CapabilityID: id, Err: cause}
}
