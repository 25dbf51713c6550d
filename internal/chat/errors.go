package chat

import "fmt"

// ValidationError rejects user input before any session is opened.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ToolFailure is a tool-scoped failure: either the gateway refused the call
// or execution itself failed. It aborts the remaining tool queue for the turn.
type ToolFailure struct {
	Tool  string
	Stage string // "validate" or "execute"
	Err   error
}

func (e *ToolFailure) Error() string {
	return fmt.Sprintf("tool %s failed during %s: %v", e.Tool, e.Stage, e.Err)
}

func (e *ToolFailure) Unwrap() error { return e.Err }

// CancelledError ends a session without counting as a failure. Timeout
// cancellations carry a distinct tag for reporting.
type CancelledError struct {
	Timeout bool
}

func (e *CancelledError) Error() string {
	if e.Timeout {
		return "timed out"
	}
	return "cancelled"
}
