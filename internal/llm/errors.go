package llm

import "fmt"

// ErrorCategory classifies a transport failure for user-facing messaging.
// The orchestrator relies on this classification instead of re-deriving it
// from status codes.
type ErrorCategory string

const (
	CategoryAuth      ErrorCategory = "auth"
	CategoryEndpoint  ErrorCategory = "endpoint"
	CategoryRateLimit ErrorCategory = "rate_limit"
	CategoryServer    ErrorCategory = "server"
	CategoryNetwork   ErrorCategory = "network"
)

type TransportError struct {
	Category ErrorCategory
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error (%s, status %d): %v", e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("transport error (%s): %v", e.Category, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage maps the category to the message shown to the user. Raw
// transport detail never reaches the UI.
func (e *TransportError) UserMessage() string {
	switch e.Category {
	case CategoryAuth:
		return "The API key was rejected. Check your credentials."
	case CategoryEndpoint:
		return "The completion endpoint was not found. Check the configured base URL and model."
	case CategoryRateLimit:
		return "The provider is rate-limiting requests. Try again in a moment."
	case CategoryServer:
		return "The provider returned a server error. Try again."
	default:
		return "Could not reach the completion endpoint."
	}
}

func classifyStatus(status int) ErrorCategory {
	switch {
	case status == 401 || status == 403:
		return CategoryAuth
	case status == 404:
		return CategoryEndpoint
	case status == 429:
		return CategoryRateLimit
	case status >= 500:
		return CategoryServer
	default:
		return CategoryServer
	}
}
