package chat

import (
	"context"
	"strings"

	"aiupstart.com/chat-stream/internal/model"
	"aiupstart.com/chat-stream/internal/utils"
)

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateToolDetected
	StateValidating
	StateExecuting
	StateFinalizing
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateToolDetected:
		return "tool_detected"
	case StateValidating:
		return "validating"
	case StateExecuting:
		return "executing"
	case StateFinalizing:
		return "finalizing"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) terminal() bool {
	return s == StateFailed || s == StateCancelled
}

// session is the mutable orchestration context for one user send, including
// all of its tool-continuation turns. Exactly one is live at a time.
type session struct {
	state       State
	ctx         context.Context
	cancel      context.CancelFunc
	pending     []model.ToolCall
	turn        int
	accumulated strings.Builder
}

func (s *session) setState(to State) {
	if s.state.terminal() {
		// Cancellation and failure absorb everything after them.
		return
	}
	utils.Logger.Debug().
		Str("module", "chat").
		Str("from", s.state.String()).
		Str("to", to.String()).
		Msg("session transition")
	s.state = to
}
