package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Message is one entry in the conversation log. Only the assistant message
// currently being streamed is ever mutated; everything else is immutable once
// the next message lands.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	ToolName  string
	Err       bool
	ErrCause  string
}

func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToolCall is the terminal form of an assembled tool invocation: the args
// buffer has parsed and the call is ready for validation and execution.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
	// RawArgs is the exact argument string as streamed, kept for the
	// continuation request.
	RawArgs string
}
