package chat

import (
	"sync"

	"aiupstart.com/chat-stream/internal/model"
)

// Log owns the conversation messages. The orchestrator mutates the current
// assistant message through it by id; everything else is append-only. An
// optional observer is notified with a copy of every message that changes,
// which is how the rendering collaborator sees streaming deltas.
type Log struct {
	mu       sync.Mutex
	messages []model.Message
	observer func(model.Message)
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) SetObserver(fn func(model.Message)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = fn
}

func (l *Log) Append(msg model.Message) string {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	observer := l.observer
	l.mu.Unlock()
	if observer != nil {
		observer(msg)
	}
	return msg.ID
}

func (l *Log) update(id string, mutate func(*model.Message)) {
	l.mu.Lock()
	var changed *model.Message
	for i := range l.messages {
		if l.messages[i].ID == id {
			mutate(&l.messages[i])
			copied := l.messages[i]
			changed = &copied
			break
		}
	}
	observer := l.observer
	l.mu.Unlock()
	if changed != nil && observer != nil {
		observer(*changed)
	}
}

// SetContent republishes the visible content of the message. Called on every
// streamed delta, not batched.
func (l *Log) SetContent(id, content string) {
	l.update(id, func(m *model.Message) {
		m.Content = content
	})
}

// Annotate attaches a human-readable cause to the message, flagging it as
// errored unless it ended by cancellation. Existing content is retained.
func (l *Log) Annotate(id, cause string, isErr bool) {
	l.update(id, func(m *model.Message) {
		m.Err = isErr
		m.ErrCause = cause
	})
}

func (l *Log) Messages() []model.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Get returns a copy of the message with the given id.
func (l *Log) Get(id string) (model.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			return l.messages[i], true
		}
	}
	return model.Message{}, false
}
