package stream

import (
	"encoding/json"
	"strings"

	"aiupstart.com/chat-stream/internal/model"
	"aiupstart.com/chat-stream/internal/utils"
	"github.com/google/uuid"
)

type fragment struct {
	callID string
	name   string
	args   strings.Builder
}

// Assembler folds tool_call_delta events into completed ToolCalls. Argument
// strings stream across many deltas; a fragment completes the moment its
// buffer parses as a JSON value and its name is known. Completed calls are
// kept in first-completed order, which is not necessarily index order.
type Assembler struct {
	pending   map[int]*fragment
	retired   map[int]bool
	completed []model.ToolCall
}

func NewAssembler() *Assembler {
	return &Assembler{
		pending: make(map[int]*fragment),
		retired: make(map[int]bool),
	}
}

// Ingest consumes one tool_call_delta event. It never fails: deltas for a
// retired index are a protocol anomaly and are dropped.
func (a *Assembler) Ingest(ev Event) {
	if ev.Type != EventToolCallDelta {
		return
	}
	if a.retired[ev.Index] {
		utils.Logger.Warn().
			Str("module", "stream").
			Int("index", ev.Index).
			Msg("delta for already-completed tool call, ignoring")
		return
	}
	frag, ok := a.pending[ev.Index]
	if !ok {
		frag = &fragment{}
		a.pending[ev.Index] = frag
	}
	if ev.CallID != "" {
		frag.callID = ev.CallID
	}
	if ev.Name != "" {
		frag.name = ev.Name
	}
	if ev.ArgsChunk != "" {
		frag.args.WriteString(ev.ArgsChunk)
	}
	a.tryComplete(ev.Index, frag)
}

func (a *Assembler) tryComplete(index int, frag *fragment) {
	if frag.name == "" {
		return
	}
	raw := frag.args.String()
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		// Still streaming in; the common case, not an error.
		return
	}
	id := frag.callID
	if id == "" {
		id = uuid.NewString()
	}
	a.completed = append(a.completed, model.ToolCall{
		ID:      id,
		Name:    frag.name,
		Args:    args,
		RawArgs: raw,
	})
	delete(a.pending, index)
	a.retired[index] = true
}

// Completed returns the calls assembled so far, in the order each one first
// became parseable.
func (a *Assembler) Completed() []model.ToolCall {
	return a.completed
}

// PendingCount reports fragments still waiting on more argument data.
func (a *Assembler) PendingCount() int {
	return len(a.pending)
}
