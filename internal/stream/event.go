package stream

type EventType string

const (
	EventText          EventType = "text"
	EventToolCallDelta EventType = "tool_call_delta"
	EventEnd           EventType = "end"
)

// Event is one decoded protocol event. A single wire frame may expand into
// several events (one text delta plus one per tool-call fragment it carries).
type Event struct {
	Type EventType

	// EventText
	Content string

	// EventToolCallDelta. CallID and Name are only present on the frame that
	// opens a call; ArgsChunk is one fragment of the streamed argument string.
	Index     int
	CallID    string
	Name      string
	ArgsChunk string
}
