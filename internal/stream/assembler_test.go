package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delta(index int, callID, name, args string) Event {
	return Event{
		Type:      EventToolCallDelta,
		Index:     index,
		CallID:    callID,
		Name:      name,
		ArgsChunk: args,
	}
}

func TestAssemblerSingleCallAcrossDeltas(t *testing.T) {
	a := NewAssembler()
	a.Ingest(delta(0, "call_a", "calculate", ""))
	assert.Empty(t, a.Completed())
	a.Ingest(delta(0, "", "", `{"expres`))
	assert.Empty(t, a.Completed())
	assert.Equal(t, 1, a.PendingCount())
	a.Ingest(delta(0, "", "", `sion":"2+2"}`))

	completed := a.Completed()
	require.Equal(t, 1, len(completed))
	assert.Equal(t, "call_a", completed[0].ID)
	assert.Equal(t, "calculate", completed[0].Name)
	assert.Equal(t, map[string]interface{}{"expression": "2+2"}, completed[0].Args)
	assert.Equal(t, `{"expression":"2+2"}`, completed[0].RawArgs)
	assert.Equal(t, 0, a.PendingCount())
}

func TestAssemblerFirstCompletedOrder(t *testing.T) {
	// Index 1 finishes before index 0; emission order must follow
	// completion, not index.
	a := NewAssembler()
	a.Ingest(delta(0, "call_0", "notes", `{"action":`))
	a.Ingest(delta(1, "call_1", "get_time", `{}`))
	a.Ingest(delta(0, "", "", `"list"}`))

	completed := a.Completed()
	require.Equal(t, 2, len(completed))
	assert.Equal(t, "call_1", completed[0].ID)
	assert.Equal(t, "call_0", completed[1].ID)
}

func TestAssemblerInterleavingsEmitExactlyOnce(t *testing.T) {
	// All arrival orders of the two calls' argument chunks produce the same
	// two calls, each exactly once.
	chunks := []Event{
		delta(0, "call_0", "a", ""),
		delta(1, "call_1", "b", ""),
		delta(0, "", "", `{"x":`),
		delta(1, "", "", `{"y":`),
		delta(0, "", "", `1}`),
		delta(1, "", "", `2}`),
	}
	orders := [][]int{
		{0, 1, 2, 3, 4, 5},
		{0, 1, 3, 2, 5, 4},
		{1, 0, 3, 5, 2, 4},
		{0, 2, 4, 1, 3, 5},
		{1, 3, 5, 0, 2, 4},
	}
	for _, order := range orders {
		a := NewAssembler()
		for _, i := range order {
			a.Ingest(chunks[i])
		}
		completed := a.Completed()
		require.Equal(t, 2, len(completed))
		seen := map[string]bool{}
		for _, c := range completed {
			assert.False(t, seen[c.Name])
			seen[c.Name] = true
		}
		assert.True(t, seen["a"])
		assert.True(t, seen["b"])
	}
}

func TestAssemblerIgnoresRetiredIndex(t *testing.T) {
	a := NewAssembler()
	a.Ingest(delta(0, "call_0", "get_time", `{}`))
	require.Equal(t, 1, len(a.Completed()))

	// A later delta for a completed index is a protocol anomaly: dropped,
	// never resurrected, never re-emitted.
	a.Ingest(delta(0, "", "", `{"tz":"UTC"}`))
	completed := a.Completed()
	require.Equal(t, 1, len(completed))
	assert.Equal(t, `{}`, completed[0].RawArgs)
}

func TestAssemblerNameOverwriteAndArgsAppend(t *testing.T) {
	a := NewAssembler()
	a.Ingest(delta(2, "", "calc", ""))
	a.Ingest(delta(2, "call_2", "calculate", `{"expression"`))
	a.Ingest(delta(2, "", "", `:"1+1"}`))

	completed := a.Completed()
	require.Equal(t, 1, len(completed))
	assert.Equal(t, "calculate", completed[0].Name, "a later name replaces the earlier one")
	assert.Equal(t, `{"expression":"1+1"}`, completed[0].RawArgs, "args chunks append")
}

func TestAssemblerNamelessFragmentStaysPending(t *testing.T) {
	a := NewAssembler()
	a.Ingest(delta(0, "call_0", "", `{}`))
	assert.Empty(t, a.Completed())
	assert.Equal(t, 1, a.PendingCount())

	a.Ingest(delta(0, "", "get_time", ""))
	assert.Equal(t, 1, len(a.Completed()))
}

func TestAssemblerIgnoresNonToolEvents(t *testing.T) {
	a := NewAssembler()
	a.Ingest(Event{Type: EventText, Content: "hi"})
	a.Ingest(Event{Type: EventEnd})
	assert.Empty(t, a.Completed())
	assert.Equal(t, 0, a.PendingCount())
}

func TestAssemblerGeneratesIDWhenWireOmitsIt(t *testing.T) {
	a := NewAssembler()
	a.Ingest(delta(0, "", "get_time", `{}`))
	completed := a.Completed()
	require.Equal(t, 1, len(completed))
	assert.NotEmpty(t, completed[0].ID)
}
