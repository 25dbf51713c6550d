package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"aiupstart.com/chat-stream/internal/metrics"
	"aiupstart.com/chat-stream/internal/utils"
	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// FrameDecoder turns a raw byte stream into an ordered sequence of Events.
// Chunks may arrive split at arbitrary byte boundaries; the decoder re-buffers
// the trailing incomplete line between reads, so the event sequence is
// identical for every chunking of the same stream. A decoder is single-use:
// once it stops producing events it cannot be restarted.
type FrameDecoder struct {
	ctx      context.Context
	r        io.Reader
	buf      []byte
	partial  string // trailing incomplete line from the previous chunk
	queue    []Event
	done     bool
	terminal bool // sentinel observed, ignore the rest of the stream
	err      error
}

func NewFrameDecoder(ctx context.Context, r io.Reader) *FrameDecoder {
	return &FrameDecoder{
		ctx: ctx,
		r:   r,
		buf: make([]byte, 4096),
	}
}

// Next returns the next event, or ok=false once the stream is exhausted,
// cancelled, or broken. After a false return, Err reports why the sequence
// ended if it did not end cleanly.
func (d *FrameDecoder) Next() (Event, bool) {
	for {
		// Cancellation wins over anything already buffered.
		if err := d.ctx.Err(); err != nil {
			if !d.done {
				d.done = true
				d.err = err
				d.queue = nil
				d.partial = ""
			}
			return Event{}, false
		}
		if len(d.queue) > 0 {
			ev := d.queue[0]
			d.queue = d.queue[1:]
			metrics.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
			if ev.Type == EventEnd {
				d.done = true
			}
			return ev, true
		}
		if d.done {
			return Event{}, false
		}

		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.ingest(string(d.buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || d.terminal {
				if !d.terminal && d.partial != "" {
					// The source closed without terminating its last line;
					// treat the remainder as a complete line.
					line := strings.TrimSuffix(d.partial, "\r")
					d.partial = ""
					d.processLine(line)
				}
				if !d.terminal {
					// Source completed without a sentinel; the stream is
					// still finite, close it out.
					d.queue = append(d.queue, Event{Type: EventEnd})
					d.terminal = true
				}
				continue
			}
			d.done = true
			d.err = err
			return Event{}, false
		}
	}
}

// Err reports a non-clean end of the sequence: the cancellation cause or the
// transport read error. It is nil after a normal end-of-stream.
func (d *FrameDecoder) Err() error {
	return d.err
}

func (d *FrameDecoder) ingest(chunk string) {
	data := d.partial + chunk
	for {
		nl := strings.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		line := strings.TrimSuffix(data[:nl], "\r")
		data = data[nl+1:]
		if d.terminal {
			continue
		}
		d.processLine(line)
	}
	d.partial = data
}

func (d *FrameDecoder) processLine(line string) {
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return
	}
	if payload == doneSentinel {
		d.queue = append(d.queue, Event{Type: EventEnd})
		d.terminal = true
		return
	}

	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		// Expected at chunk boundaries and for any garbage frame: skip it,
		// the stream itself stays healthy.
		metrics.FramesSkippedTotal.Inc()
		utils.Logger.Debug().Str("module", "stream").Msg("skipping undecodable payload line")
		return
	}
	for _, choice := range resp.Choices {
		if choice.Delta.Content != "" {
			d.queue = append(d.queue, Event{Type: EventText, Content: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			d.queue = append(d.queue, Event{
				Type:      EventToolCallDelta,
				Index:     idx,
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				ArgsChunk: tc.Function.Arguments,
			})
		}
	}
}
