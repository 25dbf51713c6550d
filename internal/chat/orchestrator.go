package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"aiupstart.com/chat-stream/internal/llm"
	"aiupstart.com/chat-stream/internal/metrics"
	"aiupstart.com/chat-stream/internal/model"
	"aiupstart.com/chat-stream/internal/stream"
	"aiupstart.com/chat-stream/internal/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Transport opens one streaming completion round. The returned body is the
// raw frame stream; the orchestrator owns it and closes it on every exit.
type Transport interface {
	OpenStream(ctx context.Context, history []openai.ChatCompletionMessage) (io.ReadCloser, error)
}

// Gateway is the contract to the external tool collaborators. The
// orchestrator only sequences calls through it and never inspects tool
// internals.
type Gateway interface {
	Validate(name string, args map[string]interface{}) error
	Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error)
}

type Options struct {
	MaxInputChars int
	MaxToolTurns  int
	RoundTimeout  time.Duration
	Credential    string
}

// Orchestrator drives one chat session at a time:
// send -> stream -> detect tool calls -> validate -> execute -> resume -> finalize.
// Starting a new send supersedes and cancels any session still in flight.
type Orchestrator struct {
	transport Transport
	gateway   Gateway
	log       *Log
	opts      Options

	mu        sync.Mutex
	session   *session
	lastState State

	// Prior turns in transport shape, guarded by mu. Tool turns land here
	// only once the whole turn succeeded, so the history never carries an
	// assistant tool_calls turn without its matching tool results.
	history []openai.ChatCompletionMessage
}

func NewOrchestrator(transport Transport, gateway Gateway, log *Log, opts Options) *Orchestrator {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 8000
	}
	if opts.MaxToolTurns <= 0 {
		opts.MaxToolTurns = 5
	}
	if opts.RoundTimeout <= 0 {
		opts.RoundTimeout = 120 * time.Second
	}
	return &Orchestrator{
		transport: transport,
		gateway:   gateway,
		log:       log,
		opts:      opts,
		lastState: StateIdle,
	}
}

// Send runs the full state machine for one user message and blocks until the
// session reaches a terminal state. Precondition violations return a
// ValidationError without ever opening a session.
func (o *Orchestrator) Send(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return &ValidationError{Reason: "message is empty"}
	}
	if len(input) > o.opts.MaxInputChars {
		return &ValidationError{Reason: fmt.Sprintf("message exceeds %d characters", o.opts.MaxInputChars)}
	}
	if o.opts.Credential == "" {
		return &ValidationError{Reason: "no API key configured"}
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{state: StateStreaming, ctx: sctx, cancel: cancel}

	o.mu.Lock()
	if o.session != nil {
		// New send supersedes whatever is still in flight.
		o.session.cancel()
	}
	o.session = s
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		if o.session == s {
			o.session = nil
			o.lastState = s.state
		}
		o.mu.Unlock()
	}()

	o.log.Append(model.NewMessage(model.RoleUser, input))
	o.appendHistory(openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})
	assistantID := o.log.Append(model.NewMessage(model.RoleAssistant, ""))

	for {
		calls, err := o.streamRound(s, assistantID)
		if err != nil {
			o.terminate(s, assistantID, err)
			return err
		}
		if len(calls) == 0 {
			o.finalize(s, assistantID)
			return nil
		}
		if s.turn >= o.opts.MaxToolTurns {
			utils.Logger.Warn().
				Str("module", "chat").
				Int("turns", s.turn).
				Msg("tool continuation cap reached, finalizing with streamed text")
			o.finalize(s, assistantID)
			return nil
		}
		if err := o.runToolTurn(s, assistantID, calls); err != nil {
			o.terminate(s, assistantID, err)
			return err
		}
		s.turn++
		s.setState(StateStreaming)
	}
}

// Stop cancels the active session, if any. Safe to call from any goroutine.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		o.session.cancel()
	}
}

// State reports the live session's state, or the terminal state of the most
// recent one.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		return o.session.state
	}
	return o.lastState
}

func (o *Orchestrator) appendHistory(msgs ...openai.ChatCompletionMessage) {
	o.mu.Lock()
	o.history = append(o.history, msgs...)
	o.mu.Unlock()
}

func (o *Orchestrator) historySnapshot() []openai.ChatCompletionMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]openai.ChatCompletionMessage(nil), o.history...)
}

// current is the one authoritative liveness check made before mutating the
// log on behalf of a session.
func (o *Orchestrator) current(s *session) bool {
	if s.ctx.Err() != nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session == s
}

// streamRound runs one transport round: open, decode, apply deltas in arrival
// order, and collect completed tool calls. accumulatedText restarts empty for
// every round.
func (o *Orchestrator) streamRound(s *session, assistantID string) ([]model.ToolCall, error) {
	metrics.StreamTurnsTotal.Inc()
	s.accumulated.Reset()

	roundCtx, cancelRound := context.WithTimeout(s.ctx, o.opts.RoundTimeout)
	defer cancelRound()

	body, err := o.transport.OpenStream(roundCtx, o.historySnapshot())
	if err != nil {
		if cerr := o.cancellation(s, roundCtx); cerr != nil {
			return nil, cerr
		}
		var terr *llm.TransportError
		if errors.As(err, &terr) {
			return nil, err
		}
		return nil, &llm.TransportError{Category: llm.CategoryNetwork, Err: err}
	}
	defer body.Close()

	decoder := stream.NewFrameDecoder(roundCtx, body)
	assembler := stream.NewAssembler()
	for {
		ev, ok := decoder.Next()
		if !ok {
			break
		}
		if !o.current(s) {
			break
		}
		switch ev.Type {
		case stream.EventText:
			s.accumulated.WriteString(ev.Content)
			o.log.SetContent(assistantID, s.accumulated.String())
		case stream.EventToolCallDelta:
			assembler.Ingest(ev)
		case stream.EventEnd:
			// Decoder stops after this on its own.
		}
	}
	if err := decoder.Err(); err != nil {
		if cerr := o.cancellation(s, roundCtx); cerr != nil {
			return nil, cerr
		}
		return nil, &llm.TransportError{Category: llm.CategoryNetwork, Err: err}
	}
	if cerr := o.cancellation(s, roundCtx); cerr != nil {
		return nil, cerr
	}
	return assembler.Completed(), nil
}

// runToolTurn validates and executes the turn's completed calls in the order
// they completed. The first failure abandons the remaining queue; calls
// already executed keep their log entries. The synthetic assistant turn and
// the tool-result turns are staged locally and committed to the history only
// when the whole turn succeeds: a failed or cancelled turn must not leave a
// dangling tool_calls turn that would corrupt every later request.
func (o *Orchestrator) runToolTurn(s *session, assistantID string, calls []model.ToolCall) error {
	s.setState(StateToolDetected)
	s.pending = calls

	// Synthetic assistant turn carrying the proposed calls, so the
	// continuation round sees what the model asked for.
	proposed := make([]openai.ToolCall, 0, len(calls))
	for _, call := range calls {
		proposed = append(proposed, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.RawArgs,
			},
		})
	}
	staged := []openai.ChatCompletionMessage{{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   s.accumulated.String(),
		ToolCalls: proposed,
	}}

	for i, call := range calls {
		s.setState(StateValidating)
		if err := o.gateway.Validate(call.Name, call.Args); err != nil {
			return &ToolFailure{Tool: call.Name, Stage: "validate", Err: err}
		}
		if cerr := o.cancellation(s, s.ctx); cerr != nil {
			return cerr
		}

		s.setState(StateExecuting)
		result, err := o.gateway.Execute(s.ctx, call.Name, call.Args)
		if cerr := o.cancellation(s, s.ctx); cerr != nil {
			// Execution may have finished anyway; a cancelled session
			// discards the result.
			return cerr
		}
		if err != nil {
			return &ToolFailure{Tool: call.Name, Stage: "execute", Err: err}
		}

		raw, merr := json.Marshal(result)
		if merr != nil {
			raw = []byte(fmt.Sprintf("%q", fmt.Sprint(result)))
		}
		toolMsg := model.NewMessage(model.RoleTool, string(raw))
		toolMsg.ToolName = call.Name
		o.log.Append(toolMsg)
		o.log.SetContent(assistantID, summarize(call.Name, raw))
		staged = append(staged, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(raw),
			ToolCallID: call.ID,
		})
		s.pending = calls[i+1:]
	}
	s.pending = nil
	o.appendHistory(staged...)
	return nil
}

func (o *Orchestrator) finalize(s *session, assistantID string) {
	s.setState(StateFinalizing)
	final := s.accumulated.String()
	if final != "" {
		o.log.SetContent(assistantID, final)
	} else if msg, ok := o.log.Get(assistantID); ok {
		// Nothing streamed this round; keep whatever is visible.
		final = msg.Content
	}
	o.appendHistory(openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: final,
	})
	metrics.SessionsTotal.WithLabelValues("completed").Inc()
	utils.Logger.Info().
		Str("module", "chat").
		Int("tool_turns", s.turn).
		Msg("session finalized")
	s.setState(StateIdle)
}

// terminate applies the Failed/Cancelled absorbing transition. Accumulated
// text stays visible; the message is annotated with a mapped cause, never
// with raw transport detail.
func (o *Orchestrator) terminate(s *session, assistantID string, err error) {
	var cerr *CancelledError
	if errors.As(err, &cerr) {
		s.setState(StateCancelled)
		cause := "Stopped."
		outcome := "cancelled"
		if cerr.Timeout {
			cause = "Timed out waiting for the model."
			outcome = "timeout"
		}
		o.log.Annotate(assistantID, cause, false)
		metrics.SessionsTotal.WithLabelValues(outcome).Inc()
		utils.Logger.Info().Str("module", "chat").Str("outcome", outcome).Msg("session cancelled")
		return
	}

	s.setState(StateFailed)
	o.log.Annotate(assistantID, userFacingCause(err), true)
	metrics.SessionsTotal.WithLabelValues("failed").Inc()
	utils.Logger.Error().Str("module", "chat").Err(err).Msg("session failed")
}

// cancellation maps context state to the session outcome: the session's own
// context ending means stop/supersede, the round context expiring alone means
// a per-round timeout.
func (o *Orchestrator) cancellation(s *session, roundCtx context.Context) error {
	if s.ctx.Err() != nil {
		return &CancelledError{}
	}
	if errors.Is(roundCtx.Err(), context.DeadlineExceeded) {
		return &CancelledError{Timeout: true}
	}
	return nil
}

func userFacingCause(err error) string {
	var terr *llm.TransportError
	if errors.As(err, &terr) {
		return terr.UserMessage()
	}
	var tf *ToolFailure
	if errors.As(err, &tf) {
		if tf.Stage == "validate" {
			return fmt.Sprintf("The %s tool rejected the request: %v", tf.Tool, tf.Err)
		}
		return fmt.Sprintf("The %s tool failed: %v", tf.Tool, tf.Err)
	}
	return "Something went wrong."
}

func summarize(name string, rawResult []byte) string {
	compact := string(rawResult)
	if len(compact) > 120 {
		compact = compact[:120] + "..."
	}
	return fmt.Sprintf("%s -> %s", name, compact)
}
