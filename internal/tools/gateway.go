package tools

import (
	"context"
	"fmt"

	"aiupstart.com/chat-stream/internal/metrics"
	"aiupstart.com/chat-stream/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// Gateway is the narrow contract the orchestrator sequences tool calls
// through. It knows nothing about individual tools beyond the registry it
// was built with.
type Gateway struct {
	registry *Registry
}

func NewGateway(registry *Registry) *Gateway {
	return &Gateway{registry: registry}
}

// Validate checks that the named tool exists and accepts the arguments. A nil
// return means the call may be executed.
func (g *Gateway) Validate(name string, args map[string]interface{}) error {
	tool, ok := g.registry.Get(name)
	if !ok {
		metrics.ToolErrorsTotal.WithLabelValues(name, "validate").Inc()
		return fmt.Errorf("unknown tool: %s", name)
	}
	if err := tool.Validate(args); err != nil {
		metrics.ToolErrorsTotal.WithLabelValues(name, "validate").Inc()
		return err
	}
	return nil
}

// Execute runs a previously validated call and returns its raw result.
func (g *Gateway) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	tool, ok := g.registry.Get(name)
	if !ok {
		metrics.ToolErrorsTotal.WithLabelValues(name, "execute").Inc()
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	metrics.ToolCallsTotal.WithLabelValues(name).Inc()
	timer := prometheus.NewTimer(metrics.ToolLatencySeconds.WithLabelValues(name))
	defer timer.ObserveDuration()

	result, err := tool.Call(ctx, args)
	if err != nil {
		metrics.ToolErrorsTotal.WithLabelValues(name, "execute").Inc()
		utils.Logger.Error().
			Str("module", "tools").
			Str("tool", name).
			Err(err).
			Msg("tool execution failed")
		return nil, err
	}
	return result, nil
}
