package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sessions_total",
			Help: "Total number of chat sessions by final outcome",
		},
		[]string{"outcome"}, // outcome: completed, failed, cancelled, timeout
	)
	StreamTurnsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_stream_turns_total",
			Help: "Total number of streamed transport rounds",
		},
	)
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_stream_events_total",
			Help: "Total number of decoded stream events",
		},
		[]string{"type"}, // type: text, tool_call_delta, end
	)
	FramesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_frames_skipped_total",
			Help: "Total number of undecodable payload lines skipped",
		},
	)
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool"},
	)
	ToolErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_errors_total",
			Help: "Total number of tool call errors",
		},
		[]string{"tool", "stage"}, // stage: validate, execute
	)
	ToolLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_latency_seconds",
			Help:    "Latency of tool calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
)

func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, nil)
}
