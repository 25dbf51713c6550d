package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aiupstart.com/chat-stream/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.ChatConfig {
	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	cfg.Model = "gpt-4o"
	cfg.APIKey = "sk-test"
	cfg.Temperature = 0.2
	return cfg
}

func TestOpenStreamRequestShape(t *testing.T) {
	var got openai.ChatCompletionRequest
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SystemPrompt = "Be terse."
	tools := []openai.Tool{{
		Type:     openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{Name: "calculate"},
	}}

	body, err := NewClient(cfg, tools).OpenStream(context.Background(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DONE]")

	assert.Equal(t, "Bearer sk-test", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	assert.True(t, got.Stream)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Equal(t, 2, len(got.Messages))
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Be terse.", got.Messages[0].Content)
	assert.Equal(t, "hi", got.Messages[1].Content)
	require.Equal(t, 1, len(got.Tools))
	assert.Equal(t, "calculate", got.Tools[0].Function.Name)
}

func TestOpenStreamClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCategory
	}{
		{http.StatusUnauthorized, CategoryAuth},
		{http.StatusForbidden, CategoryAuth},
		{http.StatusNotFound, CategoryEndpoint},
		{http.StatusTooManyRequests, CategoryRateLimit},
		{http.StatusInternalServerError, CategoryServer},
		{http.StatusBadGateway, CategoryServer},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		_, err := NewClient(testConfig(srv.URL), nil).OpenStream(context.Background(), nil)
		srv.Close()

		var terr *TransportError
		require.True(t, errors.As(err, &terr), "status %d", tc.status)
		assert.Equal(t, tc.want, terr.Category, "status %d", tc.status)
		assert.Equal(t, tc.status, terr.Status)
		assert.NotEmpty(t, terr.UserMessage())
		assert.NotContains(t, terr.UserMessage(), "nope", "raw detail must not leak into the user message")
	}
}

func TestOpenStreamNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	_, err := NewClient(testConfig(srv.URL), nil).OpenStream(context.Background(), nil)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, CategoryNetwork, terr.Category)
}
