package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"aiupstart.com/chat-stream/internal/config"
	"aiupstart.com/chat-stream/internal/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Client opens streaming chat-completion requests against an OpenAI-style
// endpoint. It deliberately does not use the SDK's own stream reader: the
// response body is handed to the caller's frame decoder untouched. The SDK
// supplies the wire types so requests and payloads stay bit-compatible.
type Client struct {
	httpClient *http.Client
	cfg        *config.ChatConfig
	tools      []openai.Tool
}

func NewClient(cfg *config.ChatConfig, tools []openai.Tool) *Client {
	// No client-level timeout: the body is a long-lived stream, the caller's
	// context bounds each round.
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		tools:      tools,
	}
}

// OpenStream sends one transport round and returns the raw event stream. The
// caller owns the returned body and must close it on every exit path.
func (c *Client) OpenStream(ctx context.Context, history []openai.ChatCompletionMessage) (io.ReadCloser, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if c.cfg.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.cfg.SystemPrompt,
		})
	}
	messages = append(messages, history...)

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      true,
	}
	if len(c.tools) > 0 {
		req.Tools = c.tools
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	utils.Logger.Debug().
		Str("module", "llm").
		Str("model", c.cfg.Model).
		Int("messages", len(messages)).
		Msg("opening completion stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Category: CategoryNetwork, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		terr := &TransportError{
			Category: classifyStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(detail))),
		}
		utils.Logger.Error().
			Str("module", "llm").
			Int("status", resp.StatusCode).
			Str("category", string(terr.Category)).
			Msg("completion request rejected")
		return nil, terr
	}
	return resp.Body, nil
}
