// Package ollama implements the model client against a local Ollama server
// in JSON mode.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"nutriplan"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "llama3.1:8b"
)

type options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type Options struct {
	BaseEndpoint string
	Model        string
	Temperature  float64
	HTTPClient   nutriplan.HTTPClient
}

type Client struct {
	endpoint   string
	model      string
	httpClient nutriplan.HTTPClient
	options    options
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseEndpoint == "" {
		opts.BaseEndpoint = defaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.1
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		endpoint:   opts.BaseEndpoint + "/api/chat",
		model:      opts.Model,
		httpClient: opts.HTTPClient,
		options: options{
			Temperature: opts.Temperature,
			TopP:        0.9,
			NumCtx:      16384,
		},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
}

// Invoke sends one system+user exchange with format "json" and returns the
// message content.
func (c *Client) Invoke(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model)

	reqBody := wireRequest{
		Model: c.model,
		Messages: []wireMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Format:  "json",
		Stream:  false,
		Options: c.options,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("LLM_CLIENT: decode response: %w", err)
	}
	if wr.Message.Content == "" {
		return nil, fmt.Errorf("LLM_CLIENT: response has no message content")
	}

	return json.RawMessage(wr.Message.Content), nil
}
