package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AhmedAbdelmoaty/Assessment/internal/config"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: cfg.Timeout,
		},
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	}
}

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []ChatCompletionMessage `json:"messages"`
	Stream         bool                    `json:"stream"`
	Temperature    *float64                `json:"temperature,omitempty"`
	MaxTokens      *int                    `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat         `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first choice's
// content. When jsonMode is true the endpoint is asked for a JSON object
// response.
func (c *Client) Complete(ctx context.Context, messages []ChatCompletionMessage, jsonMode bool) (string, error) {
	request := chatCompletionRequest{
		Model:    c.Model,
		Messages: messages,
		Stream:   false,
	}
	if jsonMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" && c.APIKey != "none" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

// IsConnected probes the models endpoint with a short deadline.
func (c *Client) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	if c.APIKey != "" && c.APIKey != "none" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
