package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/infra/httpclient"
)

const chatTimeout = 120 * time.Second

type chatRequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string               `json:"model"`
	Messages       []chatRequestMessage `json:"messages"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewChatClient constructs a client for the given endpoint and key.
func NewChatClient(baseURL, apiKey string) *ChatClient {
	return &ChatClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  httpclient.NewPooledClient(chatTimeout),
	}
}

// Chat sends the conversation and returns the first choice with its usage.
func (c *ChatClient) Chat(ctx context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (*domain.ChatResult, error) {
	reqBody := chatRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatRequestMessage{Role: m.Role, Content: m.Content})
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat endpoint returned no choices")
	}

	slog.Info("chat_completed",
		slog.String("model", opts.Model),
		slog.Int("total_tokens", chatResp.Usage.TotalTokens),
		slog.Duration("elapsed", time.Since(start)))

	return &domain.ChatResult{
		Text: strings.TrimSpace(chatResp.Choices[0].Message.Content),
		Usage: domain.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

var _ domain.LLMClient = (*ChatClient)(nil)
