package llmgateway

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts go-openai's client to the ChatClient interface,
// the concrete backend behind BackendOpenAICompatible.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient builds a client pointed at apiBase (empty string uses
// the default OpenAI endpoint, letting the same code serve any
// OpenAI-compatible deployment).
func NewOpenAIClient(apiKey, apiBase string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		cfg.BaseURL = apiBase
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// CreateChatCompletion implements ChatClient.
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, model string, temperature float32, maxTokens int, systemMsg, userMsg string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
