package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyReply is returned when the model answers with no usable text.
var ErrEmptyReply = errors.New("ai: empty reply")

type Config struct {
	APIKey      string
	BaseURL     string // empty = api.openai.com
	Model       string
	VisionModel string
	Temperature float32
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func newClient(cfg Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return openai.NewClientWithConfig(oc)
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client:      newClient(cfg),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func (c *OpenAIClient) GetReply(
	ctx context.Context,
	history []Message,
) (string, error) {

	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		log.Println("[ai] empty choices")
		return "", ErrEmptyReply
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[ai] reply model=%s tokens=%d chars=%d", resp.Model, resp.Usage.TotalTokens, len(raw))
	return raw, nil
}
