package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// noTextMarker is what the model is told to answer for images without text.
const noTextMarker = "NO_TEXT"

const ocrPrompt = `Transcribe all text visible in this image exactly as written.
Keep the original language and line breaks.
Do not describe, translate or summarize anything.
If the image contains no readable text, answer with exactly: ` + noTextMarker

// VisionRecognizer does optical character recognition with a
// vision-capable chat model.
type VisionRecognizer struct {
	client *openai.Client
	model  string
}

func NewVisionRecognizer(cfg Config) *VisionRecognizer {
	model := cfg.VisionModel
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &VisionRecognizer{client: newClient(cfg), model: model}
}

func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte, mime string) (string, error) {
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					},
				},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("ocr completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == noTextMarker {
		return "", nil
	}
	return text, nil
}
