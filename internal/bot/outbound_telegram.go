package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/extract"
)

// Telegram rejects messages longer than this many characters.
const maxMessageRunes = 4096

type TelegramOutbound struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

func NewTelegramOutbound(api *tgbotapi.BotAPI) *TelegramOutbound {
	return &TelegramOutbound{
		api:    api,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *TelegramOutbound) SendText(_ context.Context, chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageRunes) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (t *TelegramOutbound) SendTyping(_ context.Context, chatID int64) error {
	_, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (t *TelegramOutbound) Fetch(ctx context.Context, fileID string, maxBytes int) ([]byte, error) {
	link, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	return download(ctx, t.client, link, maxBytes)
}

func download(ctx context.Context, client *http.Client, link string, maxBytes int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, errors.New("file download error: " + resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBytes {
		return nil, extract.ErrTooLarge
	}
	return data, nil
}

// splitMessage cuts text into parts of at most limit runes, preferring
// line breaks as cut points.
func splitMessage(text string, limit int) []string {
	r := []rune(text)
	if len(r) <= limit {
		return []string{text}
	}

	var parts []string
	for len(r) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if r[i-1] == '\n' {
				cut = i
				break
			}
		}
		if part := strings.TrimRight(string(r[:cut]), "\n"); part != "" {
			parts = append(parts, part)
		}
		r = r[cut:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
