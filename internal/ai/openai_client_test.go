package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q, want .../chat/completions", r.URL.Path)
		}
		if got != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"c1","object":"chat.completion","model":"test-model",
"choices":[{"index":0,"message":{"role":"assistant","content":"  hello  "},"finish_reason":"stop"}],
"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

func TestGetReplySendsHistoryAndSettings(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, okBody, &got)

	c := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1/", Model: "test-model", Temperature: 0.7})
	reply, err := c.GetReply(context.Background(), []Message{
		{Role: RoleSystem, Text: "be brief"},
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hey"},
		{Role: RoleUser, Text: "how are you"},
	})
	if err != nil {
		t.Fatalf("GetReply() error = %v", err)
	}
	if reply != "hello" {
		t.Fatalf("reply = %q, want %q", reply, "hello")
	}
	if got.Model != "test-model" {
		t.Fatalf("model = %q", got.Model)
	}
	if got.Temperature < 0.69 || got.Temperature > 0.71 {
		t.Fatalf("temperature = %v, want 0.7", got.Temperature)
	}
	if len(got.Messages) != 4 || got.Messages[3].Role != RoleUser {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestGetReplyAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError,
		`{"error":{"message":"boom","type":"server_error"}}`, nil)

	c := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.GetReply(context.Background(), []Message{{Role: RoleUser, Text: "hi"}}); err == nil {
		t.Fatal("GetReply() error = nil, want error")
	}
}

func TestGetReplyEmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","model":"m","choices":[]}`, nil)

	c := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.GetReply(context.Background(), []Message{{Role: RoleUser, Text: "hi"}})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("error = %v, want ErrEmptyReply", err)
	}
}

func TestVisionRecognizer(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "text", content: "  Invoice 42\nTotal 10  ", want: "Invoice 42\nTotal 10"},
		{name: "no text marker", content: noTextMarker, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]any{
				"id": "c1", "object": "chat.completion", "model": "vision",
				"choices": []map[string]any{{
					"index":   0,
					"message": map[string]string{"role": "assistant", "content": tt.content},
				}},
			})
			var got capturedRequest
			srv := newTestServer(t, http.StatusOK, string(body), &got)

			v := NewVisionRecognizer(Config{APIKey: "k", BaseURL: srv.URL, Model: "chat", VisionModel: "vision"})
			text, err := v.Recognize(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
			if err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}
			if text != tt.want {
				t.Fatalf("text = %q, want %q", text, tt.want)
			}
			if got.Model != "vision" {
				t.Fatalf("model = %q, want vision", got.Model)
			}
			if len(got.Messages) != 1 || !strings.Contains(string(got.Messages[0].Content), "data:image/jpeg;base64,") {
				t.Fatalf("image part not sent: %+v", got.Messages)
			}
		})
	}
}
