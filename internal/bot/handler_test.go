package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/answer"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/extract"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/history"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/users"
)

type recordingOutbound struct {
	mu     sync.Mutex
	typing []int64
	sent   map[int64][]string
	done   chan struct{}
}

func newRecordingOutbound() *recordingOutbound {
	return &recordingOutbound{sent: make(map[int64][]string), done: make(chan struct{}, 8)}
}

func (r *recordingOutbound) SendText(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	r.sent[chatID] = append(r.sent[chatID], text)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingOutbound) SendTyping(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing = append(r.typing, chatID)
	return nil
}

type echoService struct{}

func (echoService) Handle(_ context.Context, in Inbound) string {
	if in.Command != "" {
		return "cmd:" + in.Command + ":" + in.Args
	}
	return "echo:" + in.Text
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "ann", FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: 70},
		Text:      text,
	}
}

func TestToInbound(t *testing.T) {
	cmd := textMessage("/search go 1.23")
	cmd.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}}

	doc := textMessage("")
	doc.Caption = "summarize"
	doc.Document = &tgbotapi.Document{FileID: "d1", FileName: "a.pdf", MimeType: "application/pdf", FileSize: 100}

	photo := textMessage("")
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "small", FileSize: 10}, {FileID: "big", FileSize: 1000}}

	tests := []struct {
		name  string
		msg   *tgbotapi.Message
		check func(t *testing.T, in Inbound)
	}{
		{name: "text", msg: textMessage("hello"), check: func(t *testing.T, in Inbound) {
			if in.Text != "hello" || in.UserID != 7 || in.ChatID != 70 || in.Username != "ann" {
				t.Fatalf("unexpected inbound: %+v", in)
			}
		}},
		{name: "command", msg: cmd, check: func(t *testing.T, in Inbound) {
			if in.Command != "search" || in.Args != "go 1.23" || in.Text != "" {
				t.Fatalf("unexpected inbound: %+v", in)
			}
		}},
		{name: "document", msg: doc, check: func(t *testing.T, in Inbound) {
			a := in.Attachment
			if a == nil || a.FileID != "d1" || a.MIME != "application/pdf" || a.Name != "a.pdf" || a.Size != 100 || in.Caption != "summarize" {
				t.Fatalf("unexpected inbound: %+v / %+v", in, a)
			}
		}},
		{name: "photo picks largest", msg: photo, check: func(t *testing.T, in Inbound) {
			if in.Attachment == nil || in.Attachment.FileID != "big" || in.Attachment.MIME != "image/jpeg" {
				t.Fatalf("unexpected attachment: %+v", in.Attachment)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := ToInbound(tgbotapi.Update{UpdateID: 1, Message: tt.msg})
			if !ok {
				t.Fatal("ToInbound() ok = false")
			}
			tt.check(t, in)
		})
	}
}

func TestToInboundSkipsNonMessages(t *testing.T) {
	if _, ok := ToInbound(tgbotapi.Update{UpdateID: 1}); ok {
		t.Fatal("update without message accepted")
	}
	if _, ok := ToInbound(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}); ok {
		t.Fatal("message without sender accepted")
	}
}

func TestHandleUpdateSendsOneReply(t *testing.T) {
	out := newRecordingOutbound()
	h := NewHandler(echoService{}, out)

	h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: textMessage("ping")})

	if got := out.sent[70]; len(got) != 1 || got[0] != "echo:ping" {
		t.Fatalf("sent = %v", got)
	}
	if len(out.typing) != 1 || out.typing[0] != 70 {
		t.Fatalf("typing = %v", out.typing)
	}
}

func TestWebhookRoute(t *testing.T) {
	out := newRecordingOutbound()
	h := NewHandler(echoService{}, out)
	r := chi.NewRouter()
	RegisterRoutes(r, "/123:abc", h)

	body := `{"update_id":5,"message":{"message_id":1,"date":0,"from":{"id":7,"is_bot":false,"first_name":"Ann"},"chat":{"id":70,"type":"private"},"text":"hello"}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/123:abc", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	select {
	case <-out.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply was not sent")
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	if got := out.sent[70]; len(got) != 1 || got[0] != "echo:hello" {
		t.Fatalf("sent = %v", got)
	}
}

func TestWebhookRejectsBadJSON(t *testing.T) {
	h := NewHandler(echoService{}, newRecordingOutbound())
	r := chi.NewRouter()
	RegisterRoutes(r, "/tok", h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tok", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/other", strings.NewReader("{}")))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrong path status = %d, want 404", rec.Code)
	}
}

func documentMessage(mime, name string) *tgbotapi.Message {
	msg := textMessage("")
	msg.Document = &tgbotapi.Document{FileID: "file-1", MimeType: mime, FileName: name, FileSize: 64}
	return msg
}

// brokenRootPDF parses up to the trailer, whose /Root points at an
// object that is not valid PDF.
func brokenRootPDF() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	objOff := b.Len()
	b.WriteString("1 0 obj\ngarbage garbage\nendobj\n")
	xrefOff := b.Len()
	b.WriteString("xref\n0 2\n0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n", objOff)
	b.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return []byte(b.String())
}

func newDocumentService(ex Extractor, data []byte) Service {
	return NewService(Deps{
		Generator: answer.NewGenerator(history.NewMemoryStore(), history.NewLocker(), &fakeAI{}),
		Extractor: ex,
		Fetcher:   &fakeFetcher{data: data},
		Users:     users.NewMemoryRepo(),
	})
}

func TestHandleUpdateBrokenPDFRepliesOnce(t *testing.T) {
	out := newRecordingOutbound()
	svc := newDocumentService(extract.NewExtractor(nil, 0), brokenRootPDF())
	h := NewHandler(svc, out)

	h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: documentMessage("application/pdf", "broken.pdf")})

	if got := out.sent[70]; len(got) != 1 || got[0] != ExtractFailedText {
		t.Fatalf("sent = %v, want one %q", got, ExtractFailedText)
	}
}

type panicExtractor struct{}

func (panicExtractor) Extract(context.Context, extract.Attachment) (string, error) {
	panic("decoder blew up")
}

func (panicExtractor) MaxBytes() int { return 1024 }

func TestHandleUpdateRecoversFromPanic(t *testing.T) {
	out := newRecordingOutbound()
	h := NewHandler(newDocumentService(panicExtractor{}, []byte("%PDF")), out)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("HandleUpdate() panicked: %v", rec)
			}
		}()
		h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: documentMessage("application/pdf", "a.pdf")})
	}()

	if got := out.sent[70]; len(got) != 1 || got[0] != answer.ApologyText {
		t.Fatalf("sent = %v, want one apology", got)
	}
}

type gatedService struct {
	release chan struct{}
}

func (g gatedService) Handle(_ context.Context, in Inbound) string {
	<-g.release
	return "late:" + in.Text
}

func TestWaitDrainsDispatchedUpdates(t *testing.T) {
	out := newRecordingOutbound()
	svc := gatedService{release: make(chan struct{})}
	h := NewHandler(svc, out)

	h.Dispatch(context.Background(), tgbotapi.Update{UpdateID: 1, Message: textMessage("slow")})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() with update in flight = %v, want deadline exceeded", err)
	}

	close(svc.release)
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if got := out.sent[70]; len(got) != 1 || got[0] != "late:slow" {
		t.Fatalf("sent = %v", got)
	}
}
