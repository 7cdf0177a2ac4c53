package bot

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/answer"
)

type Handler struct {
	svc Service
	out Outbound

	inflight sync.WaitGroup
}

func NewHandler(svc Service, out Outbound) *Handler {
	return &Handler{svc: svc, out: out}
}

// HandleWebhook accepts updates pushed by Telegram.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// Telegram redelivers updates it does not get a 200 for quickly, so
	// the answer is produced in the background.
	h.Dispatch(context.WithoutCancel(r.Context()), update)

	w.WriteHeader(http.StatusOK)
}

// Dispatch handles update on its own goroutine and tracks it for Wait.
func (h *Handler) Dispatch(ctx context.Context, update tgbotapi.Update) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.HandleUpdate(ctx, update)
	}()
}

// Wait blocks until every dispatched update has been answered or ctx is
// done, whichever comes first.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdate processes one update and sends the single reply.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := ToInbound(update)
	if !ok {
		return
	}

	if err := h.out.SendTyping(ctx, in.ChatID); err != nil {
		log.Printf("[bot] typing chat=%d: %v", in.ChatID, err)
	}

	reply := h.reply(ctx, in)

	if err := h.out.SendText(ctx, in.ChatID, reply); err != nil {
		log.Printf("[bot] send chat=%d: %v", in.ChatID, err)
	}
}

// reply runs the service, turning a panic into the apology so the user
// still gets exactly one answer.
func (h *Handler) reply(ctx context.Context, in Inbound) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[bot] panic user=%d chat=%d: %v", in.UserID, in.ChatID, rec)
			text = answer.ApologyText
		}
	}()
	return h.svc.Handle(ctx, in)
}

// ToInbound converts a Telegram update. Updates without a user message
// (channel posts, edits, callbacks) are skipped.
func ToInbound(update tgbotapi.Update) (Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return Inbound{}, false
	}

	in := Inbound{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		Caption:   msg.Caption,
	}

	switch {
	case msg.IsCommand():
		in.Command = msg.Command()
		in.Args = msg.CommandArguments()
	case msg.Document != nil:
		in.Attachment = &AttachmentRef{
			FileID: msg.Document.FileID,
			MIME:   msg.Document.MimeType,
			Name:   msg.Document.FileName,
			Size:   msg.Document.FileSize,
		}
	case len(msg.Photo) > 0:
		// sizes are ascending; the last one is the original resolution
		p := msg.Photo[len(msg.Photo)-1]
		in.Attachment = &AttachmentRef{
			FileID: p.FileID,
			MIME:   "image/jpeg",
			Size:   p.FileSize,
		}
	default:
		in.Text = msg.Text
	}
	return in, true
}
