package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/answer"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/extract"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/history"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/observability"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/search"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/users"
)

type service struct {
	gen       *answer.Generator
	extractor Extractor
	fetcher   Fetcher
	users     users.Repo
	searcher  search.Searcher
	adminID   int64
	metrics   *observability.Metrics
}

type Deps struct {
	Generator *answer.Generator
	Extractor Extractor
	Fetcher   Fetcher
	Users     users.Repo
	Searcher  search.Searcher // nil disables search
	AdminID   int64
	Metrics   *observability.Metrics
}

func NewService(d Deps) Service {
	if d.Users == nil {
		d.Users = users.NewMemoryRepo()
	}
	return &service{
		gen:       d.Generator,
		extractor: d.Extractor,
		fetcher:   d.Fetcher,
		users:     d.Users,
		searcher:  d.Searcher,
		adminID:   d.AdminID,
		metrics:   d.Metrics,
	}
}

func (s *service) Handle(ctx context.Context, in Inbound) string {
	if err := s.users.Touch(ctx, users.User{ID: in.UserID, Username: in.Username, FirstName: in.FirstName}); err != nil {
		log.Printf("[users] touch %d: %v", in.UserID, err)
	}

	switch {
	case in.Command != "":
		s.metrics.IncMessage("command")
		return s.handleCommand(ctx, in)
	case in.Attachment != nil:
		return s.handleAttachment(ctx, in)
	case strings.TrimSpace(in.Text) != "":
		s.metrics.IncMessage("text")
		log.Printf("[bot] user=%d text=%q", in.UserID, short(in.Text))
		return s.gen.Generate(ctx, in.UserID, in.Text)
	}

	s.metrics.IncMessage("unsupported")
	return UnsupportedInputText
}

func (s *service) handleCommand(ctx context.Context, in Inbound) string {
	switch in.Command {
	case "start", "help":
		return HelpText

	case "clear":
		if err := s.gen.Clear(ctx, in.UserID); err != nil {
			log.Printf("[bot] clear user=%d: %v", in.UserID, err)
			return answer.ApologyText
		}
		return ClearedText

	case "stats":
		return s.stats(ctx, in.UserID)

	case "search":
		query := strings.TrimSpace(in.Args)
		if query == "" {
			return SearchUsageText
		}
		return s.searchAndAnswer(ctx, in.UserID, query)

	case "users":
		if !s.isAdmin(in.UserID) {
			return NotAllowedText
		}
		n, err := s.users.Count(ctx)
		if err != nil {
			log.Printf("[users] count: %v", err)
			return answer.ApologyText
		}
		return fmt.Sprintf("Known users: %d", n)
	}

	return UnknownCommandText
}

func (s *service) isAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

func (s *service) stats(ctx context.Context, userID int64) string {
	turns, err := s.gen.Turns(ctx, userID)
	if err != nil {
		log.Printf("[bot] stats turns user=%d: %v", userID, err)
	}

	var b strings.Builder
	b.WriteString("Your statistics\n\n")
	fmt.Fprintf(&b, "Messages in memory: %d/%d\n", turns, history.MaxTurns)
	if u, err := s.users.Get(ctx, userID); err == nil {
		fmt.Fprintf(&b, "Messages sent: %d\n", u.Messages)
		fmt.Fprintf(&b, "First seen: %s\n", u.FirstSeen.Format("2006-01-02"))
	}
	if s.isAdmin(userID) {
		if n, err := s.users.Count(ctx); err == nil {
			fmt.Fprintf(&b, "Known users: %d\n", n)
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *service) searchAndAnswer(ctx context.Context, userID int64, query string) string {
	if s.searcher == nil {
		return s.gen.Generate(ctx, userID, query)
	}

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		log.Printf("[search] user=%d query=%q: %v", userID, short(query), err)
		return s.gen.Generate(ctx, userID, query)
	}
	log.Printf("[search] user=%d query=%q results=%d", userID, short(query), len(results))
	return s.gen.GenerateWithContext(ctx, userID, query, search.Format(results))
}

func (s *service) handleAttachment(ctx context.Context, in Inbound) string {
	ref := in.Attachment
	kind := extract.KindOf(ref.MIME, ref.Name)
	if kind == extract.KindUnknown {
		s.metrics.IncMessage("unsupported")
		return extract.UnsupportedText
	}
	s.metrics.IncMessage(string(kind))

	limit := s.extractor.MaxBytes()
	if ref.Size > limit {
		return TooLargeText
	}

	data, err := s.fetcher.Fetch(ctx, ref.FileID, limit)
	if errors.Is(err, extract.ErrTooLarge) {
		return TooLargeText
	}
	if err != nil {
		log.Printf("[bot] user=%d download %s: %v", in.UserID, ref.FileID, err)
		return DownloadFailedText
	}

	text, err := s.extractor.Extract(ctx, extract.Attachment{
		Kind: kind,
		MIME: ref.MIME,
		Name: ref.Name,
		Data: data,
	})
	switch {
	case errors.Is(err, extract.ErrUnsupportedKind):
		return extract.UnsupportedText
	case errors.Is(err, extract.ErrTooLarge):
		return TooLargeText
	case err != nil:
		s.metrics.IncExtractionError(string(kind))
		log.Printf("[extract] user=%d kind=%s name=%q: %v", in.UserID, kind, ref.Name, err)
		return ExtractFailedText
	}

	if strings.TrimSpace(text) == "" {
		return EmptyExtractText
	}
	log.Printf("[bot] user=%d %s extracted chars=%d", in.UserID, kind, len(text))

	return s.gen.Generate(ctx, in.UserID, attachmentInput(kind, ref.Name, in.Caption, text))
}

func attachmentInput(kind extract.Kind, name, caption, text string) string {
	question := strings.TrimSpace(caption)
	if question == "" {
		question = defaultImageQuestion
		if kind == extract.KindPDF {
			question = defaultPDFQuestion
		}
	}

	label := string(kind)
	if name != "" {
		label += " " + name
	}

	if r := []rune(text); len(r) > maxAttachmentRunes {
		text = string(r[:maxAttachmentRunes]) + truncatedNote
	}
	return fmt.Sprintf(attachmentTemplate, question, label, text)
}

func short(s string) string {
	if r := []rune(s); len(r) > 180 {
		return string(r[:180]) + "..."
	}
	return s
}
