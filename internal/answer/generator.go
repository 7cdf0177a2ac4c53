// Package answer runs one question through the language model with the
// user's conversation history as context.
package answer

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/ai"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/history"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/observability"
)

// ApologyText is returned instead of a reply when the model call fails.
const ApologyText = "Sorry, I couldn't process your request right now. Please try again later."

type Generator struct {
	store        history.Store
	locks        *history.Locker
	ai           ai.AI
	systemPrompt string
	maxTurns     int
	metrics      *observability.Metrics
}

type Option func(*Generator)

func WithSystemPrompt(p string) Option {
	return func(g *Generator) { g.systemPrompt = strings.TrimSpace(p) }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

func NewGenerator(store history.Store, locks *history.Locker, aiClient ai.AI, opts ...Option) *Generator {
	if locks == nil {
		locks = history.NewLocker()
	}
	g := &Generator{
		store:    store,
		locks:    locks,
		ai:       aiClient,
		maxTurns: history.MaxTurns,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate answers input for userID. History gains the user turn and the
// reply only when the model call succeeds; on failure it is left as it
// was and ApologyText is returned.
func (g *Generator) Generate(ctx context.Context, userID int64, input string) string {
	return g.GenerateWithContext(ctx, userID, input, "")
}

// GenerateWithContext is Generate with an extra system block (search
// results, for instance) sent to the model but not kept in history.
func (g *Generator) GenerateWithContext(ctx context.Context, userID int64, input, extra string) string {
	unlock := g.locks.Lock(userID)
	defer unlock()

	turns, err := g.store.Get(ctx, userID)
	if err != nil {
		log.Printf("[answer] user=%d load history: %v", userID, err)
		return ApologyText
	}

	userTurn := history.NewTurn(history.RoleUser, input)
	msgs := g.buildMessages(turns, userTurn, extra)

	start := time.Now()
	reply, err := g.ai.GetReply(ctx, msgs)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ai.ErrEmptyReply
	}
	g.metrics.ObserveGeneration(time.Since(start), err)
	if err != nil {
		log.Printf("[answer] user=%d generation failed: %v", userID, err)
		return ApologyText
	}

	if err := g.store.Append(ctx, userID, userTurn, history.NewTurn(history.RoleAssistant, reply)); err != nil {
		log.Printf("[answer] user=%d save history: %v", userID, err)
		return reply
	}
	if err := g.store.Truncate(ctx, userID, g.maxTurns); err != nil {
		log.Printf("[answer] user=%d truncate history: %v", userID, err)
	}

	log.Printf("[answer] user=%d replied in %v (history=%d)", userID, time.Since(start), min(len(turns)+2, g.maxTurns))
	return reply
}

// Clear drops the whole history of userID.
func (g *Generator) Clear(ctx context.Context, userID int64) error {
	unlock := g.locks.Lock(userID)
	defer unlock()
	return g.store.Truncate(ctx, userID, 0)
}

// Turns reports how many turns are held for userID.
func (g *Generator) Turns(ctx context.Context, userID int64) (int, error) {
	turns, err := g.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(turns), nil
}

func (g *Generator) buildMessages(turns []history.Turn, next history.Turn, extra string) []ai.Message {
	msgs := make([]ai.Message, 0, len(turns)+3)
	if g.systemPrompt != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Text: g.systemPrompt})
	}
	for _, t := range turns {
		msgs = append(msgs, ai.Message{Role: string(t.Role), Text: t.Text})
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Text: extra})
	}
	return append(msgs, ai.Message{Role: string(next.Role), Text: next.Text})
}
