package provider

import (
	"context"

	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to upstream AI APIs. One Limiter is shared by all
// boundaries that hit the same account.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter allows rps calls per second with the given burst. rps <= 0
// disables throttling.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limiter) wait(ctx context.Context, what string) bool {
	if err := l.lim.Wait(ctx); err != nil {
		logger.Warnf("%s skipped while waiting for rate limiter: %v", what, err)
		return false
	}
	return true
}

func (l *Limiter) Deck(next DeckGenerator) DeckGenerator {
	return limitedDeck{l: l, next: next}
}

// Media wraps an image or video generator; the result satisfies both.
func (l *Limiter) Media(next ImageGenerator) ImageGenerator {
	return limitedMedia{l: l, next: next}
}

func (l *Limiter) Improver(next TextImprover) TextImprover {
	return limitedImprover{l: l, next: next}
}

type limitedDeck struct {
	l    *Limiter
	next DeckGenerator
}

func (d limitedDeck) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) DeckResult {
	if !d.l.wait(ctx, "deck generation") {
		return failedDeck()
	}
	return d.next.Generate(ctx, prompt, modelID, deckContext)
}

type limitedMedia struct {
	l    *Limiter
	next ImageGenerator
}

func (m limitedMedia) Generate(ctx context.Context, prompt, aspectRatio string) string {
	if !m.l.wait(ctx, "media generation") {
		return ""
	}
	return m.next.Generate(ctx, prompt, aspectRatio)
}

type limitedImprover struct {
	l    *Limiter
	next TextImprover
}

func (i limitedImprover) Improve(ctx context.Context, text string, action ImproveAction) string {
	if !i.l.wait(ctx, "text improvement") {
		return text + ImproveFailureSuffix
	}
	return i.next.Improve(ctx, text, action)
}
