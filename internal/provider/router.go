package provider

import (
	"context"

	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"
)

// DeckRouter picks the deck generator for a model id. Ids without a
// configured route go to the fallback, the Gemini deck generator when a key
// is present.
type DeckRouter struct {
	routes   map[model.ModelID]DeckGenerator
	fallback DeckGenerator
}

func NewDeckRouter(fallback DeckGenerator) *DeckRouter {
	return &DeckRouter{routes: make(map[model.ModelID]DeckGenerator), fallback: fallback}
}

func (r *DeckRouter) Route(id model.ModelID, g DeckGenerator) {
	r.routes[id] = g
}

func (r *DeckRouter) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) DeckResult {
	if KindOf(modelID) != KindDeckText {
		return DeckResult{Text: MediaModelReply}
	}
	if g, ok := r.routes[modelID]; ok {
		return g.Generate(ctx, prompt, modelID, deckContext)
	}
	if r.fallback == nil {
		logger.Warnf("no deck generator configured for %s", modelID)
		return failedDeck()
	}
	return r.fallback.Generate(ctx, prompt, modelID, deckContext)
}

// NoMedia stands in for an unconfigured image or video backend.
type NoMedia struct{}

func (NoMedia) Generate(ctx context.Context, prompt, aspectRatio string) string {
	logger.Warnf("media generation requested but no backend is configured")
	return ""
}

// NoImprover stands in for an unconfigured text improvement backend.
type NoImprover struct{}

func (NoImprover) Improve(ctx context.Context, text string, action ImproveAction) string {
	return text + ImproveFailureSuffix
}
