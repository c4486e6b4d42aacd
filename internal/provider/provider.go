// Package provider holds the AI boundaries used by the deck workspace and
// their implementations. Every boundary degrades instead of failing: deck
// generation returns apologetic text, media generation returns "", text
// improvement returns the input.
package provider

import (
	"context"
	"fmt"

	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
)

const (
	// MediaModelReply answers deck requests sent to a media-only model.
	MediaModelReply = "Please use the Media generation tools to create Images or Videos. I am ready to generate a deck structure if you switch to Gemini Pro or Flash."
	// DeckFailureReply replaces any failed deck generation.
	DeckFailureReply = "I encountered an issue connecting to the Gemini engine. Please check your API key."

	systemInstruction = "You are an expert Presentation Architect. Generate structured slide data."
)

// DeckResult is the outcome of one deck-text turn. Slides is empty on failure.
type DeckResult struct {
	Text   string
	Slides []generation.SlideDescriptor
}

func failedDeck() DeckResult {
	return DeckResult{Text: DeckFailureReply}
}

func deckPrompt(prompt, context string) string {
	return fmt.Sprintf("Context: %s. User Request: %s. Create a presentation structure.", context, prompt)
}

type DeckGenerator interface {
	Generate(ctx context.Context, prompt string, modelID model.ModelID, context string) DeckResult
}

// ImageGenerator returns an asset URL, or "" when generation failed.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, aspectRatio string) string
}

// VideoGenerator returns an asset URL, or "" when generation failed. It may
// block while polling a long-running job.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt, aspectRatio string) string
}

type ImproveAction string

const (
	ImproveRewrite      ImproveAction = "rewrite"
	ImproveShorten      ImproveAction = "shorten"
	ImproveProfessional ImproveAction = "professional"
)

var improveInstructions = map[ImproveAction]string{
	ImproveRewrite:      "Rewrite the following text to be more engaging and clear.",
	ImproveShorten:      "Condense the following text into a concise bullet point or sentence.",
	ImproveProfessional: "Rewrite the following text to sound strictly professional and corporate.",
}

func ParseImproveAction(s string) (ImproveAction, error) {
	a := ImproveAction(s)
	if _, ok := improveInstructions[a]; !ok {
		return "", fmt.Errorf("%w: improve action %q", model.ErrInvalidValue, s)
	}
	return a, nil
}

func improvePrompt(text string, action ImproveAction) string {
	return fmt.Sprintf(`%s: "%s"`, improveInstructions[action], text)
}

// ImproveFailureSuffix marks text returned unchanged after a failed improvement.
const ImproveFailureSuffix = " (AI Updated)"

type TextImprover interface {
	Improve(ctx context.Context, text string, action ImproveAction) string
}
