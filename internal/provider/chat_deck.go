package provider

import (
	"context"

	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const jsonOnlyInstruction = "\nRespond with a single JSON object and nothing else. It must match this JSON Schema:\n"

// ChatDeck generates decks through any eino chat model. Chat-completion APIs
// have no response schema parameter, so the schema rides in the system prompt
// and the answer is validated by generation.Parse.
type ChatDeck struct {
	chat einoModel.BaseChatModel
	name string
}

func NewChatDeck(name string, chat einoModel.BaseChatModel) *ChatDeck {
	return &ChatDeck{chat: chat, name: name}
}

func (c *ChatDeck) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) DeckResult {
	messages := []*schema.Message{
		schema.SystemMessage(systemInstruction + jsonOnlyInstruction + generation.JSONSchema),
		schema.UserMessage(deckPrompt(prompt, deckContext)),
	}

	resp, err := c.chat.Generate(ctx, messages)
	if err != nil {
		logger.WithFields(logger.Fields{"provider": c.name, "model": modelID}).Errorf("deck generation failed: %v", err)
		return failedDeck()
	}
	if resp == nil {
		return failedDeck()
	}

	parsed, err := generation.Parse(resp.Content)
	if err != nil {
		logger.WithFields(logger.Fields{"provider": c.name, "model": modelID}).Warnf("deck output rejected: %v", err)
		return failedDeck()
	}
	return DeckResult{Text: parsed.Summary(), Slides: parsed.Slides}
}
