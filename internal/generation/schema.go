package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FallbackSummary is used when the model returns slides without a message.
const FallbackSummary = "I've drafted the deck structure for you."

var ErrMalformedOutput = errors.New("malformed deck output")

// DeckResponse is the structured output requested from deck-text models.
type DeckResponse struct {
	ConversationalSummary string            `json:"conversationalSummary"`
	Slides                []SlideDescriptor `json:"slides"`
}

// Summary returns the assistant text for the chat transcript.
func (r DeckResponse) Summary() string {
	if strings.TrimSpace(r.ConversationalSummary) == "" {
		return FallbackSummary
	}
	return r.ConversationalSummary
}

type SlideDescriptor struct {
	ID               string `json:"id,omitempty"`
	Title            string `json:"title"`
	ContentSummary   string `json:"contentSummary"`
	VisualSuggestion string `json:"visualSuggestion,omitempty"`
}

// JSONSchema describes DeckResponse. Chat-completion providers receive it in
// the prompt; Parse validates every answer against it.
const JSONSchema = `{
  "type": "object",
  "properties": {
    "conversationalSummary": {
      "type": "string",
      "description": "A friendly message to the user explaining what was created."
    },
    "slides": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string"},
          "contentSummary": {
            "type": "string",
            "description": "Bullet points or main text for the slide"
          },
          "visualSuggestion": {
            "type": "string",
            "description": "A prompt for an image that would fit this slide"
          }
        }
      }
    }
  }
}`

const schemaURL = "https://devdecks.local/schemas/deck-response.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func deckSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(JSONSchema)); err != nil {
			compileErr = fmt.Errorf("deck schema load failed: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Parse decodes raw model output. Markdown code fences are tolerated since
// chat models add them even when asked for bare JSON. Empty output decodes to
// an empty response, matching a model that had nothing to add.
func Parse(raw string) (DeckResponse, error) {
	text := stripFences(raw)
	if text == "" {
		text = "{}"
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return DeckResponse{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	schema, err := deckSchema()
	if err != nil {
		return DeckResponse{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return DeckResponse{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var resp DeckResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return DeckResponse{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return resp, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
