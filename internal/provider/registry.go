package provider

import (
	"errors"
	"fmt"
	"slices"

	"devdecks-backend/internal/model"
)

var (
	ErrUnknownModel       = errors.New("unknown model")
	ErrInvalidAspectRatio = errors.New("aspect ratio not supported by model")
)

// Kind is the generation mode a model id selects.
type Kind string

const (
	KindDeckText Kind = "deck"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
)

type ModelInfo struct {
	ID           model.ModelID `json:"id"`
	Name         string        `json:"name"`
	Provider     string        `json:"provider"`
	Description  string        `json:"description"`
	Latency      string        `json:"latency"`
	CostPerToken float64       `json:"costPerToken"`
	Kind         Kind          `json:"kind"`
}

var registry = []ModelInfo{
	{ID: model.ModelGeminiFlash, Name: "Gemini 2.5 Flash", Provider: "Google", Description: "Balanced Performance", Latency: "Low", CostPerToken: 1, Kind: KindDeckText},
	{ID: model.ModelGeminiFlashLite, Name: "Gemini 2.5 Flash Lite", Provider: "Google", Description: "Fastest Responses", Latency: "Low", CostPerToken: 0.5, Kind: KindDeckText},
	{ID: model.ModelGeminiPro, Name: "Gemini 3 Pro", Provider: "Google", Description: "Thinking Mode (Reasoning)", Latency: "Medium", CostPerToken: 3, Kind: KindDeckText},
	{ID: model.ModelGeminiImage, Name: "Gemini 3 Pro Image", Provider: "Google", Description: "High Fidelity Images", Latency: "Medium", CostPerToken: 2, Kind: KindImage},
	{ID: model.ModelVeo, Name: "Veo 3.1 Video", Provider: "Google", Description: "Fast Video Generation", Latency: "High", CostPerToken: 10, Kind: KindVideo},
	{ID: model.ModelClaudeSonnet, Name: "Claude 3.5 Sonnet", Provider: "Anthropic", Description: "Long-form Narrative", Latency: "Medium", CostPerToken: 3, Kind: KindDeckText},
	{ID: model.ModelGPT4o, Name: "GPT-4o", Provider: "OpenAI", Description: "General Purpose", Latency: "Medium", CostPerToken: 2.5, Kind: KindDeckText},
	{ID: model.ModelDoubao, Name: "Doubao", Provider: "ByteDance", Description: "Ark Chat Completion", Latency: "Low", CostPerToken: 0.8, Kind: KindDeckText},
	{ID: model.ModelQwen, Name: "Qwen", Provider: "Alibaba", Description: "DashScope Chat Completion", Latency: "Low", CostPerToken: 0.8, Kind: KindDeckText},
}

func Models() []ModelInfo {
	return slices.Clone(registry)
}

func Lookup(id model.ModelID) (ModelInfo, error) {
	for _, m := range registry {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

// KindOf defaults to deck text for ids outside the registry, the same path
// the router takes for them.
func KindOf(id model.ModelID) Kind {
	if m, err := Lookup(id); err == nil {
		return m.Kind
	}
	return KindDeckText
}

var (
	imageRatios = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "4:5", "5:4", "9:16", "16:9", "21:9"}
	videoRatios = []string{"16:9", "9:16"}
)

// AspectRatios lists the ratios selectable for a kind. Deck text has none.
func AspectRatios(k Kind) []string {
	switch k {
	case KindImage:
		return slices.Clone(imageRatios)
	case KindVideo:
		return slices.Clone(videoRatios)
	}
	return nil
}

func DefaultAspectRatio(k Kind) string {
	switch k {
	case KindImage:
		return "1:1"
	case KindVideo:
		return "16:9"
	}
	return ""
}

func AllowsAspectRatio(k Kind, ratio string) bool {
	switch k {
	case KindImage:
		return slices.Contains(imageRatios, ratio)
	case KindVideo:
		return slices.Contains(videoRatios, ratio)
	}
	return false
}
