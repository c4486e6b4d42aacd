package model

import "time"

// ModelID identifies an AI backend. The chosen id alone decides the
// generation kind of a chat turn.
type ModelID string

const (
	ModelGeminiFlash     ModelID = "gemini-2.5-flash"
	ModelGeminiFlashLite ModelID = "gemini-2.5-flash-lite"
	ModelGeminiPro       ModelID = "gemini-3-pro-preview"
	ModelGeminiImage     ModelID = "gemini-2.5-flash-image"
	ModelVeo             ModelID = "veo-3.1-fast-generate-preview"
	ModelClaudeSonnet    ModelID = "claude-3-5-sonnet"
	ModelGPT4o           ModelID = "gpt-4o"
	ModelDoubao          ModelID = "doubao"
	ModelQwen            ModelID = "qwen"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type MetadataType string

const (
	MetadataDeckGenerated  MetadataType = "deck_generated"
	MetadataImageGenerated MetadataType = "image_generated"
	MetadataVideoGenerated MetadataType = "video_generated"
)

type MessageMetadata struct {
	Type       MetadataType `json:"type"`
	SlideCount int          `json:"slideCount,omitempty"`
	AssetURL   string       `json:"assetUrl,omitempty"`
}

type ChatMessage struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	ModelID   ModelID          `json:"modelId,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}
