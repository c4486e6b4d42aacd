package model

import (
	"encoding/json"
	"fmt"
)

type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
	ElementVideo ElementType = "video"
	ElementAudio ElementType = "audio"
	ElementChart ElementType = "chart"
)

func ParseElementType(s string) (ElementType, error) {
	switch t := ElementType(s); t {
	case ElementText, ElementImage, ElementVideo, ElementAudio, ElementChart:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownElementType, s)
}

// Content is the payload of an element. The variant decides the element type,
// so a text body can never be read as a media URL.
type Content interface {
	Type() ElementType
	// Payload is the wire string: literal text, a URL or a chart spec.
	Payload() string
	withPayload(string) Content
}

type TextContent struct {
	Text string
}

func (TextContent) Type() ElementType              { return ElementText }
func (c TextContent) Payload() string              { return c.Text }
func (c TextContent) withPayload(s string) Content { return TextContent{Text: s} }

// ImageContent is a placeholder while URL is empty. Prompt keeps the visual
// suggestion the placeholder was generated from.
type ImageContent struct {
	URL    string
	Prompt string
}

func (ImageContent) Type() ElementType { return ElementImage }
func (c ImageContent) Payload() string { return c.URL }
func (c ImageContent) withPayload(s string) Content {
	return ImageContent{URL: s, Prompt: c.Prompt}
}

type VideoContent struct {
	URL string
}

func (VideoContent) Type() ElementType              { return ElementVideo }
func (c VideoContent) Payload() string              { return c.URL }
func (c VideoContent) withPayload(s string) Content { return VideoContent{URL: s} }

type AudioContent struct {
	URL string
}

func (AudioContent) Type() ElementType              { return ElementAudio }
func (c AudioContent) Payload() string              { return c.URL }
func (c AudioContent) withPayload(s string) Content { return AudioContent{URL: s} }

type ChartContent struct {
	Spec string
}

func (ChartContent) Type() ElementType              { return ElementChart }
func (c ChartContent) Payload() string              { return c.Spec }
func (c ChartContent) withPayload(s string) Content { return ChartContent{Spec: s} }

// NewContent builds the variant for t around a wire payload.
func NewContent(t ElementType, payload string) (Content, error) {
	switch t {
	case ElementText:
		return TextContent{Text: payload}, nil
	case ElementImage:
		return ImageContent{URL: payload}, nil
	case ElementVideo:
		return VideoContent{URL: payload}, nil
	case ElementAudio:
		return AudioContent{URL: payload}, nil
	case ElementChart:
		return ChartContent{Spec: payload}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, t)
}

// Element is positioned in percentage-of-canvas units: X, Y, W and H are
// relative to the canvas bounding box, nominally within [0,100].
type Element struct {
	ID        string
	Content   Content
	X         float64
	Y         float64
	W         float64
	H         float64
	Style     *ElementStyle
	Animation *AnimationSettings
}

func (e *Element) Type() ElementType {
	if e.Content == nil {
		return ElementText
	}
	return e.Content.Type()
}

// SetPayload replaces the payload and keeps the variant.
func (e *Element) SetPayload(payload string) {
	if e.Content == nil {
		e.Content = TextContent{Text: payload}
		return
	}
	e.Content = e.Content.withPayload(payload)
}

// IsPlaceholder reports an image element still waiting for its asset.
func (e *Element) IsPlaceholder() bool {
	img, ok := e.Content.(ImageContent)
	return ok && img.URL == ""
}

// EffectiveAnimation applies the default when no animation was configured.
func (e *Element) EffectiveAnimation() AnimationSettings {
	if e.Animation == nil {
		return DefaultAnimation()
	}
	return *e.Animation
}

func (e Element) Clone() Element {
	c := e
	c.Style = e.Style.Clone()
	c.Animation = clonePtr(e.Animation)
	return c
}

type elementJSON struct {
	ID        string             `json:"id"`
	Type      ElementType        `json:"type"`
	Content   string             `json:"content"`
	Prompt    string             `json:"prompt,omitempty"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	W         float64            `json:"w"`
	H         float64            `json:"h"`
	Style     *ElementStyle      `json:"style,omitempty"`
	Animation *AnimationSettings `json:"animation,omitempty"`
}

func (e Element) MarshalJSON() ([]byte, error) {
	w := elementJSON{
		ID:        e.ID,
		Type:      e.Type(),
		X:         e.X,
		Y:         e.Y,
		W:         e.W,
		H:         e.H,
		Style:     e.Style,
		Animation: e.Animation,
	}
	if e.Content != nil {
		w.Content = e.Content.Payload()
	}
	if img, ok := e.Content.(ImageContent); ok {
		w.Prompt = img.Prompt
	}
	return json.Marshal(w)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var w elementJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := ParseElementType(string(w.Type))
	if err != nil {
		return err
	}
	content, _ := NewContent(t, w.Content)
	if img, ok := content.(ImageContent); ok {
		img.Prompt = w.Prompt
		content = img
	}
	*e = Element{
		ID:        w.ID,
		Content:   content,
		X:         w.X,
		Y:         w.Y,
		W:         w.W,
		H:         w.H,
		Style:     w.Style,
		Animation: w.Animation,
	}
	return nil
}
