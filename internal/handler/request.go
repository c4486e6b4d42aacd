package handler

import (
	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/model"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type SelectionRequest struct {
	ModelID     *model.ModelID `json:"modelId"`
	AspectRatio *string        `json:"aspectRatio"`
}

type SelectSlideRequest struct {
	SlideID string `json:"slideId" binding:"required"`
}

type AddElementRequest struct {
	Type string `json:"type" binding:"required"`
}

// PropertyRequest sets one keyed property. ElementID is ignored by the
// slide-level endpoints. A null Value clears optional style fields.
type PropertyRequest struct {
	ElementID string `json:"elementId"`
	Key       string `json:"key" binding:"required"`
	Value     any    `json:"value"`
}

type ContentRequest struct {
	ElementID string `json:"elementId" binding:"required"`
	Content   string `json:"content"`
}

type GeometryRequest struct {
	ElementID string `json:"elementId" binding:"required"`
	editor.Geometry
}

// PointerRequest carries a pointer position in canvas pixels and the live
// canvas size.
type PointerRequest struct {
	ElementID    string  `json:"elementId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
}

func (p PointerRequest) point() editor.Point { return editor.Point{X: p.X, Y: p.Y} }
func (p PointerRequest) canvas() editor.Size { return editor.Size{W: p.CanvasWidth, H: p.CanvasHeight} }

type ImproveRequest struct {
	Action string `json:"action" binding:"required"`
}

type PlaceholderRequest struct {
	SlideID     string `json:"slideId" binding:"required"`
	ElementID   string `json:"elementId"`
	AspectRatio string `json:"aspectRatio"`
}
