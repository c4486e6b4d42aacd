// Package editor implements direct manipulation of a deck: slide and element
// selection, property edits and pointer dragging in percentage space.
//
// An Editor is not safe for concurrent use. Callers that share the deck with
// another writer must serialize access themselves.
package editor

import (
	"fmt"
	"strings"

	"devdecks-backend/internal/model"

	"github.com/google/uuid"
)

// Point is a pointer position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the live bounding box of the rendering canvas in pixels.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func (s Size) valid() bool { return s.W > 0 && s.H > 0 }

// State is the editor's selection snapshot. An empty SelectedElementID means
// the slide property panel is shown.
type State struct {
	ActiveSlideID     string `json:"activeSlideId"`
	SelectedElementID string `json:"selectedElementId"`
	Dragging          bool   `json:"dragging"`
}

// Geometry carries an optional replacement for each coordinate.
type Geometry struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	W *float64 `json:"w,omitempty"`
	H *float64 `json:"h,omitempty"`
}

type Editor struct {
	deck *model.Deck

	activeSlideID     string
	selectedElementID string
	dragging          bool
	lastPointer       Point

	newID func(prefix string) string
}

type Option func(*Editor)

// WithIDGenerator replaces the id source for new slides and elements.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Editor) { e.newID = fn }
}

func defaultID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// New opens an editor on deck with the first slide active.
func New(deck *model.Deck, opts ...Option) *Editor {
	e := &Editor{deck: deck, newID: defaultID}
	for _, opt := range opts {
		opt(e)
	}
	if len(*deck) > 0 {
		e.activeSlideID = (*deck)[0].ID
	}
	return e
}

func (e *Editor) State() State {
	return State{
		ActiveSlideID:     e.activeSlideID,
		SelectedElementID: e.selectedElementID,
		Dragging:          e.dragging,
	}
}

// ActiveSlide returns nil when no slide is active or it no longer exists.
func (e *Editor) ActiveSlide() *model.Slide {
	if e.activeSlideID == "" {
		return nil
	}
	return e.deck.Find(e.activeSlideID)
}

// SelectedElement returns nil when nothing is selected or the selection went stale.
func (e *Editor) SelectedElement() *model.Element {
	if e.selectedElementID == "" {
		return nil
	}
	return e.Element(e.selectedElementID)
}

// Element looks up an element on the active slide.
func (e *Editor) Element(id string) *model.Element {
	s := e.ActiveSlide()
	if s == nil {
		return nil
	}
	return s.Element(id)
}

// SelectSlide switches the active slide. The element selection survives only
// if the element exists on the new slide.
func (e *Editor) SelectSlide(id string) bool {
	if e.deck.Find(id) == nil {
		return false
	}
	e.activeSlideID = id
	if e.selectedElementID != "" && e.Element(e.selectedElementID) == nil {
		e.clearSelection()
	}
	return true
}

// AdoptSlide activates id only when no live slide is active. Used after
// generated slides are appended so an open editor keeps its place.
func (e *Editor) AdoptSlide(id string) bool {
	if e.ActiveSlide() != nil {
		return false
	}
	return e.SelectSlide(id)
}

// AddSlide appends a blank slide and activates it.
func (e *Editor) AddSlide() model.Slide {
	s := model.NewBlankSlide(e.newID("slide"), e.newID("title"))
	e.deck.Append(s)
	e.activeSlideID = s.ID
	e.clearSelection()
	return s
}

// DeleteSlide removes a slide. When it was active the following slide, or
// else the previous one, becomes active.
func (e *Editor) DeleteSlide(id string) bool {
	idx := e.deck.Index(id)
	if idx < 0 {
		return false
	}
	e.deck.Remove(id)
	if e.activeSlideID != id {
		return true
	}

	e.clearSelection()
	switch {
	case len(*e.deck) == 0:
		e.activeSlideID = ""
	case idx < len(*e.deck):
		e.activeSlideID = (*e.deck)[idx].ID
	default:
		e.activeSlideID = (*e.deck)[idx-1].ID
	}
	return true
}

// AddElement appends an element with the defaults for t to the active slide
// and selects it. Without an active slide it does nothing and returns "".
func (e *Editor) AddElement(t model.ElementType) (string, error) {
	s := e.ActiveSlide()
	if s == nil {
		return "", nil
	}
	el, err := model.NewElement(e.newID("el"), t, len(s.Elements)+1)
	if err != nil {
		return "", err
	}
	s.Elements = append(s.Elements, el)
	e.selectedElementID = el.ID
	return el.ID, nil
}

func (e *Editor) UpdateElementStyle(elementID string, key model.StyleKey, value any) error {
	el := e.Element(elementID)
	if el == nil {
		return nil
	}
	style := el.Style.Clone()
	if style == nil {
		style = &model.ElementStyle{}
	}
	if err := style.Set(key, value); err != nil {
		return err
	}
	el.Style = style
	return nil
}

func (e *Editor) UpdateElementAnimation(elementID string, key model.AnimationKey, value any) error {
	el := e.Element(elementID)
	if el == nil {
		return nil
	}
	anim := el.EffectiveAnimation()
	if err := anim.Set(key, value); err != nil {
		return err
	}
	el.Animation = &anim
	return nil
}

// UpdateElementContent replaces the text, URL or spec of an element without
// changing its type.
func (e *Editor) UpdateElementContent(elementID, payload string) bool {
	el := e.Element(elementID)
	if el == nil {
		return false
	}
	el.SetPayload(payload)
	return true
}

// UpdateElementGeometry applies a resize or nudge. Sizes must stay positive;
// positions are free.
func (e *Editor) UpdateElementGeometry(elementID string, g Geometry) error {
	if (g.W != nil && *g.W <= 0) || (g.H != nil && *g.H <= 0) {
		return fmt.Errorf("%w: element size must be positive", model.ErrInvalidValue)
	}
	el := e.Element(elementID)
	if el == nil {
		return nil
	}
	if g.X != nil {
		el.X = *g.X
	}
	if g.Y != nil {
		el.Y = *g.Y
	}
	if g.W != nil {
		el.W = *g.W
	}
	if g.H != nil {
		el.H = *g.H
	}
	return nil
}

func (e *Editor) UpdateSlideProperty(key model.SlideKey, value any) error {
	s := e.ActiveSlide()
	if s == nil {
		return nil
	}
	return s.Set(key, value)
}

func (e *Editor) UpdateSlideTransition(key model.TransitionKey, value any) error {
	s := e.ActiveSlide()
	if s == nil {
		return nil
	}
	tr := s.EffectiveTransition()
	if err := tr.Set(key, value); err != nil {
		return err
	}
	s.Transition = &tr
	return nil
}

// DeleteSelectedElement removes the selected element and always leaves the
// selection empty.
func (e *Editor) DeleteSelectedElement() bool {
	id := e.selectedElementID
	if id == "" {
		return false
	}
	e.clearSelection()
	s := e.ActiveSlide()
	if s == nil {
		return false
	}
	return s.RemoveElement(id)
}

// ClickElement selects an element. The click is consumed here and never
// reaches the canvas background handler.
func (e *Editor) ClickElement(id string) bool {
	if e.Element(id) == nil {
		return false
	}
	e.selectedElementID = id
	return true
}

// ClickCanvas handles a click on the canvas background.
func (e *Editor) ClickCanvas() {
	e.clearSelection()
}

// ClickAt resolves a pixel click to the topmost element under it, or to the
// background when nothing is hit.
func (e *Editor) ClickAt(p Point, canvas Size) string {
	s := e.ActiveSlide()
	if s == nil || !canvas.valid() {
		e.ClickCanvas()
		return ""
	}
	hit := s.TopmostAt(p.X/canvas.W*100, p.Y/canvas.H*100)
	if hit == nil {
		e.ClickCanvas()
		return ""
	}
	e.ClickElement(hit.ID)
	return hit.ID
}

// BeginDrag selects the element and records the pointer. Nothing moves yet.
func (e *Editor) BeginDrag(elementID string, p Point) bool {
	if e.Element(elementID) == nil {
		return false
	}
	e.selectedElementID = elementID
	e.dragging = true
	e.lastPointer = p
	return true
}

// DragTo moves the selected element by the pointer delta since the previous
// event, converted to percent of the live canvas size. Motion is integrated
// per event and is not clamped to the canvas bounds.
func (e *Editor) DragTo(p Point, canvas Size) bool {
	if !e.dragging || !canvas.valid() {
		return false
	}
	el := e.SelectedElement()
	if el == nil {
		return false
	}
	el.X += (p.X - e.lastPointer.X) / canvas.W * 100
	el.Y += (p.Y - e.lastPointer.Y) / canvas.H * 100
	e.lastPointer = p
	return true
}

// EndDrag is safe to call at any time, including after the pointer left
// the canvas.
func (e *Editor) EndDrag() {
	e.dragging = false
}

func (e *Editor) clearSelection() {
	e.selectedElementID = ""
	e.dragging = false
}
