package model

import (
	"fmt"

	"github.com/spf13/cast"
)

type Slide struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Elements   []Element        `json:"elements"`
	Notes      *string          `json:"notes,omitempty"`
	Theme      *string          `json:"theme,omitempty"`
	Background *string          `json:"background,omitempty"`
	Transition *SlideTransition `json:"transition,omitempty"`
}

// SlideKey names a scalar slide property editable from the slide panel.
type SlideKey string

const (
	SlideTitle      SlideKey = "title"
	SlideNotes      SlideKey = "notes"
	SlideTheme      SlideKey = "theme"
	SlideBackground SlideKey = "background"
)

func ParseSlideKey(s string) (SlideKey, error) {
	switch k := SlideKey(s); k {
	case SlideTitle, SlideNotes, SlideTheme, SlideBackground:
		return k, nil
	}
	return "", fmt.Errorf("%w: slide %q", ErrUnknownKey, s)
}

// Set replaces one property. Optional properties are cleared by nil; the
// title is required.
func (s *Slide) Set(key SlideKey, value any) error {
	var str *string
	if value != nil {
		v, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: slide %s %v", ErrInvalidValue, key, value)
		}
		str = &v
	}
	switch key {
	case SlideTitle:
		if str == nil {
			return fmt.Errorf("%w: slide title cannot be empty", ErrInvalidValue)
		}
		s.Title = *str
	case SlideNotes:
		s.Notes = str
	case SlideTheme:
		s.Theme = str
	case SlideBackground:
		s.Background = str
	default:
		return fmt.Errorf("%w: slide %q", ErrUnknownKey, key)
	}
	return nil
}

func (s *Slide) Element(id string) *Element {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i]
		}
	}
	return nil
}

func (s *Slide) RemoveElement(id string) bool {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
			return true
		}
	}
	return false
}

// TopmostAt returns the highest-z element whose box contains the point, the
// one a click at (x, y) percent would select.
func (s *Slide) TopmostAt(x, y float64) *Element {
	var hit *Element
	for i := range s.Elements {
		el := &s.Elements[i]
		if x < el.X || x > el.X+el.W || y < el.Y || y > el.Y+el.H {
			continue
		}
		// Later elements win ties, matching paint order.
		if hit == nil || el.Style.Z() >= hit.Style.Z() {
			hit = el
		}
	}
	return hit
}

func (s *Slide) EffectiveTransition() SlideTransition {
	if s.Transition == nil {
		return DefaultTransition()
	}
	return *s.Transition
}

func (s Slide) Clone() Slide {
	c := s
	if s.Elements != nil {
		c.Elements = make([]Element, len(s.Elements))
		for i, el := range s.Elements {
			c.Elements[i] = el.Clone()
		}
	}
	c.Notes = clonePtr(s.Notes)
	c.Theme = clonePtr(s.Theme)
	c.Background = clonePtr(s.Background)
	c.Transition = clonePtr(s.Transition)
	return c
}

// SlidePatch is a shallow replace-merge: each non-nil field replaces the
// slide's field wholesale.
type SlidePatch struct {
	Title      *string          `json:"title,omitempty"`
	Elements   []Element        `json:"elements,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	Theme      *string          `json:"theme,omitempty"`
	Background *string          `json:"background,omitempty"`
	Transition *SlideTransition `json:"transition,omitempty"`
}

func (p SlidePatch) apply(s *Slide) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Elements != nil {
		s.Elements = p.Elements
	}
	if p.Notes != nil {
		s.Notes = p.Notes
	}
	if p.Theme != nil {
		s.Theme = p.Theme
	}
	if p.Background != nil {
		s.Background = p.Background
	}
	if p.Transition != nil {
		s.Transition = p.Transition
	}
}

// Deck is the ordered slide sequence of a project.
type Deck []Slide

func (d *Deck) Append(slides ...Slide) {
	*d = append(*d, slides...)
}

func (d Deck) Index(id string) int {
	for i := range d {
		if d[i].ID == id {
			return i
		}
	}
	return -1
}

func (d Deck) Find(id string) *Slide {
	if i := d.Index(id); i >= 0 {
		return &d[i]
	}
	return nil
}

func (d *Deck) Remove(id string) bool {
	i := d.Index(id)
	if i < 0 {
		return false
	}
	*d = append((*d)[:i], (*d)[i+1:]...)
	return true
}

func (d Deck) Update(id string, patch SlidePatch) bool {
	s := d.Find(id)
	if s == nil {
		return false
	}
	patch.apply(s)
	return true
}

func (d Deck) Titles() []string {
	titles := make([]string, len(d))
	for i := range d {
		titles[i] = d[i].Title
	}
	return titles
}

func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	c := make(Deck, len(d))
	for i := range d {
		c[i] = d[i].Clone()
	}
	return c
}
