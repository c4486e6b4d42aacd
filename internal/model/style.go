package model

import (
	"fmt"

	"github.com/spf13/cast"
)

type TextAlign string

const (
	AlignLeft    TextAlign = "left"
	AlignCenter  TextAlign = "center"
	AlignRight   TextAlign = "right"
	AlignJustify TextAlign = "justify"
)

func (a TextAlign) valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// StyleKey names one field of ElementStyle.
type StyleKey string

const (
	StyleFontSize        StyleKey = "fontSize"
	StyleFontFamily      StyleKey = "fontFamily"
	StyleFontWeight      StyleKey = "fontWeight"
	StyleColor           StyleKey = "color"
	StyleBackgroundColor StyleKey = "backgroundColor"
	StyleLetterSpacing   StyleKey = "letterSpacing"
	StyleTextAlign       StyleKey = "textAlign"
	StyleOpacity         StyleKey = "opacity"
	StyleBorderRadius    StyleKey = "borderRadius"
	StyleZIndex          StyleKey = "zIndex"
	StyleBoxShadow       StyleKey = "boxShadow"
)

var styleKeys = []StyleKey{
	StyleFontSize, StyleFontFamily, StyleFontWeight, StyleColor, StyleBackgroundColor,
	StyleLetterSpacing, StyleTextAlign, StyleOpacity, StyleBorderRadius, StyleZIndex, StyleBoxShadow,
}

func ParseStyleKey(s string) (StyleKey, error) {
	for _, k := range styleKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: style %q", ErrUnknownKey, s)
}

// ElementStyle is the optional presentation bag of an element. A nil field
// means the renderer falls back to the type default.
type ElementStyle struct {
	FontSize        *float64   `json:"fontSize,omitempty"`
	FontFamily      *string    `json:"fontFamily,omitempty"`
	FontWeight      *string    `json:"fontWeight,omitempty"`
	Color           *string    `json:"color,omitempty"`
	BackgroundColor *string    `json:"backgroundColor,omitempty"`
	LetterSpacing   *float64   `json:"letterSpacing,omitempty"`
	TextAlign       *TextAlign `json:"textAlign,omitempty"`
	Opacity         *float64   `json:"opacity,omitempty"`
	BorderRadius    *float64   `json:"borderRadius,omitempty"`
	ZIndex          *int       `json:"zIndex,omitempty"`
	BoxShadow       *string    `json:"boxShadow,omitempty"`
}

// Set updates a single field and leaves the others untouched. A nil value
// clears the field.
func (s *ElementStyle) Set(key StyleKey, value any) error {
	switch key {
	case StyleFontSize:
		return setFloat(&s.FontSize, key, value)
	case StyleLetterSpacing:
		return setFloat(&s.LetterSpacing, key, value)
	case StyleBorderRadius:
		return setFloat(&s.BorderRadius, key, value)
	case StyleOpacity:
		if value != nil {
			f, err := cast.ToFloat64E(value)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidValue, key, value)
			}
		}
		return setFloat(&s.Opacity, key, value)
	case StyleFontFamily:
		return setString(&s.FontFamily, key, value)
	case StyleFontWeight:
		return setString(&s.FontWeight, key, value)
	case StyleColor:
		return setString(&s.Color, key, value)
	case StyleBackgroundColor:
		return setString(&s.BackgroundColor, key, value)
	case StyleBoxShadow:
		return setString(&s.BoxShadow, key, value)
	case StyleTextAlign:
		if value == nil {
			s.TextAlign = nil
			return nil
		}
		str, err := cast.ToStringE(value)
		if err != nil || !TextAlign(str).valid() {
			return fmt.Errorf("%w: %s %v", ErrInvalidValue, key, value)
		}
		a := TextAlign(str)
		s.TextAlign = &a
		return nil
	case StyleZIndex:
		if value == nil {
			s.ZIndex = nil
			return nil
		}
		z, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%w: %s %v", ErrInvalidValue, key, value)
		}
		s.ZIndex = &z
		return nil
	}
	return fmt.Errorf("%w: style %q", ErrUnknownKey, key)
}

// Z returns the paint order, zero when unset.
func (s *ElementStyle) Z() int {
	if s == nil || s.ZIndex == nil {
		return 0
	}
	return *s.ZIndex
}

func (s *ElementStyle) Clone() *ElementStyle {
	if s == nil {
		return nil
	}
	c := &ElementStyle{
		FontSize:        clonePtr(s.FontSize),
		FontFamily:      clonePtr(s.FontFamily),
		FontWeight:      clonePtr(s.FontWeight),
		Color:           clonePtr(s.Color),
		BackgroundColor: clonePtr(s.BackgroundColor),
		LetterSpacing:   clonePtr(s.LetterSpacing),
		TextAlign:       clonePtr(s.TextAlign),
		Opacity:         clonePtr(s.Opacity),
		BorderRadius:    clonePtr(s.BorderRadius),
		ZIndex:          clonePtr(s.ZIndex),
		BoxShadow:       clonePtr(s.BoxShadow),
	}
	return c
}

func setFloat(dst **float64, key StyleKey, value any) error {
	if value == nil {
		*dst = nil
		return nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return fmt.Errorf("%w: %s %v", ErrInvalidValue, key, value)
	}
	*dst = &f
	return nil
}

func setString(dst **string, key StyleKey, value any) error {
	if value == nil {
		*dst = nil
		return nil
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf("%w: %s %v", ErrInvalidValue, key, value)
	}
	*dst = &str
	return nil
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
