package model

import "errors"

var (
	// ErrUnknownKey is returned when a property key is outside its closed set.
	ErrUnknownKey = errors.New("unknown property key")
	// ErrInvalidValue is returned when a value cannot be coerced or violates its range.
	ErrInvalidValue = errors.New("invalid property value")
	// ErrUnknownElementType is returned for element types outside text/image/video/audio/chart.
	ErrUnknownElementType = errors.New("unknown element type")
)
