package model

import (
	"fmt"

	"github.com/spf13/cast"
)

type AnimationType string

const (
	AnimationNone         AnimationType = "none"
	AnimationFadeIn       AnimationType = "fade-in"
	AnimationSlideInLeft  AnimationType = "slide-in-left"
	AnimationSlideInRight AnimationType = "slide-in-right"
	AnimationZoomIn       AnimationType = "zoom-in"
	AnimationPop          AnimationType = "pop"
)

func (a AnimationType) valid() bool {
	switch a {
	case AnimationNone, AnimationFadeIn, AnimationSlideInLeft, AnimationSlideInRight, AnimationZoomIn, AnimationPop:
		return true
	}
	return false
}

type AnimationKey string

const (
	AnimationKeyType     AnimationKey = "type"
	AnimationKeyDuration AnimationKey = "duration"
	AnimationKeyDelay    AnimationKey = "delay"
)

func ParseAnimationKey(s string) (AnimationKey, error) {
	switch k := AnimationKey(s); k {
	case AnimationKeyType, AnimationKeyDuration, AnimationKeyDelay:
		return k, nil
	}
	return "", fmt.Errorf("%w: animation %q", ErrUnknownKey, s)
}

// AnimationSettings controls how an element enters. Durations are seconds.
type AnimationSettings struct {
	Type     AnimationType `json:"type"`
	Duration float64       `json:"duration"`
	Delay    float64       `json:"delay"`
}

func DefaultAnimation() AnimationSettings {
	return AnimationSettings{Type: AnimationNone, Duration: 0.5, Delay: 0}
}

func (a *AnimationSettings) Set(key AnimationKey, value any) error {
	switch key {
	case AnimationKeyType:
		s, err := cast.ToStringE(value)
		if err != nil || !AnimationType(s).valid() {
			return fmt.Errorf("%w: animation type %v", ErrInvalidValue, value)
		}
		a.Type = AnimationType(s)
		return nil
	case AnimationKeyDuration:
		f, err := cast.ToFloat64E(value)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: animation duration %v", ErrInvalidValue, value)
		}
		a.Duration = f
		return nil
	case AnimationKeyDelay:
		f, err := cast.ToFloat64E(value)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: animation delay %v", ErrInvalidValue, value)
		}
		a.Delay = f
		return nil
	}
	return fmt.Errorf("%w: animation %q", ErrUnknownKey, key)
}

type TransitionType string

const (
	TransitionNone       TransitionType = "none"
	TransitionFade       TransitionType = "fade"
	TransitionSlideLeft  TransitionType = "slide-left"
	TransitionSlideRight TransitionType = "slide-right"
	TransitionZoom       TransitionType = "zoom"
)

func (t TransitionType) valid() bool {
	switch t {
	case TransitionNone, TransitionFade, TransitionSlideLeft, TransitionSlideRight, TransitionZoom:
		return true
	}
	return false
}

type TransitionKey string

const (
	TransitionKeyType     TransitionKey = "type"
	TransitionKeyDuration TransitionKey = "duration"
)

func ParseTransitionKey(s string) (TransitionKey, error) {
	switch k := TransitionKey(s); k {
	case TransitionKeyType, TransitionKeyDuration:
		return k, nil
	}
	return "", fmt.Errorf("%w: transition %q", ErrUnknownKey, s)
}

type SlideTransition struct {
	Type     TransitionType `json:"type"`
	Duration float64        `json:"duration"`
}

func DefaultTransition() SlideTransition {
	return SlideTransition{Type: TransitionNone, Duration: 0.5}
}

func (t *SlideTransition) Set(key TransitionKey, value any) error {
	switch key {
	case TransitionKeyType:
		s, err := cast.ToStringE(value)
		if err != nil || !TransitionType(s).valid() {
			return fmt.Errorf("%w: transition type %v", ErrInvalidValue, value)
		}
		t.Type = TransitionType(s)
		return nil
	case TransitionKeyDuration:
		f, err := cast.ToFloat64E(value)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: transition duration %v", ErrInvalidValue, value)
		}
		t.Duration = f
		return nil
	}
	return fmt.Errorf("%w: transition %q", ErrUnknownKey, key)
}
