package model

import (
	"fmt"
	"time"
)

type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "Draft"
	StatusReview    ProjectStatus = "Review"
	StatusPublished ProjectStatus = "Published"
)

func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch st := ProjectStatus(s); st {
	case StatusDraft, StatusReview, StatusPublished:
		return st, nil
	}
	return "", fmt.Errorf("%w: status %q", ErrInvalidValue, s)
}

type Project struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Status          ProjectStatus `json:"status"`
	ThumbnailURL    string        `json:"thumbnailUrl"`
	Slides          Deck          `json:"slides"`
	ModelPreference ModelID       `json:"modelPreference"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Slides = p.Slides.Clone()
	return &c
}

// ProjectPatch is the shallow merge accepted by storage. UpdatedAt is always
// bumped by the repository, never by the caller.
type ProjectPatch struct {
	Title           *string        `json:"title,omitempty"`
	Status          *ProjectStatus `json:"status,omitempty"`
	ThumbnailURL    *string        `json:"thumbnailUrl,omitempty"`
	Slides          *Deck          `json:"slides,omitempty"`
	ModelPreference *ModelID       `json:"modelPreference,omitempty"`
}

func (pp ProjectPatch) Validate() error {
	if pp.Status != nil {
		if _, err := ParseProjectStatus(string(*pp.Status)); err != nil {
			return err
		}
	}
	if pp.Title != nil && *pp.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidValue)
	}
	return nil
}

func (pp ProjectPatch) Apply(p *Project) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.ThumbnailURL != nil {
		p.ThumbnailURL = *pp.ThumbnailURL
	}
	if pp.Slides != nil {
		p.Slides = pp.Slides.Clone()
	}
	if pp.ModelPreference != nil {
		p.ModelPreference = *pp.ModelPreference
	}
}

// ProjectSummary is the list view of a project; slides are reduced to a count.
type ProjectSummary struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Status          ProjectStatus `json:"status"`
	ThumbnailURL    string        `json:"thumbnailUrl"`
	SlideCount      int           `json:"slideCount"`
	ModelPreference ModelID       `json:"modelPreference"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:              p.ID,
		Title:           p.Title,
		Status:          p.Status,
		ThumbnailURL:    p.ThumbnailURL,
		SlideCount:      len(p.Slides),
		ModelPreference: p.ModelPreference,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
