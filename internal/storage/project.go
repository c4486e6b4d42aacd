package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"devdecks-backend/internal/model"
)

// prepareNew validates a project about to be created and stamps its times.
// It returns a private copy.
func prepareNew(project *model.Project, now time.Time) (*model.Project, error) {
	if project == nil || strings.TrimSpace(project.ID) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidData)
	}
	p := project.Clone()
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	if p.Slides == nil {
		p.Slides = model.Deck{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	return p, nil
}

// applyPatch merges patch into a copy of cur and bumps UpdatedAt.
func applyPatch(cur *model.Project, patch model.ProjectPatch, now time.Time) (*model.Project, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	next := cur.Clone()
	patch.Apply(next)
	if !now.After(cur.UpdatedAt) {
		now = cur.UpdatedAt.Add(time.Nanosecond)
	}
	next.UpdatedAt = now
	return next, nil
}

// sortSummaries orders projects most recently updated first.
func sortSummaries(list []model.ProjectSummary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
