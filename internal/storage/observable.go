package storage

import (
	"context"
	"sync"

	"devdecks-backend/internal/model"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// ProjectEvent is delivered to subscribers after a mutation has been stored.
// Project is nil for deletions.
type ProjectEvent struct {
	Type      EventType             `json:"type"`
	ProjectID string                `json:"projectId"`
	Project   *model.ProjectSummary `json:"project,omitempty"`
}

// Observable notifies subscribers after every successful mutation of the
// wrapped storage. Failed mutations are silent.
type Observable struct {
	Storage

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(ProjectEvent)
}

func NewObservable(next Storage) *Observable {
	return &Observable{Storage: next, subs: make(map[int]func(ProjectEvent))}
}

// Subscribe registers fn and returns a function that removes it. fn runs on
// the mutating goroutine.
func (o *Observable) Subscribe(fn func(ProjectEvent)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

func (o *Observable) notify(ev ProjectEvent) {
	o.mu.RLock()
	fns := make([]func(ProjectEvent), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (o *Observable) CreateProject(ctx context.Context, project *model.Project) error {
	if err := o.Storage.CreateProject(ctx, project); err != nil {
		return err
	}
	sum := project.Summary()
	o.notify(ProjectEvent{Type: EventCreated, ProjectID: project.ID, Project: &sum})
	return nil
}

func (o *Observable) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	project, err := o.Storage.UpdateProject(ctx, projectID, patch)
	if err != nil {
		return nil, err
	}
	sum := project.Summary()
	o.notify(ProjectEvent{Type: EventUpdated, ProjectID: projectID, Project: &sum})
	return project, nil
}

func (o *Observable) DeleteProject(ctx context.Context, projectID string) error {
	if err := o.Storage.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	o.notify(ProjectEvent{Type: EventDeleted, ProjectID: projectID})
	return nil
}
