package storage

import (
	"context"

	"devdecks-backend/internal/model"
)

// Storage persists projects. Every method returns copies; callers never share
// memory with the backend.
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	ListProjects(ctx context.Context) ([]model.ProjectSummary, error)

	// Lifecycle
	Init() error
	Close() error
	Backup() error
}
