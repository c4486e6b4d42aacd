package storage

import (
	"context"
	"sync"
	"time"

	"devdecks-backend/internal/model"
)

type MemoryStorage struct {
	projects map[string]*model.Project
	mu       sync.RWMutex
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		projects: make(map[string]*model.Project),
		now:      time.Now,
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) CreateProject(ctx context.Context, project *model.Project) error {
	p, err := prepareNew(project, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.projects[p.ID]; exists {
		return ErrProjectExists
	}
	m.projects[p.ID] = p
	*project = *p.Clone()
	return nil
}

func (m *MemoryStorage) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	project, exists := m.projects[projectID]
	if !exists {
		return nil, ErrProjectNotFound
	}
	return project.Clone(), nil
}

func (m *MemoryStorage) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.projects[projectID]
	if !exists {
		return nil, ErrProjectNotFound
	}
	next, err := applyPatch(cur, patch, m.now())
	if err != nil {
		return nil, err
	}
	m.projects[projectID] = next
	return next.Clone(), nil
}

func (m *MemoryStorage) DeleteProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.projects[projectID]; !exists {
		return ErrProjectNotFound
	}
	delete(m.projects, projectID)
	return nil
}

func (m *MemoryStorage) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]model.ProjectSummary, 0, len(m.projects))
	for _, project := range m.projects {
		list = append(list, project.Summary())
	}
	sortSummaries(list)
	return list, nil
}
