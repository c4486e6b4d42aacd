package storage

import (
	"context"
	"fmt"

	"devdecks-backend/internal/model"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStorage is a read-through LRU cache of whole projects in front of a
// slower backend. Listings always go to the backend.
type CachedStorage struct {
	next  Storage
	cache *lru.Cache[string, *model.Project]
}

func NewCachedStorage(next Storage, size int) (*CachedStorage, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, *model.Project](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	return &CachedStorage{next: next, cache: cache}, nil
}

func (c *CachedStorage) Init() error { return c.next.Init() }

func (c *CachedStorage) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

func (c *CachedStorage) Backup() error { return c.next.Backup() }

func (c *CachedStorage) CreateProject(ctx context.Context, project *model.Project) error {
	if err := c.next.CreateProject(ctx, project); err != nil {
		return err
	}
	c.cache.Add(project.ID, project.Clone())
	return nil
}

func (c *CachedStorage) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	if cached, ok := c.cache.Get(projectID); ok {
		return cached.Clone(), nil
	}
	project, err := c.next.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(projectID, project.Clone())
	return project, nil
}

func (c *CachedStorage) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	project, err := c.next.UpdateProject(ctx, projectID, patch)
	if err != nil {
		c.cache.Remove(projectID)
		return nil, err
	}
	c.cache.Add(projectID, project.Clone())
	return project, nil
}

func (c *CachedStorage) DeleteProject(ctx context.Context, projectID string) error {
	c.cache.Remove(projectID)
	return c.next.DeleteProject(ctx, projectID)
}

func (c *CachedStorage) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	return c.next.ListProjects(ctx)
}
