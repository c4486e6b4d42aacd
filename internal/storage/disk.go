package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"
)

// DiskStorage keeps one JSON file per project under <dataDir>/projects and a
// projects.json index of summaries for listing.
type DiskStorage struct {
	dataDir string
	mu      sync.RWMutex
	index   map[string]model.ProjectSummary
	now     func() time.Time
}

func NewDiskStorage(dataDir string) *DiskStorage {
	return &DiskStorage{
		dataDir: dataDir,
		index:   make(map[string]model.ProjectSummary),
		now:     time.Now,
	}
}

func (d *DiskStorage) Init() error {
	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.WithFields(logger.Fields{"dir": d.dataDir, "projects": len(d.index)}).Info("Disk storage initialized")
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "projects"),
		filepath.Join(d.dataDir, "backup"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "projects.json")
}

func (d *DiskStorage) projectPath(projectID string) string {
	return filepath.Join(d.dataDir, "projects", projectID+".json")
}

// loadIndex reads projects.json, rebuilding it from the project files when it
// is missing or unreadable.
func (d *DiskStorage) loadIndex() error {
	data, err := os.ReadFile(d.indexPath())
	if err == nil {
		var list []model.ProjectSummary
		if err := json.Unmarshal(data, &list); err == nil {
			d.mu.Lock()
			for _, s := range list {
				d.index[s.ID] = s
			}
			d.mu.Unlock()
			return nil
		}
		logger.Warnf("Project index is corrupt, rebuilding: %s", d.indexPath())
	} else if !os.IsNotExist(err) {
		return err
	}
	return d.rebuildIndex()
}

func (d *DiskStorage) rebuildIndex() error {
	files, err := os.ReadDir(filepath.Join(d.dataDir, "projects"))
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = make(map[string]model.ProjectSummary, len(files))
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		projectID := file.Name()[:len(file.Name())-5]
		project, err := d.loadProjectFromFile(projectID)
		if err != nil {
			logger.Errorf("Failed to load project %s for index rebuild: %v", projectID, err)
			continue
		}
		d.index[projectID] = project.Summary()
	}
	return d.saveIndex()
}

func (d *DiskStorage) loadProjectFromFile(projectID string) (*model.Project, error) {
	data, err := os.ReadFile(d.projectPath(projectID))
	if err != nil {
		return nil, err
	}

	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &project, nil
}

// saveIndex must be called with d.mu held.
func (d *DiskStorage) saveIndex() error {
	list := make([]model.ProjectSummary, 0, len(d.index))
	for _, s := range d.index {
		list = append(list, s)
	}
	sortSummaries(list)
	return writeJSONAtomic(d.indexPath(), list)
}

func (d *DiskStorage) saveProjectToFile(project *model.Project) error {
	return writeJSONAtomic(d.projectPath(project.ID), project)
}

func writeJSONAtomic(path string, v any) error {
	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

func (d *DiskStorage) CreateProject(ctx context.Context, project *model.Project) error {
	p, err := prepareNew(project, d.now())
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[p.ID]; exists {
		return ErrProjectExists
	}
	if err := d.saveProjectToFile(p); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.index[p.ID] = p.Summary()
	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	*project = *p.Clone()
	return nil
}

func (d *DiskStorage) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, exists := d.index[projectID]; !exists {
		return nil, ErrProjectNotFound
	}
	project, err := d.loadProjectFromFile(projectID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return project, nil
}

func (d *DiskStorage) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[projectID]; !exists {
		return nil, ErrProjectNotFound
	}
	cur, err := d.loadProjectFromFile(projectID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	next, err := applyPatch(cur, patch, d.now())
	if err != nil {
		return nil, err
	}
	if err := d.saveProjectToFile(next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.index[projectID] = next.Summary()
	if err := d.saveIndex(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return next.Clone(), nil
}

func (d *DiskStorage) DeleteProject(ctx context.Context, projectID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[projectID]; !exists {
		return ErrProjectNotFound
	}
	if err := os.Remove(d.projectPath(projectID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	delete(d.index, projectID)
	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskStorage) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]model.ProjectSummary, 0, len(d.index))
	for _, s := range d.index {
		list = append(list, s)
	}
	sortSummaries(list)
	return list, nil
}

func (d *DiskStorage) Close() error {
	return nil
}

// Backup copies the project files and the index into backup/backup_<unix>.
func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", d.now().Unix()))
	dstDir := filepath.Join(backupDir, "projects")
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := copyDir(filepath.Join(d.dataDir, "projects"), dstDir); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "projects.json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyDir(src, dst string) error {
	files, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		if err := copyFile(filepath.Join(src, file.Name()), filepath.Join(dst, file.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
