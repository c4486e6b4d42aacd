package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStorage stores each project as one row with its slides in a JSONB
// column.
type PostgresStorage struct {
	dsn string
	db  *sql.DB
	now func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStorage(dsn string) *PostgresStorage {
	return &PostgresStorage{dsn: strings.TrimSpace(dsn), now: time.Now}
}

func (s *PostgresStorage) Init() error {
	if s.dsn == "" {
		return fmt.Errorf("%w: postgres dsn is required", ErrStorageInit)
	}
	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	s.db = db
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	logger.Info("Postgres storage initialized")
	return nil
}

func (s *PostgresStorage) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS deck_projects (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'Draft',
  thumbnail_url TEXT NOT NULL DEFAULT '',
  model_preference TEXT NOT NULL DEFAULT '',
  slides JSONB NOT NULL DEFAULT '[]'::jsonb,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deck_projects_updated_at ON deck_projects (updated_at DESC);
`)
	})
	return s.schemaErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p      model.Project
		status string
		pref   string
		slides []byte
	)
	err := row.Scan(&p.ID, &p.Title, &status, &p.ThumbnailURL, &pref, &slides, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	p.ModelPreference = model.ModelID(pref)
	if err := json.Unmarshal(slides, &p.Slides); err != nil {
		return nil, fmt.Errorf("%w: slides of %s: %v", ErrInvalidData, p.ID, err)
	}
	return &p, nil
}

const projectColumns = `id, title, status, thumbnail_url, model_preference, slides, created_at, updated_at`

func (s *PostgresStorage) CreateProject(ctx context.Context, project *model.Project) error {
	p, err := prepareNew(project, s.now())
	if err != nil {
		return err
	}
	slides, err := json.Marshal(p.Slides)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO deck_projects (`+projectColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Title, string(p.Status), p.ThumbnailURL, string(p.ModelPreference), slides, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProjectExists
	}
	*project = *p.Clone()
	return nil
}

func (s *PostgresStorage) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM deck_projects WHERE id = $1`, projectID)
	return scanProject(row)
}

func (s *PostgresStorage) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM deck_projects WHERE id = $1 FOR UPDATE`, projectID))
	if err != nil {
		return nil, err
	}
	next, err := applyPatch(cur, patch, s.now())
	if err != nil {
		return nil, err
	}
	slides, err := json.Marshal(next.Slides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE deck_projects
SET title=$2, status=$3, thumbnail_url=$4, model_preference=$5, slides=$6, updated_at=$7
WHERE id=$1`,
		next.ID, next.Title, string(next.Status), next.ThumbnailURL, string(next.ModelPreference), slides, next.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *PostgresStorage) DeleteProject(ctx context.Context, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deck_projects WHERE id = $1`, projectID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *PostgresStorage) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, status, thumbnail_url, jsonb_array_length(slides), model_preference, created_at, updated_at
FROM deck_projects
ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.ProjectSummary, 0, 32)
	for rows.Next() {
		var (
			sum    model.ProjectSummary
			status string
			pref   string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &status, &sum.ThumbnailURL, &sum.SlideCount, &pref, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Status = model.ProjectStatus(status)
		sum.ModelPreference = model.ModelID(pref)
		list = append(list, sum)
	}
	return list, rows.Err()
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Backup is left to the database's own tooling.
func (s *PostgresStorage) Backup() error {
	logger.Info("Postgres storage backup skipped; use pg_dump")
	return nil
}
