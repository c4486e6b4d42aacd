package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"devdecks-backend/internal/config"
	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/storage"
	"devdecks-backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrInvalidMode     = errors.New("invalid project mode")
)

// ProjectMode is how a new project gets its first slides.
type ProjectMode string

const (
	// ModeBlank is the manual builder: one starter slide.
	ModeBlank ProjectMode = "blank"
	// ModeTemplate expands one of the built-in templates.
	ModeTemplate ProjectMode = "template"
	// ModeAI starts empty and is filled through chat.
	ModeAI ProjectMode = "ai"
)

const defaultProjectTitle = "Untitled Deck"

type CreateProjectInput struct {
	Mode       ProjectMode `json:"mode"`
	Title      string      `json:"title"`
	TemplateID string      `json:"templateId"`
}

// Generators are the AI boundaries every session shares.
type Generators struct {
	Decks    provider.DeckGenerator
	Images   provider.ImageGenerator
	Videos   provider.VideoGenerator
	Improver provider.TextImprover
}

type WorkspaceService struct {
	storage    *storage.Observable
	generators Generators
	config     config.SessionConfig
	fillLimit  int

	mu       sync.Mutex
	sessions map[string]*Session

	now        func() time.Time
	newID      func() string
	editorOpts []editor.Option
	mapper     *generation.Mapper

	stopOnce sync.Once
	stop     chan struct{}
}

type Option func(*WorkspaceService)

func WithClock(now func() time.Time) Option {
	return func(s *WorkspaceService) { s.now = now }
}

// WithIDGenerator replaces the project id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *WorkspaceService) { s.newID = fn }
}

func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *WorkspaceService) { s.editorOpts = opts }
}

func WithMapper(m *generation.Mapper) Option {
	return func(s *WorkspaceService) { s.mapper = m }
}

func NewWorkspaceService(store storage.Storage, gens Generators, sessionCfg config.SessionConfig, fillLimit int, opts ...Option) *WorkspaceService {
	observable, ok := store.(*storage.Observable)
	if !ok {
		observable = storage.NewObservable(store)
	}
	if gens.Improver == nil {
		gens.Improver = provider.NoImprover{}
	}
	if gens.Images == nil {
		gens.Images = provider.NoMedia{}
	}
	if fillLimit < 1 {
		fillLimit = 1
	}
	s := &WorkspaceService{
		storage:    observable,
		generators: gens,
		config:     sessionCfg,
		fillLimit:  fillLimit,
		sessions:   make(map[string]*Session),
		now:        time.Now,
		newID:      func() string { return "proj-" + uuid.NewString() },
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.CleanupInterval > 0 && s.config.TTL > 0 {
		go s.cleanupIdleSessions()
	}
	return s
}

// Storage exposes the observable repository for live project feeds.
func (s *WorkspaceService) Storage() *storage.Observable {
	return s.storage
}

func (s *WorkspaceService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *WorkspaceService) CreateProject(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	id := s.newID()
	title := strings.TrimSpace(in.Title)
	project := &model.Project{
		ID:              id,
		Status:          model.StatusDraft,
		ModelPreference: model.ModelGeminiFlash,
	}

	switch in.Mode {
	case ModeBlank, "":
		project.Slides = model.Deck{model.NewStarterSlide("slide-"+shortID(), "title-1")}
	case ModeTemplate:
		tpl, ok := model.FindTemplate(in.TemplateID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, in.TemplateID)
		}
		project.Slides = model.TemplateSlides(tpl, shortID())
		if title == "" {
			title = tpl.Title
		}
	case ModeAI:
		project.Slides = model.Deck{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, in.Mode)
	}
	if title == "" {
		title = defaultProjectTitle
	}
	project.Title = title

	if err := s.storage.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	logger.WithFields(logger.Fields{"project": id, "mode": in.Mode, "slides": len(project.Slides)}).Info("Project created")
	return project, nil
}

func (s *WorkspaceService) ListProjects(ctx context.Context) ([]model.ProjectSummary, error) {
	list, err := s.storage.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return list, nil
}

func (s *WorkspaceService) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", projectID, err)
	}
	return project, nil
}

// UpdateProject writes a patch. A new slide list also replaces the deck of an
// open session.
func (s *WorkspaceService) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	project, err := s.storage.UpdateProject(ctx, projectID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", projectID, err)
	}
	if patch.Slides != nil {
		if sess := s.lookup(projectID); sess != nil {
			sess.Replace(project.Slides)
		}
	}
	return project, nil
}

func (s *WorkspaceService) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.storage.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", projectID, err)
	}
	s.mu.Lock()
	delete(s.sessions, projectID)
	s.mu.Unlock()
	return nil
}

func (s *WorkspaceService) lookup(projectID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[projectID]
}

// Open returns the session for a project, loading it on first use.
func (s *WorkspaceService) Open(ctx context.Context, projectID string) (*Session, error) {
	if sess := s.lookup(projectID); sess != nil {
		sess.touch(s.now())
		return sess, nil
	}

	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", projectID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[projectID]; ok {
		return sess, nil
	}
	sess := newSession(projectID, project.Slides, s.now(), s.editorOpts...)
	sess.chat = orchestrator.New(orchestrator.Dependencies{
		Decks:  s.generators.Decks,
		Images: s.generators.Images,
		Videos: s.generators.Videos,
		Mapper: s.mapper,
		Deck:   sess,
	}, orchestrator.WithClock(s.now))
	if project.ModelPreference != "" {
		if _, err := sess.chat.SelectModel(project.ModelPreference); err != nil {
			logger.Warnf("Project %s prefers unknown model %s", projectID, project.ModelPreference)
		}
	}
	s.sessions[projectID] = sess
	logger.WithFields(logger.Fields{"project": projectID, "slides": len(project.Slides)}).Debug("Session opened")
	return sess, nil
}

// persist writes the session's current deck to storage.
func (s *WorkspaceService) persist(ctx context.Context, sess *Session) error {
	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()

	deck := sess.View().Slides
	if _, err := s.storage.UpdateProject(ctx, sess.projectID, model.ProjectPatch{Slides: &deck}); err != nil {
		logger.Errorf("Failed to persist project %s: %v", sess.projectID, err)
		return fmt.Errorf("failed to persist project %s: %w", sess.projectID, err)
	}
	return nil
}

func (s *WorkspaceService) cleanupIdleSessions() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep closes sessions idle for longer than the TTL. Sessions with a chat
// turn in flight are kept.
func (s *WorkspaceService) sweep() int {
	cutoff := s.now().Add(-s.config.TTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := 0
	for id, sess := range s.sessions {
		if sess.chat.IsResponding() || !sess.idleSince().Before(cutoff) {
			continue
		}
		delete(s.sessions, id)
		closed++
		logger.Infof("Closed idle session: %s", id)
	}
	return closed
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
