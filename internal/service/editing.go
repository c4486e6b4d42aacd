package service

import (
	"context"
	"errors"
	"fmt"

	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"
	"devdecks-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

var ErrNoTextSelected = errors.New("no text element selected")

// EditorView returns the canvas of an open project.
func (s *WorkspaceService) EditorView(ctx context.Context, projectID string) (EditorView, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return EditorView{}, err
	}
	return sess.View(), nil
}

// Edit applies fn to the project's editor. When persist is set the deck is
// written to storage afterwards; pure selection and in-flight drag moves
// pass false.
func (s *WorkspaceService) Edit(ctx context.Context, projectID string, persist bool, fn func(*editor.Editor) error) (EditorView, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return EditorView{}, err
	}
	view, err := sess.Edit(s.now(), fn)
	if err != nil {
		return view, err
	}
	if persist {
		if err := s.persist(ctx, sess); err != nil {
			return view, err
		}
	}
	return view, nil
}

// ImproveSelected rewrites the selected text element. The session is
// unlocked during the model call; the result is dropped if the element was
// deleted or edited meanwhile.
func (s *WorkspaceService) ImproveSelected(ctx context.Context, projectID string, action provider.ImproveAction) (EditorView, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return EditorView{}, err
	}

	var elementID, original string
	if _, err := sess.Edit(s.now(), func(e *editor.Editor) error {
		el := e.SelectedElement()
		if el == nil || el.Type() != model.ElementText {
			return ErrNoTextSelected
		}
		elementID, original = el.ID, el.Content.Payload()
		return nil
	}); err != nil {
		return EditorView{}, err
	}

	improved := s.generators.Improver.Improve(ctx, original, action)

	applied := false
	view, _ := sess.Edit(s.now(), func(e *editor.Editor) error {
		el := e.SelectedElement()
		if el == nil || el.ID != elementID || el.Content.Payload() != original {
			return nil
		}
		applied = e.UpdateElementContent(elementID, improved)
		return nil
	})
	if !applied {
		logger.Infof("Discarded text improvement for %s: element changed", elementID)
		return view, nil
	}
	if err := s.persist(ctx, sess); err != nil {
		return view, err
	}
	return sess.View(), nil
}

type placeholderJob struct {
	slideID   string
	elementID string
	prompt    string
	url       string
}

// FillPlaceholders generates images for the empty image elements of a slide,
// or only for elementID when it is set. Calls run concurrently up to the
// configured limit; failed ones leave their placeholder untouched. It
// returns the number of elements filled.
func (s *WorkspaceService) FillPlaceholders(ctx context.Context, projectID, slideID, elementID, aspectRatio string) (EditorView, int, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return EditorView{}, 0, err
	}
	if aspectRatio != "" && !provider.AllowsAspectRatio(provider.KindImage, aspectRatio) {
		return EditorView{}, 0, fmt.Errorf("%w: %s", provider.ErrInvalidAspectRatio, aspectRatio)
	}

	var jobs []*placeholderJob
	sess.mu.Lock()
	if slide := sess.deck.Find(slideID); slide != nil {
		for i := range slide.Elements {
			el := &slide.Elements[i]
			if !el.IsPlaceholder() || (elementID != "" && el.ID != elementID) {
				continue
			}
			prompt := el.Content.(model.ImageContent).Prompt
			if prompt == "" {
				prompt = slide.Title
			}
			jobs = append(jobs, &placeholderJob{slideID: slide.ID, elementID: el.ID, prompt: prompt})
		}
	}
	sess.mu.Unlock()

	if len(jobs) == 0 {
		return sess.View(), 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fillLimit)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job.url = s.generators.Images.Generate(gctx, job.prompt, aspectRatio)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warnf("Placeholder fill for %s interrupted: %v", projectID, err)
	}

	filled := 0
	sess.mu.Lock()
	for _, job := range jobs {
		if job.url == "" {
			continue
		}
		slide := sess.deck.Find(job.slideID)
		if slide == nil {
			continue
		}
		if el := slide.Element(job.elementID); el != nil && el.IsPlaceholder() {
			el.SetPayload(job.url)
			filled++
		}
	}
	sess.mu.Unlock()

	logger.WithFields(logger.Fields{"project": projectID, "slide": slideID, "requested": len(jobs), "filled": filled}).Info("Placeholder fill finished")
	if filled > 0 {
		if err := s.persist(ctx, sess); err != nil {
			return sess.View(), filled, err
		}
	}
	return sess.View(), filled, nil
}
