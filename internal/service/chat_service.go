package service

import (
	"context"
	"fmt"
	"sync"

	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
	"devdecks-backend/pkg/logger"
)

// Chat runs one turn on the project's session. Slides appended by the turn
// are persisted before the reply is returned.
func (s *WorkspaceService) Chat(ctx context.Context, projectID, prompt string) (model.ChatMessage, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return model.ChatMessage{}, err
	}
	turn, err := sess.chat.Begin(prompt)
	if err != nil {
		return model.ChatMessage{}, err
	}
	return s.runTurn(ctx, sess, turn)
}

func (s *WorkspaceService) runTurn(ctx context.Context, sess *Session, turn *orchestrator.Turn) (model.ChatMessage, error) {
	sess.touch(s.now())
	reply := turn.Run(ctx)
	sess.touch(s.now())

	if reply.Metadata != nil && reply.Metadata.Type == model.MetadataDeckGenerated {
		// The turn may outlive a cancelled request; the slides are already
		// in the live deck and must reach storage regardless.
		if err := s.persist(context.WithoutCancel(ctx), sess); err != nil {
			return reply, err
		}
	}
	return reply, nil
}

// StreamChat reserves a turn on the session and runs it in the background.
// A busy session or a blank prompt is rejected before anything streams. The
// event channel carries only this turn's events and is closed, together
// with the error channel, when the turn ends.
func (s *WorkspaceService) StreamChat(ctx context.Context, projectID, prompt string) (<-chan orchestrator.Event, <-chan error, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	turn, err := sess.chat.Begin(prompt)
	if err != nil {
		return nil, nil, err
	}

	stream := newEventStream(projectID, turn.ID())
	unsubscribe := sess.chat.Subscribe(stream.push)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer stream.close()
		defer unsubscribe()

		if _, err := s.runTurn(ctx, sess, turn); err != nil {
			errs <- err
		}
	}()
	return stream.events, errs, nil
}

// eventStream forwards one turn's events to a buffered channel. A listener
// snapshot taken before unsubscribe may still call push after close; those
// events are dropped.
type eventStream struct {
	projectID string
	turnID    string

	mu     sync.Mutex
	closed bool
	events chan orchestrator.Event
}

func newEventStream(projectID, turnID string) *eventStream {
	return &eventStream{projectID: projectID, turnID: turnID, events: make(chan orchestrator.Event, 16)}
}

func (e *eventStream) push(ev orchestrator.Event) {
	if ev.TurnID != e.turnID {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		logger.Warnf("Dropping chat event %s for project %s", ev.Type, e.projectID)
	}
}

func (e *eventStream) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
}

func (s *WorkspaceService) Messages(ctx context.Context, projectID string) ([]model.ChatMessage, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return sess.chat.History(), nil
}

func (s *WorkspaceService) Selection(ctx context.Context, projectID string) (orchestrator.Selection, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return orchestrator.Selection{}, err
	}
	return sess.chat.Selection(), nil
}

// Select changes the model and/or aspect ratio for the next turn. The model
// is applied first so the ratio is checked against the new model's kind. A
// model change is remembered as the project's preference.
func (s *WorkspaceService) Select(ctx context.Context, projectID string, modelID *model.ModelID, aspectRatio *string) (orchestrator.Selection, error) {
	sess, err := s.Open(ctx, projectID)
	if err != nil {
		return orchestrator.Selection{}, err
	}

	sel := sess.chat.Selection()
	if modelID != nil {
		if sel, err = sess.chat.SelectModel(*modelID); err != nil {
			return sel, err
		}
		pref := sel.Model
		if _, err := s.storage.UpdateProject(ctx, projectID, model.ProjectPatch{ModelPreference: &pref}); err != nil {
			return sel, fmt.Errorf("failed to save model preference: %w", err)
		}
	}
	if aspectRatio != nil {
		if sel, err = sess.chat.SelectAspectRatio(*aspectRatio); err != nil {
			return sel, err
		}
	}
	return sel, nil
}
