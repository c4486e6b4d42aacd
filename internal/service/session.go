package service

import (
	"sync"
	"time"

	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
)

// Session is one open project: its live deck, the editor working on it and
// the chat that appends to it. mu guards the deck and the editor; the chat
// takes it only through Titles and Append, so a long generation call never
// blocks editing.
type Session struct {
	projectID string

	mu       sync.Mutex
	deck     model.Deck
	editor   *editor.Editor
	lastUsed time.Time

	chat *orchestrator.Orchestrator

	// persistMu orders snapshot+write pairs so the last write carries the
	// newest deck.
	persistMu sync.Mutex
}

// EditorView is what a client needs to render the canvas.
type EditorView struct {
	ProjectID string       `json:"projectId"`
	Slides    model.Deck   `json:"slides"`
	State     editor.State `json:"state"`
}

func newSession(projectID string, deck model.Deck, now time.Time, opts ...editor.Option) *Session {
	s := &Session{projectID: projectID, deck: deck.Clone(), lastUsed: now}
	if s.deck == nil {
		s.deck = model.Deck{}
	}
	s.editor = editor.New(&s.deck, opts...)
	return s
}

func (s *Session) ProjectID() string { return s.projectID }

func (s *Session) Chat() *orchestrator.Orchestrator { return s.chat }

// Titles is read by the chat to give the model context.
func (s *Session) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Titles()
}

// Append adds generated slides to the live deck. An editor with no live
// active slide moves to the first new one.
func (s *Session) Append(slides []model.Slide) {
	if len(slides) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck.Append(slides...)
	s.editor.AdoptSlide(slides[0].ID)
}

// Edit runs fn against the editor with the session locked.
func (s *Session) Edit(now time.Time, fn func(*editor.Editor) error) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
	err := fn(s.editor)
	return s.viewLocked(), err
}

func (s *Session) View() EditorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() EditorView {
	return EditorView{ProjectID: s.projectID, Slides: s.deck.Clone(), State: s.editor.State()}
}

// Replace swaps in a deck written through the project API. The editor keeps
// its active slide if it still exists.
func (s *Session) Replace(deck model.Deck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = deck.Clone()
	if s.deck == nil {
		s.deck = model.Deck{}
	}
	active := s.editor.State().ActiveSlideID
	if !s.editor.SelectSlide(active) {
		s.editor.ClickCanvas()
		if len(s.deck) > 0 {
			s.editor.AdoptSlide(s.deck[0].ID)
		}
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}
