package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"devdecks-backend/internal/config"
	"devdecks-backend/internal/editor"
	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecks struct {
	slides  []generation.SlideDescriptor
	release chan struct{}
}

func (f *fakeDecks) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) provider.DeckResult {
	if f.release != nil {
		<-f.release
	}
	return provider.DeckResult{Text: "Drafted", Slides: f.slides}
}

type fakeImages struct {
	mu      sync.Mutex
	prompts []string
	fail    map[string]bool
}

func (f *fakeImages) Generate(ctx context.Context, prompt, aspectRatio string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.fail[prompt] {
		return ""
	}
	return "https://img.example/" + prompt
}

type upperImprover struct{}

func (upperImprover) Improve(ctx context.Context, text string, action provider.ImproveAction) string {
	return fmt.Sprintf("%s [%s]", text, action)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    *WorkspaceService
	store  storage.Storage
	decks  *fakeDecks
	images *fakeImages
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  storage.NewMemoryStorage(),
		decks:  &fakeDecks{},
		images: &fakeImages{fail: map[string]bool{}},
		clock:  &clock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	projects, ids := 0, 0
	f.svc = NewWorkspaceService(f.store, Generators{
		Decks:    f.decks,
		Images:   f.images,
		Improver: upperImprover{},
	}, config.SessionConfig{TTL: time.Hour}, 2,
		WithClock(f.clock.now),
		WithIDGenerator(func() string { projects++; return fmt.Sprintf("p%d", projects) }),
		WithMapper(generation.NewMapperWithToken(func() string { return "g" })),
		WithEditorOptions(editor.WithIDGenerator(func(prefix string) string { ids++; return fmt.Sprintf("%s-%d", prefix, ids) })),
	)
	t.Cleanup(f.svc.Close)
	return f
}

func (f *fixture) stored(t *testing.T, id string) *model.Project {
	t.Helper()
	p, err := f.store.GetProject(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestCreateProjectModes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	blank, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeBlank})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Deck", blank.Title)
	require.Len(t, blank.Slides, 1)
	assert.Equal(t, "Untitled Slide", blank.Slides[0].Title)
	assert.Equal(t, model.ModelGeminiFlash, blank.ModelPreference)

	tpl, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeTemplate, TemplateID: "t3"})
	require.NoError(t, err)
	assert.Equal(t, "Product Launch", tpl.Title)
	assert.Len(t, tpl.Slides, 8)

	ai, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI, Title: "Series A"})
	require.NoError(t, err)
	assert.Equal(t, "Series A", ai.Title)
	assert.Empty(t, ai.Slides)

	_, err = f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeTemplate, TemplateID: "t99"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	_, err = f.svc.CreateProject(ctx, CreateProjectInput{Mode: "import"})
	assert.ErrorIs(t, err, ErrInvalidMode)

	list, err := f.svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = f.svc.Open(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
}

func TestChatAppendsToLiveDeckAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)

	view, err := f.svc.EditorView(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.State.ActiveSlideID)

	f.decks.slides = []generation.SlideDescriptor{
		{Title: "Problem", ContentSummary: "pain", VisualSuggestion: "storm"},
		{Title: "Solution", ContentSummary: "fix", VisualSuggestion: "sunrise"},
	}
	reply, err := f.svc.Chat(ctx, p.ID, "pitch for a weather app")
	require.NoError(t, err)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, 2, reply.Metadata.SlideCount)

	view, err = f.svc.EditorView(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "slide-g-0", view.State.ActiveSlideID, "editor adopts the first generated slide")
	assert.Equal(t, []string{"Problem", "Solution"}, f.stored(t, p.ID).Slides.Titles())

	history, err := f.svc.Messages(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.svc.Chat(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, orchestrator.ErrEmptyPrompt)

	title := view.Slides[0].Elements[0]
	require.Equal(t, "el-0-title", title.ID)
	_, err = f.svc.Edit(ctx, p.ID, false, func(e *editor.Editor) error {
		require.True(t, e.BeginDrag("el-0-title", editor.Point{X: 100, Y: 100}))
		require.True(t, e.DragTo(editor.Point{X: 150, Y: 140}, editor.Size{W: 500, H: 400}))
		return nil
	})
	require.NoError(t, err)
	view, err = f.svc.Edit(ctx, p.ID, true, func(e *editor.Editor) error {
		e.EndDrag()
		return nil
	})
	require.NoError(t, err)

	moved := view.Slides[0].Elements[0]
	assert.InDelta(t, title.X+10, moved.X, 1e-9)
	assert.InDelta(t, title.Y+10, moved.Y, 1e-9)
	assert.Equal(t, "el-0-title", view.State.SelectedElementID)
	assert.False(t, view.State.Dragging)

	persisted := f.stored(t, p.ID).Slides[0].Elements[0]
	assert.InDelta(t, moved.X, persisted.X, 1e-9)
	assert.InDelta(t, moved.Y, persisted.Y, 1e-9)
}

func TestChatKeepsEditorPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeBlank})
	require.NoError(t, err)
	first := p.Slides[0].ID

	f.decks.slides = []generation.SlideDescriptor{{Title: "Appendix"}}
	_, err = f.svc.Chat(ctx, p.ID, "add an appendix")
	require.NoError(t, err)

	view, err := f.svc.EditorView(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, view.State.ActiveSlideID)
	assert.Len(t, view.Slides, 2)
}

func TestEditPersistsOnlyMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeBlank})
	require.NoError(t, err)

	var elementID string
	_, err = f.svc.Edit(ctx, p.ID, true, func(e *editor.Editor) error {
		var err error
		elementID, err = e.AddElement(model.ElementText)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, f.stored(t, p.ID).Slides[0].Elements, 2)

	canvas := editor.Size{W: 1000, H: 500}
	_, err = f.svc.Edit(ctx, p.ID, false, func(e *editor.Editor) error {
		e.BeginDrag(elementID, editor.Point{X: 0, Y: 0})
		e.DragTo(editor.Point{X: 100, Y: 50}, canvas)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, f.stored(t, p.ID).Slides[0].Elements[1].X)

	view, err := f.svc.Edit(ctx, p.ID, true, func(e *editor.Editor) error {
		e.EndDrag()
		return nil
	})
	require.NoError(t, err)
	assert.False(t, view.State.Dragging)
	el := f.stored(t, p.ID).Slides[0].Elements[1]
	assert.InDelta(t, 40.0, el.X, 1e-9)
	assert.InDelta(t, 40.0, el.Y, 1e-9)

	_, err = f.svc.Edit(ctx, p.ID, true, func(e *editor.Editor) error {
		return e.UpdateElementStyle(elementID, model.StyleOpacity, 3)
	})
	assert.ErrorIs(t, err, model.ErrInvalidValue)
}

func TestImproveSelected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeBlank})
	require.NoError(t, err)

	_, err = f.svc.ImproveSelected(ctx, p.ID, provider.ImproveShorten)
	assert.ErrorIs(t, err, ErrNoTextSelected)

	titleID := p.Slides[0].Elements[0].ID
	_, err = f.svc.Edit(ctx, p.ID, false, func(e *editor.Editor) error {
		e.ClickElement(titleID)
		return nil
	})
	require.NoError(t, err)

	view, err := f.svc.ImproveSelected(ctx, p.ID, provider.ImproveShorten)
	require.NoError(t, err)
	assert.Equal(t, "Double Click to Edit Title [shorten]", view.Slides[0].Elements[0].Content.Payload())
	assert.Equal(t, "Double Click to Edit Title [shorten]", f.stored(t, p.ID).Slides[0].Elements[0].Content.Payload())
}

func TestFillPlaceholders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)
	f.decks.slides = []generation.SlideDescriptor{{Title: "Vision", VisualSuggestion: "mountain"}}
	_, err = f.svc.Chat(ctx, p.ID, "vision slide")
	require.NoError(t, err)

	f.images.fail["mountain"] = true
	_, n, err := f.svc.FillPlaceholders(ctx, p.ID, "slide-g-0", "", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	f.images.fail["mountain"] = false
	view, n, err := f.svc.FillPlaceholders(ctx, p.ID, "slide-g-0", "el-0-img-placeholder", "16:9")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	img := view.Slides[0].Elements[2]
	assert.False(t, img.IsPlaceholder())
	assert.Equal(t, "https://img.example/mountain", img.Content.Payload())
	assert.Equal(t, "mountain", img.Content.(model.ImageContent).Prompt)
	assert.False(t, f.stored(t, p.ID).Slides[0].Elements[2].IsPlaceholder())

	_, n, err = f.svc.FillPlaceholders(ctx, p.ID, "slide-g-0", "", "")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing left to fill")

	_, _, err = f.svc.FillPlaceholders(ctx, p.ID, "slide-g-0", "", "7:5")
	assert.ErrorIs(t, err, provider.ErrInvalidAspectRatio)
}

func TestFillPlaceholdersStopsWhenCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)
	f.decks.slides = []generation.SlideDescriptor{{Title: "Vision", VisualSuggestion: "mountain"}}
	_, err = f.svc.Chat(ctx, p.ID, "vision slide")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	view, n, err := f.svc.FillPlaceholders(cancelled, p.ID, "slide-g-0", "", "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.images.prompts)
	assert.True(t, view.Slides[0].Elements[2].IsPlaceholder())
	assert.True(t, f.stored(t, p.ID).Slides[0].Elements[2].IsPlaceholder())
}

func TestSelectRemembersModelPreference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)

	veo := model.ModelVeo
	ratio := "9:16"
	sel, err := f.svc.Select(ctx, p.ID, &veo, &ratio)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Selection{Model: model.ModelVeo, AspectRatio: "9:16"}, sel)
	assert.Equal(t, model.ModelVeo, f.stored(t, p.ID).ModelPreference)

	bad := "21:9"
	_, err = f.svc.Select(ctx, p.ID, nil, &bad)
	assert.ErrorIs(t, err, provider.ErrInvalidAspectRatio)

	f.clock.advance(2 * time.Hour)
	assert.Equal(t, 1, f.svc.sweep())

	sel, err = f.svc.Selection(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModelVeo, sel.Model)
	assert.Equal(t, "16:9", sel.AspectRatio)
}

func TestUpdateProjectReplacesOpenDeck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeTemplate, TemplateID: "t5"})
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, p.ID)
	require.NoError(t, err)

	deck := model.Deck{p.Slides[3]}
	_, err = f.svc.UpdateProject(ctx, p.ID, model.ProjectPatch{Slides: &deck})
	require.NoError(t, err)

	view, err := f.svc.EditorView(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, view.Slides, 1)
	assert.Equal(t, p.Slides[3].ID, view.State.ActiveSlideID)

	require.NoError(t, f.svc.DeleteProject(ctx, p.ID))
	_, err = f.svc.EditorView(ctx, p.ID)
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
}

func TestStreamChatDeliversEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)

	events, errs, err := f.svc.StreamChat(ctx, p.ID, "hello")
	require.NoError(t, err)

	var got []orchestrator.Event
	for ev := range events {
		got = append(got, ev)
	}
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	require.Len(t, got, 4)
	assert.Equal(t, orchestrator.EventMessage, got[0].Type)
	assert.Equal(t, "Drafted", got[3].Message.Content)
}

func drain(t *testing.T, events <-chan orchestrator.Event, errs <-chan error) []orchestrator.Event {
	t.Helper()
	var got []orchestrator.Event
	for ev := range events {
		got = append(got, ev)
	}
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func TestStreamChatRejectsSecondTurnBeforeStreaming(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreateProject(ctx, CreateProjectInput{Mode: ModeAI})
	require.NoError(t, err)

	f.decks.release = make(chan struct{})
	first, firstErrs, err := f.svc.StreamChat(ctx, p.ID, "first")
	require.NoError(t, err)

	_, _, err = f.svc.StreamChat(ctx, p.ID, "second")
	assert.ErrorIs(t, err, orchestrator.ErrBusy)
	_, _, err = f.svc.StreamChat(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, orchestrator.ErrEmptyPrompt)

	close(f.decks.release)
	got := drain(t, first, firstErrs)
	require.Len(t, got, 4)
	assert.Equal(t, "first", got[0].Message.Content)
	for _, ev := range got {
		assert.Equal(t, got[0].TurnID, ev.TurnID)
	}

	again, againErrs, err := f.svc.StreamChat(ctx, p.ID, "second")
	require.NoError(t, err)
	next := drain(t, again, againErrs)
	require.Len(t, next, 4)
	assert.Equal(t, "second", next[0].Message.Content)
	assert.NotEqual(t, got[0].TurnID, next[0].TurnID)

	msgs, err := f.svc.Messages(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestEventStreamIgnoresOtherTurnsAndLateEvents(t *testing.T) {
	stream := newEventStream("p1", "t1")
	stream.push(orchestrator.Event{Type: orchestrator.EventTyping, TurnID: "t2"})
	stream.push(orchestrator.Event{Type: orchestrator.EventTyping, TurnID: "t1"})
	stream.close()

	assert.NotPanics(t, func() {
		stream.push(orchestrator.Event{Type: orchestrator.EventMessage, TurnID: "t1"})
		stream.close()
	})

	var got []orchestrator.Event
	for ev := range stream.events {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TurnID)
}

func TestSweepKeepsRecentSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.CreateProject(ctx, CreateProjectInput{})
	require.NoError(t, err)
	b, err := f.svc.CreateProject(ctx, CreateProjectInput{})
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, a.ID)
	require.NoError(t, err)
	f.clock.advance(50 * time.Minute)
	_, err = f.svc.Open(ctx, b.ID)
	require.NoError(t, err)
	f.clock.advance(20 * time.Minute)

	assert.Equal(t, 1, f.svc.sweep())
	assert.Nil(t, f.svc.lookup(a.ID))
	assert.NotNil(t, f.svc.lookup(b.ID))
}
