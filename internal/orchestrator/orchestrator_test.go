package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDeck struct {
	slides model.Deck
}

func (d *memDeck) Titles() []string            { return d.slides.Titles() }
func (d *memDeck) Append(slides []model.Slide) { d.slides.Append(slides...) }

type scriptedDeck struct {
	result      provider.DeckResult
	lastContext string
	release     chan struct{}
	entered     chan struct{}
}

func (s *scriptedDeck) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) provider.DeckResult {
	s.lastContext = deckContext
	if s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	return s.result
}

type staticMedia string

func (m staticMedia) Generate(ctx context.Context, prompt, aspectRatio string) string {
	return string(m)
}

type panickingMedia struct{}

func (panickingMedia) Generate(ctx context.Context, prompt, aspectRatio string) string {
	panic("driver exploded")
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func newTestOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Mapper == nil {
		deps.Mapper = generation.NewMapperWithToken(func() string { return "b" })
	}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(deps, WithIDGenerator(counterIDs()), WithClock(func() time.Time { return fixed }))
}

func TestDeckTurnAppendsMappedSlides(t *testing.T) {
	deck := &memDeck{slides: model.Deck{model.NewBlankSlide("s0", "e0")}}
	gen := &scriptedDeck{result: provider.DeckResult{
		Text: "Two slides drafted",
		Slides: []generation.SlideDescriptor{
			{Title: "Problem", ContentSummary: "p"},
			{Title: "Solution", ContentSummary: "s"},
		},
	}}
	o := newTestOrchestrator(Dependencies{Decks: gen, Deck: deck})

	reply, err := o.Send(context.Background(), "make me a pitch")
	require.NoError(t, err)

	assert.Equal(t, "New Slide", gen.lastContext)
	assert.Equal(t, "Two slides drafted", reply.Content)
	assert.Equal(t, model.RoleModel, reply.Role)
	assert.Equal(t, model.ModelGeminiFlash, reply.ModelID)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, model.MessageMetadata{Type: model.MetadataDeckGenerated, SlideCount: 2}, *reply.Metadata)

	assert.Equal(t, []string{"New Slide", "Problem", "Solution"}, deck.Titles())
	assert.Equal(t, "slide-b-0", deck.slides[1].ID)

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "m1", history[0].ID)
	assert.Equal(t, "m2", history[1].ID)
	assert.Equal(t, Idle, o.State())
}

func TestDeckTurnWithNoSlides(t *testing.T) {
	deck := &memDeck{}
	o := newTestOrchestrator(Dependencies{
		Decks: &scriptedDeck{result: provider.DeckResult{Text: provider.DeckFailureReply}},
		Deck:  deck,
	})

	reply, err := o.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, provider.DeckFailureReply, reply.Content)
	assert.Nil(t, reply.Metadata)
	assert.Empty(t, deck.slides)
	assert.Len(t, o.History(), 2)
}

func TestMediaTurns(t *testing.T) {
	o := newTestOrchestrator(Dependencies{
		Images: staticMedia("data:image/png;base64,AA=="),
		Videos: staticMedia(""),
		Deck:   &memDeck{},
	})

	_, err := o.SelectModel(model.ModelGeminiImage)
	require.NoError(t, err)
	reply, err := o.Send(context.Background(), "a red fox")
	require.NoError(t, err)
	assert.Equal(t, "Here is the image I generated for you.", reply.Content)
	assert.Equal(t, &model.MessageMetadata{Type: model.MetadataImageGenerated, AssetURL: "data:image/png;base64,AA=="}, reply.Metadata)

	_, err = o.SelectModel(model.ModelVeo)
	require.NoError(t, err)
	reply, err = o.Send(context.Background(), "ocean waves")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I failed to generate the video.", reply.Content)
	assert.Nil(t, reply.Metadata)
}

func TestPanickingBackendBecomesReply(t *testing.T) {
	o := newTestOrchestrator(Dependencies{Images: panickingMedia{}, Deck: &memDeck{}})
	_, err := o.SelectModel(model.ModelGeminiImage)
	require.NoError(t, err)

	reply, err := o.Send(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "An unexpected error occurred.", reply.Content)
	assert.False(t, o.IsResponding())
}

func TestEmptyPromptIsRejected(t *testing.T) {
	o := newTestOrchestrator(Dependencies{Deck: &memDeck{}})
	_, err := o.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, o.History())
}

func TestConcurrentTurnIsRejected(t *testing.T) {
	gen := &scriptedDeck{
		result:  provider.DeckResult{Text: "done"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(Dependencies{Decks: gen, Deck: &memDeck{}})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.Send(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-gen.entered
	assert.True(t, o.IsResponding())
	_, err := o.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.release)
	wg.Wait()

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.False(t, o.IsResponding())
}

func TestListenerSeesTypingAndMessages(t *testing.T) {
	o := newTestOrchestrator(Dependencies{
		Decks: &scriptedDeck{result: provider.DeckResult{Text: "hi"}},
		Deck:  &memDeck{},
	})
	var events []Event
	unsubscribe := o.Subscribe(func(ev Event) { events = append(events, ev) })

	_, err := o.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, EventMessage, events[0].Type)
	assert.Equal(t, model.RoleUser, events[0].Message.Role)
	assert.Equal(t, Event{Type: EventTyping, TurnID: "m1", Responding: true}, events[1])
	assert.Equal(t, Event{Type: EventTyping, TurnID: "m1", Responding: false}, events[2])
	assert.Equal(t, "hi", events[3].Message.Content)
	for _, ev := range events {
		assert.Equal(t, "m1", ev.TurnID)
	}

	unsubscribe()
	_, err = o.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestBeginReservesTheTurn(t *testing.T) {
	o := newTestOrchestrator(Dependencies{
		Decks: &scriptedDeck{result: provider.DeckResult{Text: "done"}},
		Deck:  &memDeck{},
	})
	var events []Event
	o.Subscribe(func(ev Event) { events = append(events, ev) })

	turn, err := o.Begin("first")
	require.NoError(t, err)
	assert.Equal(t, "m1", turn.ID())
	assert.True(t, o.IsResponding())
	assert.Empty(t, events)

	_, err = o.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = o.Send(context.Background(), "third")
	assert.ErrorIs(t, err, ErrBusy)
	require.Len(t, o.History(), 1)
	assert.Equal(t, "first", o.History()[0].Content)

	reply := turn.Run(context.Background())
	assert.Equal(t, "done", reply.Content)
	assert.False(t, o.IsResponding())
	require.Len(t, events, 4)
	assert.Equal(t, "first", events[0].Message.Content)

	_, err = o.Begin("   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestAspectRatioFollowsModelKind(t *testing.T) {
	o := newTestOrchestrator(Dependencies{Deck: &memDeck{}})

	sel, err := o.SelectModel(model.ModelVeo)
	require.NoError(t, err)
	assert.Equal(t, "16:9", sel.AspectRatio)

	sel, err = o.SelectAspectRatio("9:16")
	require.NoError(t, err)
	sel, err = o.SelectModel(model.ModelGeminiImage)
	require.NoError(t, err)
	assert.Equal(t, "9:16", sel.AspectRatio, "valid for both kinds, kept")

	sel, err = o.SelectAspectRatio("21:9")
	require.NoError(t, err)
	assert.Equal(t, "21:9", sel.AspectRatio)
	sel, err = o.SelectModel(model.ModelVeo)
	require.NoError(t, err)
	assert.Equal(t, "16:9", sel.AspectRatio, "not valid for video, reset")

	_, err = o.SelectAspectRatio("4:3")
	assert.ErrorIs(t, err, provider.ErrInvalidAspectRatio)
	assert.Equal(t, "16:9", o.Selection().AspectRatio)

	_, err = o.SelectModel("mystery")
	assert.ErrorIs(t, err, provider.ErrUnknownModel)
	assert.Equal(t, model.ModelVeo, o.Selection().Model)
}
