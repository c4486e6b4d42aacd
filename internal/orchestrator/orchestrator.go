// Package orchestrator runs chat turns: one user prompt, one generation call
// chosen by the selected model's kind, one assistant reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"
	"devdecks-backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrBusy rejects a turn while another one is in flight.
	ErrBusy = errors.New("a response is already being generated")
	// ErrEmptyPrompt rejects blank input before anything is recorded.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

const (
	imageSuccessReply = "Here is the image I generated for you."
	imageFailureReply = "Sorry, I failed to generate the image."
	videoSuccessReply = "Here is the video I generated for you."
	videoFailureReply = "Sorry, I failed to generate the video."
	unexpectedReply   = "An unexpected error occurred."
)

type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// Deck is the orchestrator's view of the shared slide sequence. Append must
// also activate the first new slide in the editor when none is active.
type Deck interface {
	Titles() []string
	Append(slides []model.Slide)
}

type EventType string

const (
	EventTyping  EventType = "typing"
	EventMessage EventType = "message"
)

// Event carries the id of the turn it belongs to, the id of that turn's user
// message.
type Event struct {
	Type       EventType          `json:"type"`
	TurnID     string             `json:"turnId"`
	Responding bool               `json:"responding"`
	Message    *model.ChatMessage `json:"message,omitempty"`
}

// Listener observes state changes. It is called without the orchestrator
// lock held and must not block for long.
type Listener func(Event)

type Dependencies struct {
	Decks  provider.DeckGenerator
	Images provider.ImageGenerator
	Videos provider.VideoGenerator
	Mapper *generation.Mapper
	Deck   Deck
}

type Orchestrator struct {
	deps Dependencies

	mu        sync.Mutex
	state     State
	history   []model.ChatMessage
	selection Selection
	listeners []Listener

	now   func() time.Time
	newID func() string
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

func New(deps Dependencies, opts ...Option) *Orchestrator {
	if deps.Mapper == nil {
		deps.Mapper = generation.NewMapper()
	}
	if deps.Decks == nil {
		deps.Decks = provider.NewDeckRouter(nil)
	}
	if deps.Images == nil {
		deps.Images = provider.NoMedia{}
	}
	if deps.Videos == nil {
		deps.Videos = provider.NoMedia{}
	}
	o := &Orchestrator{
		deps:      deps,
		selection: DefaultSelection(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers a listener and returns a function that removes it.
func (o *Orchestrator) Subscribe(l Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
	idx := len(o.listeners) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if idx < len(o.listeners) {
			o.listeners[idx] = nil
		}
	}
}

func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	ls := make([]Listener, 0, len(o.listeners))
	for _, l := range o.listeners {
		if l != nil {
			ls = append(ls, l)
		}
	}
	o.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsResponding drives the typing indicator.
func (o *Orchestrator) IsResponding() bool {
	return o.State() == AwaitingResponse
}

// History returns a copy of the transcript.
func (o *Orchestrator) History() []model.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.ChatMessage, len(o.history))
	copy(out, o.history)
	return out
}

// Send runs one turn with the current selection and returns the assistant
// reply. Generation failures come back as a normal reply; only ErrEmptyPrompt
// and ErrBusy are returned as errors, and neither touches the history.
func (o *Orchestrator) Send(ctx context.Context, prompt string) (model.ChatMessage, error) {
	turn, err := o.Begin(prompt)
	if err != nil {
		return model.ChatMessage{}, err
	}
	return turn.Run(ctx), nil
}

// Turn is a reserved chat turn. The orchestrator stays busy from Begin until
// Run returns.
type Turn struct {
	o       *Orchestrator
	sel     Selection
	userMsg model.ChatMessage
}

// ID is the id of the turn's user message; it tags every event of the turn.
func (t *Turn) ID() string { return t.userMsg.ID }

// Begin validates the prompt and reserves the orchestrator for one turn. The
// user message is in the history when Begin returns; listeners hear about it
// once Run starts.
func (o *Orchestrator) Begin(prompt string) (*Turn, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == AwaitingResponse {
		return nil, ErrBusy
	}
	sel := o.selection
	userMsg := model.ChatMessage{
		ID:        o.newID(),
		Role:      model.RoleUser,
		Content:   prompt,
		Timestamp: o.now(),
		ModelID:   sel.Model,
	}
	o.history = append(o.history, userMsg)
	o.state = AwaitingResponse
	return &Turn{o: o, sel: sel, userMsg: userMsg}, nil
}

// Run generates the reply for a reserved turn. It must be called exactly once.
func (t *Turn) Run(ctx context.Context) model.ChatMessage {
	o, id := t.o, t.ID()
	userMsg := t.userMsg
	o.emit(Event{Type: EventMessage, TurnID: id, Responding: true, Message: &userMsg})
	o.emit(Event{Type: EventTyping, TurnID: id, Responding: true})

	reply := o.dispatch(ctx, userMsg.Content, t.sel)
	reply.ID = o.newID()
	reply.Role = model.RoleModel
	reply.Timestamp = o.now()
	reply.ModelID = t.sel.Model

	o.mu.Lock()
	o.history = append(o.history, reply)
	o.state = Idle
	o.mu.Unlock()

	o.emit(Event{Type: EventTyping, TurnID: id, Responding: false})
	o.emit(Event{Type: EventMessage, TurnID: id, Responding: false, Message: &reply})
	return reply
}

func (o *Orchestrator) dispatch(ctx context.Context, prompt string, sel Selection) (reply model.ChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logger.Fields{"model": sel.Model}).Errorf("chat turn panicked: %v", r)
			reply = model.ChatMessage{Content: unexpectedReply}
		}
	}()

	switch provider.KindOf(sel.Model) {
	case provider.KindImage:
		return mediaReply(o.deps.Images.Generate(ctx, prompt, sel.AspectRatio),
			model.MetadataImageGenerated, imageSuccessReply, imageFailureReply)
	case provider.KindVideo:
		return mediaReply(o.deps.Videos.Generate(ctx, prompt, sel.AspectRatio),
			model.MetadataVideoGenerated, videoSuccessReply, videoFailureReply)
	default:
		return o.generateDeck(ctx, prompt, sel.Model)
	}
}

func (o *Orchestrator) generateDeck(ctx context.Context, prompt string, modelID model.ModelID) model.ChatMessage {
	deckContext := strings.Join(o.deps.Deck.Titles(), ", ")
	res := o.deps.Decks.Generate(ctx, prompt, modelID, deckContext)

	msg := model.ChatMessage{Content: res.Text}
	slides := o.deps.Mapper.Map(res.Slides)
	if len(slides) == 0 {
		return msg
	}
	o.deps.Deck.Append(slides)
	msg.Metadata = &model.MessageMetadata{Type: model.MetadataDeckGenerated, SlideCount: len(slides)}
	logger.Infof("appended %d generated slides", len(slides))
	return msg
}

func mediaReply(url string, kind model.MetadataType, success, failure string) model.ChatMessage {
	if url == "" {
		return model.ChatMessage{Content: failure}
	}
	return model.ChatMessage{
		Content:  success,
		Metadata: &model.MessageMetadata{Type: kind, AssetURL: url},
	}
}

// Selection is the model and aspect ratio the next turn will use.
type Selection struct {
	Model       model.ModelID `json:"modelId"`
	AspectRatio string        `json:"aspectRatio"`
}

func DefaultSelection() Selection {
	return Selection{Model: model.ModelGeminiFlash, AspectRatio: provider.DefaultAspectRatio(provider.KindImage)}
}

func (o *Orchestrator) Selection() Selection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection
}

// SelectModel switches the model. If the current aspect ratio is not valid
// for the new model's kind it is reset to that kind's default; kinds without
// ratios leave it alone.
func (o *Orchestrator) SelectModel(id model.ModelID) (Selection, error) {
	info, err := provider.Lookup(id)
	if err != nil {
		return Selection{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selection.Model = id
	if ratios := provider.AspectRatios(info.Kind); len(ratios) > 0 && !provider.AllowsAspectRatio(info.Kind, o.selection.AspectRatio) {
		o.selection.AspectRatio = provider.DefaultAspectRatio(info.Kind)
	}
	return o.selection, nil
}

func (o *Orchestrator) SelectAspectRatio(ratio string) (Selection, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	kind := provider.KindOf(o.selection.Model)
	if !provider.AllowsAspectRatio(kind, ratio) {
		return o.selection, fmt.Errorf("%w: %s for %s", provider.ErrInvalidAspectRatio, ratio, o.selection.Model)
	}
	o.selection.AspectRatio = ratio
	return o.selection, nil
}
