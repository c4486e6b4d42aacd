package editor

import (
	"fmt"
	"math"
	"testing"

	"devdecks-backend/internal/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEditor(t *testing.T) (*Editor, *model.Deck) {
	t.Helper()
	deck := &model.Deck{
		model.NewBlankSlide("s1", "s1-title"),
		model.NewBlankSlide("s2", "s2-title"),
	}
	return New(deck, WithIDGenerator(sequentialIDs())), deck
}

func TestNewActivatesFirstSlide(t *testing.T) {
	e, _ := newTestEditor(t)
	assert.Equal(t, State{ActiveSlideID: "s1"}, e.State())

	empty := New(&model.Deck{})
	assert.Nil(t, empty.ActiveSlide())
}

func TestSelectSlideDropsStaleSelection(t *testing.T) {
	e, _ := newTestEditor(t)
	require.True(t, e.ClickElement("s1-title"))

	require.True(t, e.SelectSlide("s2"))
	assert.Equal(t, "", e.State().SelectedElementID)

	assert.False(t, e.SelectSlide("nope"))
	assert.Equal(t, "s2", e.State().ActiveSlideID)
}

func TestAddElementSelectsIt(t *testing.T) {
	e, deck := newTestEditor(t)
	id, err := e.AddElement(model.ElementImage)
	require.NoError(t, err)
	assert.Equal(t, "el-1", id)
	assert.Equal(t, id, e.State().SelectedElementID)

	s := deck.Find("s1")
	require.Len(t, s.Elements, 2)
	assert.Equal(t, 2, s.Elements[1].Style.Z())
	assert.True(t, s.Elements[1].IsPlaceholder())

	_, err = e.AddElement(model.ElementType("shape"))
	assert.Error(t, err)
}

func TestAddElementWithoutActiveSlideIsNoop(t *testing.T) {
	e := New(&model.Deck{})
	id, err := e.AddElement(model.ElementText)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestUpdateElementStyleIsNonDestructive(t *testing.T) {
	deck := &model.Deck{{
		ID: "s",
		Elements: []model.Element{{
			ID:      "e",
			Content: model.TextContent{Text: "hi"},
			Style:   &model.ElementStyle{FontSize: model.Ptr(24.0), Color: model.Ptr("#000")},
		}},
	}}
	e := New(deck)

	require.NoError(t, e.UpdateElementStyle("e", model.StyleColor, "#fff"))
	style := deck.Find("s").Element("e").Style
	assert.Equal(t, 24.0, *style.FontSize)
	assert.Equal(t, "#fff", *style.Color)
}

func TestUpdateElementStyleRejectsBadValueWithoutPartialWrite(t *testing.T) {
	e, deck := newTestEditor(t)
	err := e.UpdateElementStyle("s1-title", model.StyleOpacity, 3)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	assert.Nil(t, deck.Find("s1").Element("s1-title").Style.Opacity)

	assert.NoError(t, e.UpdateElementStyle("missing", model.StyleOpacity, 3), "missing element is a no-op")
}

func TestUpdateElementAnimationStartsFromDefault(t *testing.T) {
	e, deck := newTestEditor(t)
	require.NoError(t, e.UpdateElementAnimation("s1-title", model.AnimationKeyType, "fade-in"))

	anim := deck.Find("s1").Element("s1-title").Animation
	require.NotNil(t, anim)
	assert.Equal(t, model.AnimationSettings{Type: model.AnimationFadeIn, Duration: 0.5}, *anim)
}

func TestUpdateSlidePropertyAndTransition(t *testing.T) {
	e, deck := newTestEditor(t)
	require.NoError(t, e.UpdateSlideProperty(model.SlideBackground, "#0f172a"))
	require.NoError(t, e.UpdateSlideTransition(model.TransitionKeyDuration, 1.2))
	require.NoError(t, e.UpdateSlideTransition(model.TransitionKeyType, "fade"))

	s := deck.Find("s1")
	assert.Equal(t, "#0f172a", *s.Background)
	assert.Equal(t, model.SlideTransition{Type: model.TransitionFade, Duration: 1.2}, *s.Transition)
	assert.ErrorIs(t, e.UpdateSlideTransition(model.TransitionKeyType, "spin"), model.ErrInvalidValue)
}

func TestUpdateElementContentAndGeometry(t *testing.T) {
	e, deck := newTestEditor(t)
	require.True(t, e.UpdateElementContent("s1-title", "Quarterly results"))
	assert.False(t, e.UpdateElementContent("missing", "x"))

	require.NoError(t, e.UpdateElementGeometry("s1-title", Geometry{W: model.Ptr(55.0)}))
	el := deck.Find("s1").Element("s1-title")
	assert.Equal(t, "Quarterly results", el.Content.Payload())
	assert.Equal(t, 55.0, el.W)
	assert.Equal(t, 20.0, el.H)

	assert.ErrorIs(t, e.UpdateElementGeometry("s1-title", Geometry{H: model.Ptr(0.0)}), model.ErrInvalidValue)
}

func TestDeleteSelectedElementClearsSelection(t *testing.T) {
	e, deck := newTestEditor(t)
	first, _ := e.AddElement(model.ElementText)
	_, _ = e.AddElement(model.ElementText)
	require.True(t, e.ClickElement(first))

	require.True(t, e.DeleteSelectedElement())
	assert.Equal(t, "", e.State().SelectedElementID)
	assert.Len(t, deck.Find("s1").Elements, 2)
	assert.Nil(t, deck.Find("s1").Element(first))

	assert.False(t, e.DeleteSelectedElement())
}

func TestClickRules(t *testing.T) {
	e, _ := newTestEditor(t)
	require.True(t, e.ClickElement("s1-title"))
	e.ClickCanvas()
	assert.Equal(t, "", e.State().SelectedElementID)

	canvas := Size{W: 1000, H: 500}
	// Title box spans 10..90% x 10..30%.
	assert.Equal(t, "s1-title", e.ClickAt(Point{X: 500, Y: 100}, canvas))
	assert.Equal(t, "s1-title", e.State().SelectedElementID)
	assert.Equal(t, "", e.ClickAt(Point{X: 500, Y: 400}, canvas))
	assert.Equal(t, "", e.State().SelectedElementID)
}

func TestSlideLifecycle(t *testing.T) {
	e, deck := newTestEditor(t)
	added := e.AddSlide()
	assert.Equal(t, "slide-1", added.ID)
	assert.Equal(t, added.ID, e.State().ActiveSlideID)
	assert.Len(t, *deck, 3)

	require.True(t, e.SelectSlide("s2"))
	require.True(t, e.DeleteSlide("s2"))
	assert.Equal(t, "slide-1", e.State().ActiveSlideID, "next slide takes over")

	require.True(t, e.DeleteSlide("slide-1"))
	assert.Equal(t, "s1", e.State().ActiveSlideID, "previous slide takes over")

	require.True(t, e.DeleteSlide("s1"))
	assert.Equal(t, "", e.State().ActiveSlideID)
	assert.False(t, e.DeleteSlide("s1"))
}

func TestAdoptSlideOnlyWhenIdle(t *testing.T) {
	e, deck := newTestEditor(t)
	deck.Append(model.NewBlankSlide("gen-0", "g"))
	assert.False(t, e.AdoptSlide("gen-0"))
	assert.Equal(t, "s1", e.State().ActiveSlideID)

	idle := New(&model.Deck{})
	*idle.deck = append(*idle.deck, model.NewBlankSlide("gen-0", "g"))
	assert.True(t, idle.AdoptSlide("gen-0"))
	assert.Equal(t, "gen-0", idle.State().ActiveSlideID)
}

func TestDragProtocol(t *testing.T) {
	e, deck := newTestEditor(t)
	canvas := Size{W: 800, H: 450}

	assert.False(t, e.DragTo(Point{X: 10, Y: 10}, canvas), "no drag in progress")

	require.True(t, e.BeginDrag("s1-title", Point{X: 100, Y: 100}))
	assert.Equal(t, State{ActiveSlideID: "s1", SelectedElementID: "s1-title", Dragging: true}, e.State())
	el := deck.Find("s1").Element("s1-title")
	assert.Equal(t, 10.0, el.X, "begin does not move")

	require.True(t, e.DragTo(Point{X: 180, Y: 145}, canvas))
	assert.InDelta(t, 20.0, el.X, 1e-9)
	assert.InDelta(t, 20.0, el.Y, 1e-9)

	e.EndDrag()
	assert.False(t, e.DragTo(Point{X: 900, Y: 900}, canvas))
	assert.InDelta(t, 20.0, el.X, 1e-9)
	e.EndDrag()
}

func TestDragIsNotClamped(t *testing.T) {
	e, deck := newTestEditor(t)
	canvas := Size{W: 100, H: 100}
	require.True(t, e.BeginDrag("s1-title", Point{}))
	require.True(t, e.DragTo(Point{X: -300, Y: 500}, canvas))

	el := deck.Find("s1").Element("s1-title")
	assert.Equal(t, -290.0, el.X)
	assert.Equal(t, 510.0, el.Y)
}

func TestDragSurvivesCanvasResize(t *testing.T) {
	e, deck := newTestEditor(t)
	require.True(t, e.BeginDrag("s1-title", Point{X: 0, Y: 0}))
	require.True(t, e.DragTo(Point{X: 100, Y: 0}, Size{W: 1000, H: 500}))
	require.True(t, e.DragTo(Point{X: 150, Y: 0}, Size{W: 500, H: 250}))

	assert.InDelta(t, 10+10+10, deck.Find("s1").Element("s1-title").X, 1e-9)
}

func TestDragAfterDeleteIsNoop(t *testing.T) {
	e, _ := newTestEditor(t)
	require.True(t, e.BeginDrag("s1-title", Point{}))
	require.True(t, e.DeleteSelectedElement())
	assert.False(t, e.DragTo(Point{X: 5, Y: 5}, Size{W: 10, H: 10}))
}

func TestDragDeltasAreAdditive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("final position equals start plus the summed percent deltas", prop.ForAll(
		func(dxs, dys []float64, w, h float64) bool {
			deck := &model.Deck{model.NewBlankSlide("s", "e")}
			e := New(deck)
			el := deck.Find("s").Element("e")
			x0, y0 := el.X, el.Y

			n := len(dxs)
			if len(dys) < n {
				n = len(dys)
			}
			canvas := Size{W: w, H: h}
			p := Point{}
			e.BeginDrag("e", p)
			var sumX, sumY float64
			for i := 0; i < n; i++ {
				p = Point{X: p.X + dxs[i], Y: p.Y + dys[i]}
				e.DragTo(p, canvas)
				sumX += dxs[i] / w * 100
				sumY += dys[i] / h * 100
			}
			e.EndDrag()

			const tol = 1e-6
			return math.Abs(el.X-(x0+sumX)) < tol && math.Abs(el.Y-(y0+sumY)) < tol
		},
		gen.SliceOf(gen.Float64Range(-50, 50)),
		gen.SliceOf(gen.Float64Range(-50, 50)),
		gen.Float64Range(100, 2000),
		gen.Float64Range(100, 2000),
	))

	properties.TestingRun(t)
}
