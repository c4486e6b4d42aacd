package model

import "fmt"

const (
	DefaultFontFamily = "Plus Jakarta Sans"
	DefaultTextColor  = "#18181b"
	PlaceholderFill   = "#f4f4f5"
)

// Fonts offered by the style panel.
var Fonts = []string{
	"Plus Jakarta Sans", "Unbounded", "Inter", "Playfair Display",
	"Roboto Mono", "Lobster", "Arial", "Georgia",
}

// NewElement builds an element with the add-element defaults for t. zIndex
// is normally len(slide.Elements)+1 so the new element paints on top.
func NewElement(id string, t ElementType, zIndex int) (Element, error) {
	anim := DefaultAnimation()
	style := &ElementStyle{
		ZIndex:       Ptr(zIndex),
		BorderRadius: Ptr(0.0),
		Opacity:      Ptr(1.0),
	}

	switch t {
	case ElementText:
		style.FontSize = Ptr(24.0)
		style.Color = Ptr(DefaultTextColor)
		style.FontFamily = Ptr(DefaultFontFamily)
		style.LetterSpacing = Ptr(0.0)
		style.TextAlign = Ptr(AlignLeft)
		return Element{
			ID:        id,
			Content:   TextContent{Text: "Double click to edit"},
			X:         30,
			Y:         30,
			W:         40,
			H:         15,
			Style:     style,
			Animation: &anim,
		}, nil
	case ElementImage, ElementVideo, ElementAudio:
		content, _ := NewContent(t, "")
		style.BorderRadius = Ptr(12.0)
		style.BackgroundColor = Ptr(PlaceholderFill)
		return Element{
			ID:        id,
			Content:   content,
			X:         35,
			Y:         30,
			W:         30,
			H:         40,
			Style:     style,
			Animation: &anim,
		}, nil
	}
	return Element{}, fmt.Errorf("%w: cannot add %q", ErrUnknownElementType, t)
}

func headingElement(id, text string, y, h, fontSize float64) Element {
	return Element{
		ID:      id,
		Content: TextContent{Text: text},
		X:       10,
		Y:       y,
		W:       80,
		H:       h,
		Style: &ElementStyle{
			FontSize:   Ptr(fontSize),
			FontWeight: Ptr("bold"),
		},
	}
}

// NewBlankSlide is the slide added from the editor's slide strip.
func NewBlankSlide(slideID, titleID string) Slide {
	return Slide{
		ID:       slideID,
		Title:    "New Slide",
		Elements: []Element{headingElement(titleID, "New Slide Title", 10, 20, 40)},
	}
}

// NewStarterSlide seeds a project created from the manual builder.
func NewStarterSlide(slideID, titleID string) Slide {
	return Slide{
		ID:       slideID,
		Title:    "Untitled Slide",
		Elements: []Element{headingElement(titleID, "Double Click to Edit Title", 10, 20, 40)},
	}
}

type Template struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ThumbnailColor string `json:"thumbnailColor"`
	SlideCount     int    `json:"slideCount"`
}

var templates = []Template{
	{ID: "t1", Title: "Startup Pitch Deck", Description: "The standard 10-slide deck for raising seed capital.", ThumbnailColor: "bg-zinc-900", SlideCount: 10},
	{ID: "t2", Title: "QBR Review", Description: "Quarterly business review with financial breakdown.", ThumbnailColor: "bg-primary-500", SlideCount: 15},
	{ID: "t3", Title: "Product Launch", Description: "Go-to-market strategy and feature showcase.", ThumbnailColor: "bg-emerald-500", SlideCount: 8},
	{ID: "t4", Title: "Marketing Strategy", Description: "Comprehensive campaign planning structure.", ThumbnailColor: "bg-purple-500", SlideCount: 12},
	{ID: "t5", Title: "Design Portfolio", Description: "Showcase your creative work visually.", ThumbnailColor: "bg-pink-500", SlideCount: 6},
	{ID: "t6", Title: "Sales Proposal", Description: "High-converting B2B sales presentation.", ThumbnailColor: "bg-blue-500", SlideCount: 9},
}

func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func FindTemplate(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// TemplateSlides expands a template into its slides. token scopes the slide
// ids to one project.
func TemplateSlides(t Template, token string) Deck {
	deck := make(Deck, 0, t.SlideCount)
	for i := 0; i < t.SlideCount; i++ {
		deck = append(deck, Slide{
			ID:    fmt.Sprintf("slide-%s-%d", token, i),
			Title: fmt.Sprintf("%s - Slide %d", t.Title, i+1),
			Elements: []Element{
				headingElement(fmt.Sprintf("t-%d", i), fmt.Sprintf("%s: Section %d", t.Title, i+1), 10, 10, 32),
				{
					ID:      fmt.Sprintf("b-%d", i),
					Content: TextContent{Text: "Add your content here..."},
					X:       10,
					Y:       30,
					W:       80,
					H:       50,
					Style:   &ElementStyle{FontSize: Ptr(18.0)},
				},
			},
		})
	}
	return deck
}
