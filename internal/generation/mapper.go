package generation

import (
	"fmt"
	"strings"

	"devdecks-backend/internal/model"

	"github.com/google/uuid"
)

// GeneratedTheme tags slides produced by the mapper.
const GeneratedTheme = "nano-modern"

const bodyTextColor = "#52525b"

// Mapper turns slide descriptors into fully laid out slides.
type Mapper struct {
	token func() string
}

func NewMapper() *Mapper {
	return &Mapper{token: batchToken}
}

// NewMapperWithToken fixes the batch token source, for tests.
func NewMapperWithToken(token func() string) *Mapper {
	return &Mapper{token: token}
}

func batchToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Map builds one slide per descriptor, in input order. Each slide carries
// exactly three elements: title, body and an image placeholder. Missing ids
// are synthesized from a per-call token plus the index, so ids within a
// batch never collide.
func (m *Mapper) Map(descs []SlideDescriptor) []model.Slide {
	slides := make([]model.Slide, 0, len(descs))
	if len(descs) == 0 {
		return slides
	}

	token := m.token()
	for i, d := range descs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			id = fmt.Sprintf("slide-%s-%d", token, i)
		}
		slides = append(slides, model.Slide{
			ID:       id,
			Title:    d.Title,
			Elements: generatedElements(i, d),
			Theme:    model.Ptr(GeneratedTheme),
		})
	}
	return slides
}

func generatedElements(i int, d SlideDescriptor) []model.Element {
	return []model.Element{
		{
			ID:      fmt.Sprintf("el-%d-title", i),
			Content: model.TextContent{Text: d.Title},
			X:       5,
			Y:       5,
			W:       90,
			H:       15,
			Style: &model.ElementStyle{
				FontSize:   model.Ptr(48.0),
				FontWeight: model.Ptr("bold"),
				FontFamily: model.Ptr("Unbounded"),
				Color:      model.Ptr(model.DefaultTextColor),
			},
		},
		{
			ID:      fmt.Sprintf("el-%d-body", i),
			Content: model.TextContent{Text: d.ContentSummary},
			X:       5,
			Y:       25,
			W:       50,
			H:       60,
			Style: &model.ElementStyle{
				FontSize:   model.Ptr(20.0),
				FontFamily: model.Ptr(model.DefaultFontFamily),
				Color:      model.Ptr(bodyTextColor),
			},
		},
		{
			ID:      fmt.Sprintf("el-%d-img-placeholder", i),
			Content: model.ImageContent{Prompt: d.VisualSuggestion},
			X:       60,
			Y:       25,
			W:       35,
			H:       50,
			Style: &model.ElementStyle{
				BorderRadius:    model.Ptr(12.0),
				BackgroundColor: model.Ptr(model.PlaceholderFill),
			},
		},
	}
}
