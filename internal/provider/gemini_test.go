package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devdecks-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

type fakeGenai struct {
	reply     *genai.GenerateContentResponse
	err       error
	lastModel string
	lastCfg   *genai.GenerateContentConfig
	lastText  string

	videoOp   *genai.GenerateVideosOperation
	videoCfg  *genai.GenerateVideosConfig
	pollsLeft int
	polls     int
	finalOp   *genai.GenerateVideosOperation
}

func (f *fakeGenai) GenerateContent(ctx context.Context, m string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel, f.lastCfg = m, cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}
	return f.reply, f.err
}

func (f *fakeGenai) GenerateVideos(ctx context.Context, m string, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.lastModel, f.videoCfg = m, cfg
	return f.videoOp, f.err
}

func (f *fakeGenai) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, cfg *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	f.polls++
	if f.polls < f.pollsLeft {
		return &genai.GenerateVideosOperation{Name: op.Name}, nil
	}
	return f.finalOp, nil
}

func textReply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
	}}}
}

type memAssets struct{ puts map[string][]byte }

func (m *memAssets) Put(ctx context.Context, key, mimeType string, data []byte) (string, error) {
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[key] = data
	return "https://assets.example/" + key, nil
}

func newTestGemini(f *fakeGenai, assets AssetStore) *Gemini {
	return newGemini(f, f, assets, nil, GeminiOptions{
		APIKey:            "k",
		ImageModel:        "gemini-3-pro-image-preview",
		VideoModel:        "veo-3.1-fast-generate-preview",
		ImproveModel:      "gemini-2.5-flash",
		ProThinkingBudget: 32768,
		PollInterval:      time.Millisecond,
	})
}

func TestGeminiDeckUsesSchemaAndThinkingBudget(t *testing.T) {
	f := &fakeGenai{reply: textReply(`{"conversationalSummary":"Done","slides":[{"title":"A","contentSummary":"a"},{"title":"B","contentSummary":"b"}]}`)}
	g := newTestGemini(f, nil)

	res := g.Deck().Generate(context.Background(), "launch plan", model.ModelGeminiPro, "Intro")
	assert.Equal(t, "Done", res.Text)
	assert.Len(t, res.Slides, 2)

	assert.Equal(t, "gemini-3-pro-preview", f.lastModel)
	assert.Equal(t, "application/json", f.lastCfg.ResponseMIMEType)
	require.NotNil(t, f.lastCfg.ResponseSchema)
	require.NotNil(t, f.lastCfg.ThinkingConfig)
	assert.Equal(t, int32(32768), *f.lastCfg.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, "Context: Intro. User Request: launch plan. Create a presentation structure.", f.lastText)

	g.Deck().Generate(context.Background(), "x", model.ModelGeminiFlashLite, "")
	assert.Equal(t, "gemini-2.5-flash-lite-latest", f.lastModel)
	assert.Nil(t, f.lastCfg.ThinkingConfig)
}

func TestGeminiDeckFallbacks(t *testing.T) {
	g := newTestGemini(&fakeGenai{reply: textReply(`{"slides":[]}`)}, nil)
	res := g.Deck().Generate(context.Background(), "x", model.ModelGeminiFlash, "")
	assert.Equal(t, "I've drafted the deck structure for you.", res.Text)
	assert.Empty(t, res.Slides)

	g = newTestGemini(&fakeGenai{err: errors.New("403")}, nil)
	assert.Equal(t, DeckFailureReply, g.Deck().Generate(context.Background(), "x", model.ModelGeminiFlash, "").Text)

	assert.Equal(t, MediaModelReply, g.Deck().Generate(context.Background(), "x", model.ModelGeminiImage, "").Text)
}

func TestGeminiImageReturnsDataURLWithoutStore(t *testing.T) {
	f := &fakeGenai{reply: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "here you go"},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 0x50}}},
		}},
	}}}}
	url := newTestGemini(f, nil).Images().Generate(context.Background(), "a fox", "16:9")
	assert.Equal(t, "data:image/png;base64,iVA=", url)
	assert.Equal(t, "gemini-3-pro-image-preview", f.lastModel)
	assert.Equal(t, "a fox", f.lastText)
	require.NotNil(t, f.lastCfg.ImageConfig)
	assert.Equal(t, "16:9", f.lastCfg.ImageConfig.AspectRatio)

	empty := &fakeGenai{reply: textReply("no image")}
	assert.Equal(t, "", newTestGemini(empty, nil).Images().Generate(context.Background(), "a fox", ""))
	require.NotNil(t, empty.lastCfg.ImageConfig)
	assert.Equal(t, "1:1", empty.lastCfg.ImageConfig.AspectRatio)
}

func TestGeminiVideoPollsUntilDone(t *testing.T) {
	assets := &memAssets{}
	f := &fakeGenai{
		videoOp:   &genai.GenerateVideosOperation{Name: "op-1"},
		pollsLeft: 3,
		finalOp: &genai.GenerateVideosOperation{Done: true, Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{VideoBytes: []byte("mp4"), MIMEType: "video/mp4"}}},
		}},
	}
	url := newTestGemini(f, assets).Videos().Generate(context.Background(), "waves", "9:16")

	assert.Equal(t, 3, f.polls)
	assert.Contains(t, url, "https://assets.example/videos/")
	assert.Equal(t, "9:16", f.videoCfg.AspectRatio)
	assert.Equal(t, "720p", f.videoCfg.Resolution)
	assert.Len(t, assets.puts, 1)
}

func TestGeminiVideoDownloadsURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	assets := &memAssets{}
	f := &fakeGenai{videoOp: &genai.GenerateVideosOperation{Done: true, Response: &genai.GenerateVideosResponse{
		GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: srv.URL + "/v?alt=media"}}},
	}}}
	url := newTestGemini(f, assets).Videos().Generate(context.Background(), "waves", "")

	require.NotEmpty(t, url)
	for _, data := range assets.puts {
		assert.Equal(t, "video-bytes", string(data))
	}
	assert.Equal(t, "16:9", f.videoCfg.AspectRatio)
}

func TestGeminiVideoStopsOnContextCancel(t *testing.T) {
	f := &fakeGenai{videoOp: &genai.GenerateVideosOperation{Name: "op"}, pollsLeft: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, "", newTestGemini(f, nil).Videos().Generate(ctx, "waves", "16:9"))
}

func TestGeminiImprove(t *testing.T) {
	g := newTestGemini(&fakeGenai{reply: textReply("  Crisper text.  ")}, nil)
	assert.Equal(t, "Crisper text.", g.Improve(context.Background(), "some text", ImproveShorten))

	g = newTestGemini(&fakeGenai{reply: textReply("")}, nil)
	assert.Equal(t, "some text", g.Improve(context.Background(), "some text", ImproveRewrite))

	g = newTestGemini(&fakeGenai{err: errors.New("quota")}, nil)
	assert.Equal(t, "some text (AI Updated)", g.Improve(context.Background(), "some text", ImproveProfessional))
}
