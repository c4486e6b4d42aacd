package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"devdecks-backend/internal/config"
	"devdecks-backend/internal/generation"
	"devdecks-backend/internal/model"
	"devdecks-backend/pkg/logger"

	"github.com/google/uuid"
	genai "google.golang.org/genai"
)

// AssetStore persists generated media and returns a URL clients can load.
type AssetStore interface {
	Put(ctx context.Context, key, mimeType string, data []byte) (string, error)
}

// geminiModels is the subset of genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

type geminiOperations interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

type GeminiOptions struct {
	APIKey            string
	ImageModel        string
	VideoModel        string
	ImproveModel      string
	ProThinkingBudget int32
	PollInterval      time.Duration
}

// Gemini serves every boundary from one genai client. Deck, Images and
// Videos return the per-boundary views; Gemini itself is the TextImprover.
type Gemini struct {
	models geminiModels
	ops    geminiOperations
	assets AssetStore
	http   *http.Client
	opts   GeminiOptions
}

func NewGemini(ctx context.Context, cfg config.GeminiConfig, pollInterval time.Duration, httpClient *http.Client, assets AssetStore) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(cli.Models, cli.Operations, assets, httpClient, GeminiOptions{
		APIKey:            cfg.APIKey,
		ImageModel:        cfg.ImageModel,
		VideoModel:        cfg.VideoModel,
		ImproveModel:      cfg.ImproveModel,
		ProThinkingBudget: cfg.ProThinkingBudget,
		PollInterval:      pollInterval,
	}), nil
}

func newGemini(models geminiModels, ops geminiOperations, assets AssetStore, httpClient *http.Client, opts GeminiOptions) *Gemini {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Gemini{models: models, ops: ops, assets: assets, http: httpClient, opts: opts}
}

func (g *Gemini) Deck() DeckGenerator    { return geminiDeck{g} }
func (g *Gemini) Images() ImageGenerator { return geminiImages{g} }
func (g *Gemini) Videos() VideoGenerator { return geminiVideos{g} }

// geminiModelName maps a catalogue id onto the served model.
func geminiModelName(id model.ModelID) string {
	switch id {
	case model.ModelGeminiPro:
		return "gemini-3-pro-preview"
	case model.ModelGeminiFlashLite:
		return "gemini-2.5-flash-lite-latest"
	}
	return "gemini-2.5-flash"
}

func deckResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"conversationalSummary": str("A friendly message to the user explaining what was created."),
			"slides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":               str(""),
						"title":            str(""),
						"contentSummary":   str("Bullet points or main text for the slide"),
						"visualSuggestion": str("A prompt for an image that would fit this slide"),
					},
				},
			},
		},
	}
}

func textContents(text string) []*genai.Content {
	return []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: text}}}}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

type geminiDeck struct{ g *Gemini }

func (d geminiDeck) Generate(ctx context.Context, prompt string, modelID model.ModelID, deckContext string) DeckResult {
	if KindOf(modelID) != KindDeckText {
		return DeckResult{Text: MediaModelReply}
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    deckResponseSchema(),
	}
	if modelID == model.ModelGeminiPro && d.g.opts.ProThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(d.g.opts.ProThinkingBudget)}
	}

	name := geminiModelName(modelID)
	resp, err := d.g.models.GenerateContent(ctx, name, textContents(deckPrompt(prompt, deckContext)), cfg)
	if err != nil {
		logger.WithFields(logger.Fields{"model": name}).Errorf("gemini deck generation failed: %v", err)
		return failedDeck()
	}
	parsed, err := generation.Parse(responseText(resp))
	if err != nil {
		logger.WithFields(logger.Fields{"model": name}).Warnf("gemini deck output rejected: %v", err)
		return failedDeck()
	}
	return DeckResult{Text: parsed.Summary(), Slides: parsed.Slides}
}

type geminiImages struct{ g *Gemini }

func (i geminiImages) Generate(ctx context.Context, prompt, aspectRatio string) string {
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio(KindImage)
	}
	resp, err := i.g.models.GenerateContent(ctx, i.g.opts.ImageModel, textContents(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspectRatio},
	})
	if err != nil {
		logger.Errorf("gemini image generation failed: %v", err)
		return ""
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		return i.g.store(ctx, "images", p.InlineData.MIMEType, p.InlineData.Data)
	}
	logger.Warnf("gemini image response carried no inline data")
	return ""
}

type geminiVideos struct{ g *Gemini }

func (v geminiVideos) Generate(ctx context.Context, prompt, aspectRatio string) string {
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio(KindVideo)
	}
	op, err := v.g.models.GenerateVideos(ctx, v.g.opts.VideoModel, prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		logger.Errorf("gemini video generation failed: %v", err)
		return ""
	}

	ticker := time.NewTicker(v.g.opts.PollInterval)
	defer ticker.Stop()
	for op != nil && !op.Done {
		select {
		case <-ctx.Done():
			logger.Warnf("gemini video polling stopped: %v", ctx.Err())
			return ""
		case <-ticker.C:
		}
		op, err = v.g.ops.GetVideosOperation(ctx, op, nil)
		if err != nil {
			logger.Errorf("gemini video polling failed: %v", err)
			return ""
		}
	}

	if op == nil || op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return ""
	}
	video := op.Response.GeneratedVideos[0].Video
	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	if len(video.VideoBytes) > 0 {
		return v.g.store(ctx, "videos", mime, video.VideoBytes)
	}
	if video.URI == "" {
		return ""
	}
	data, err := v.g.download(ctx, video.URI)
	if err != nil {
		logger.Errorf("gemini video download failed: %v", err)
		return ""
	}
	return v.g.store(ctx, "videos", mime, data)
}

// download fetches a generated file. The key travels in a header so it
// never ends up in a URL handed to clients.
func (g *Gemini) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", g.opts.APIKey)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", uri, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (g *Gemini) store(ctx context.Context, prefix, mimeType string, data []byte) string {
	if g.assets == nil {
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	url, err := g.assets.Put(ctx, prefix+"/"+uuid.NewString(), mimeType, data)
	if err != nil {
		logger.Errorf("store generated asset: %v", err)
		return ""
	}
	return url
}

// Improve rewrites text with the improve model. A failed call returns the
// text marked with ImproveFailureSuffix; an empty answer returns it unchanged.
func (g *Gemini) Improve(ctx context.Context, text string, action ImproveAction) string {
	if _, ok := improveInstructions[action]; !ok {
		return text
	}
	resp, err := g.models.GenerateContent(ctx, g.opts.ImproveModel, textContents(improvePrompt(text, action)), nil)
	if err != nil {
		logger.Errorf("gemini text improvement failed: %v", err)
		return text + ImproveFailureSuffix
	}
	out := strings.TrimSpace(responseText(resp))
	if out == "" {
		return text
	}
	return out
}
