package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"devdecks-backend/internal/config"
	"devdecks-backend/internal/utils"
	"devdecks-backend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	return key
}

func NewDoubaoChatModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Doubao API Key: %s, Model: %s", maskKey(cfg.APIKey), cfg.Model)

	arkCfg := &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.BaseURL != "" {
		arkCfg.BaseURL = cfg.BaseURL
	}
	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}
	return chatModel, nil
}

func NewOpenAIChatModel(cfg config.OpenAIConfig) einoModel.ChatModel {
	logger.Infof("Using OpenAI Model: %s", cfg.Model)
	return newOpenAIChatModel(cfg)
}

func NewQwenChatModel(ctx context.Context, cfg config.QwenConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Qwen Model: %s, BaseURL: %s, API Key: %s", cfg.Model, cfg.BaseURL, maskKey(cfg.APIKey))

	httpClient := utils.WrapTransport(utils.NewHTTPClient(cfg.Timeout), func(rt http.RoundTripper) http.RoundTripper {
		return NewDebugTransport(rt, "qwen", cfg.DebugRequest)
	})

	qwenCfg := &qwen.ChatModelConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		HTTPClient: httpClient,
	}
	if cfg.MaxTokens > 0 {
		qwenCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		qwenCfg.Temperature = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		qwenCfg.TopP = &cfg.TopP
	}

	chatModel, err := qwen.NewChatModel(ctx, qwenCfg)
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	logger.Infof("Qwen request debugging enabled: %v", cfg.DebugRequest)
	return chatModel, nil
}

// DebugTransport logs outgoing POST requests with credentials redacted.
type DebugTransport struct {
	base    http.RoundTripper
	name    string
	enabled bool
}

func NewDebugTransport(base http.RoundTripper, name string, enabled bool) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, name: name, enabled: enabled}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.enabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.enabled {
		logger.WithFields(logger.Fields{"provider": t.name}).Errorf("request failed: %v", err)
	}
	return resp, err
}

func (t *DebugTransport) logRequest(req *http.Request) {
	entry := logger.WithFields(logger.Fields{"provider": t.name, "method": req.Method, "url": req.URL.String()})

	headers := make([]string, 0, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers = append(headers, name+": [REDACTED]")
			continue
		}
		headers = append(headers, name+": "+strings.Join(values, ", "))
	}
	entry = entry.WithField("headers", headers)

	if req.Body == nil {
		entry.Info("outgoing request")
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		entry.Errorf("read request body: %v", err)
		return
	}
	// Restore the body for the real round trip.
	req.Body = io.NopCloser(bytes.NewReader(body))

	entry.WithField("size", len(body)).Infof("outgoing request: %s", redactJSON(string(body)))
}

var sensitiveFieldPattern = regexp.MustCompile(`(?i)"(api_key|apikey|password|secret|token)"\s*:\s*"[^"]*"`)

func redactJSON(body string) string {
	return sensitiveFieldPattern.ReplaceAllString(body, `"$1": "[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "x-auth-token", "cookie", "x-goog-api-key":
		return true
	}
	return false
}
