package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"devdecks-backend/internal/config"
	"devdecks-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// openaiChatModel adapts go-openai to eino's ChatModel.
type openaiChatModel struct {
	client *openai.Client
	model  string
}

func newOpenAIChatModel(cfg config.OpenAIConfig) *openaiChatModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &openaiChatModel{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: convertMessages(messages),
	}
	// Deck answers must be bare JSON.
	if hasSystemPrompt(messages) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}
	logger.Debugf("openai completion: model=%s tokens=%d", m.model, resp.Usage.TotalTokens)

	return &schema.Message{
		Role:    schema.Assistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	stream, err := m.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: convertMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](100)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, err)
				return
			}
			if len(response.Choices) > 0 && response.Choices[0].Delta.Content != "" {
				writer.Send(&schema.Message{
					Role:    schema.Assistant,
					Content: response.Choices[0].Delta.Content,
				}, nil)
			}
		}
	}()

	return reader, nil
}

// BindTools is a no-op: deck generation never calls tools.
func (m *openaiChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func hasSystemPrompt(messages []*schema.Message) bool {
	for _, msg := range messages {
		if msg.Role == schema.System {
			return true
		}
	}
	return false
}

func convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		case schema.System:
			role = openai.ChatMessageRoleSystem
		}
		// Empty assistant turns are rejected by the API.
		if msg.Content == "" && role == openai.ChatMessageRoleAssistant {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return result
}
