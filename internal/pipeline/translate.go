package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/config"
)

// Translator rewrites a transcript into the target language through a
// chat-completion endpoint.
type Translator struct {
	cfg    config.Config
	client *openai.Client
	log    *zap.Logger
}

// NewTranslator builds a chat-completion client against cfg.ChatEndpoint,
// sharing the pipeline HTTP client.
func NewTranslator(cfg config.Config, httpClient *http.Client, log *zap.Logger) *Translator {
	cc := openai.DefaultConfig(cfg.ChatKey())
	if cfg.ChatEndpoint != "" {
		cc.BaseURL = cfg.ChatEndpoint
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	return &Translator{cfg: cfg, client: openai.NewClientWithConfig(cc), log: log}
}

// Translate sends the transcript with the given system prompt and returns the
// model's reply. Errors are returned as-is; the caller decides whether the
// transcript survives without translation.
func (t *Translator) Translate(ctx context.Context, systemPrompt, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.ChatTimeout)*time.Second)
	defer cancel()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.cfg.ChatModel,
		Temperature: float32(t.cfg.ChatTemperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("chat completion returned empty text")
	}
	return out, nil
}
