package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sketchwall-server-go/internal/platform/config"
	platformerrors "sketchwall-server-go/internal/platform/errors"
	"sketchwall-server-go/internal/platform/logging"
)

// Recognizer extracts text from images through an OpenAI-compatible
// vision model. Any moderation keyword matching happens upstream; this
// adapter only transcribes.
type Recognizer struct {
	cfg    config.OpenAIConfig
	client *openai.Client
	logger *logging.Logger
}

func NewRecognizer(cfg config.OpenAIConfig, logger *logging.Logger) (*Recognizer, error) {
	if cfg.APIKey == "" {
		return nil, platformerrors.New(platformerrors.KindClassifier, "init",
			"openai recognizer requires an api key")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Recognizer{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}, nil
}

// Recognize sends the image to the vision model and returns whatever text
// it transcribed.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURI := fmt.Sprintf("data:image/png;base64,%s",
		base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model:       r.cfg.ModelName,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: float32(r.cfg.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: r.cfg.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindClassifier, "recognize",
			"vision completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	r.logger.DebugTag("Classifier", "vision model transcribed %d chars", len(text))
	return text, nil
}
