package classifier

import (
	"context"
	"fmt"
	"strings"

	"sketchwall-server-go/internal/domain/drawing"
	"sketchwall-server-go/internal/platform/logging"
)

// Recognizer extracts text from raw image bytes. Implementations may talk
// to external engines and are allowed to fail; the classifier treats any
// failure as "no text found".
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Classifier screens drawing payloads for blocked words in any text the
// recognizer can extract. Internal failures never escape this boundary;
// they degrade to an empty reason list.
type Classifier struct {
	recognizer Recognizer
	blocked    []string
	logger     *logging.Logger
}

func New(recognizer Recognizer, blockedWords []string, logger *logging.Logger) *Classifier {
	words := make([]string, 0, len(blockedWords))
	for _, w := range blockedWords {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Classifier{
		recognizer: recognizer,
		blocked:    words,
		logger:     logger,
	}
}

// Check returns violation reasons for the payload, or nil when the
// drawing looks clean or the recognizer is unavailable.
func (c *Classifier) Check(ctx context.Context, payload string) (reasons []string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorTag("Classifier", "recognizer panicked: %v", r)
			reasons = nil
		}
	}()

	if c.recognizer == nil || len(c.blocked) == 0 {
		return nil
	}

	text, err := c.recognizer.Recognize(ctx, drawing.DecodePayload(payload))
	if err != nil {
		c.logger.WarnTag("Classifier", "recognize failed, treating as no text: %v", err)
		return nil
	}

	lowered := strings.ToLower(text)
	for _, word := range c.blocked {
		if strings.Contains(lowered, word) {
			reasons = append(reasons, fmt.Sprintf("blocked word: %q", word))
		}
	}
	return reasons
}
