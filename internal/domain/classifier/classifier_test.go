package classifier

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"sketchwall-server-go/internal/platform/logging"
)

func fixedText(text string) Recognizer {
	return RecognizerFunc(func(context.Context, []byte) (string, error) {
		return text, nil
	})
}

func TestCheckFindsBlockedWords(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		blocked []string
		want    []string
	}{
		{
			name:    "single match",
			text:    "look at this FOO drawing",
			blocked: []string{"foo"},
			want:    []string{`blocked word: "foo"`},
		},
		{
			name:    "clean text",
			text:    "a perfectly fine cat",
			blocked: []string{"foo", "bar"},
			want:    nil,
		},
		{
			name:    "multiple matches keep configured order",
			text:    "bar then foo",
			blocked: []string{"foo", "bar"},
			want:    []string{`blocked word: "foo"`, `blocked word: "bar"`},
		},
		{
			name:    "empty recognized text",
			text:    "",
			blocked: []string{"foo"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(fixedText(tt.text), tt.blocked, logging.NewDiscard())
			got := c.Check(context.Background(), "payload")
			if len(got) != len(tt.want) {
				t.Fatalf("Check = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("reason[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCheckSwallowsRecognizerError(t *testing.T) {
	failing := RecognizerFunc(func(context.Context, []byte) (string, error) {
		return "", errors.New("engine offline")
	})
	c := New(failing, []string{"foo"}, logging.NewDiscard())

	if got := c.Check(context.Background(), "payload"); got != nil {
		t.Fatalf("expected nil reasons on recognizer error, got %v", got)
	}
}

func TestCheckSwallowsRecognizerPanic(t *testing.T) {
	panicking := RecognizerFunc(func(context.Context, []byte) (string, error) {
		panic("engine exploded")
	})
	c := New(panicking, []string{"foo"}, logging.NewDiscard())

	if got := c.Check(context.Background(), "payload"); got != nil {
		t.Fatalf("expected nil reasons on recognizer panic, got %v", got)
	}
}

func TestCheckWithoutRecognizer(t *testing.T) {
	c := New(nil, []string{"foo"}, logging.NewDiscard())
	if got := c.Check(context.Background(), "payload"); got != nil {
		t.Fatalf("expected nil reasons without recognizer, got %v", got)
	}
}

func TestCheckDecodesBase64Payload(t *testing.T) {
	var seen []byte
	capture := RecognizerFunc(func(_ context.Context, image []byte) (string, error) {
		seen = image
		return "", nil
	})
	c := New(capture, []string{"foo"}, logging.NewDiscard())

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	c.Check(context.Background(), payload)

	if string(seen) != string(raw) {
		t.Fatalf("recognizer received %v, want decoded %v", seen, raw)
	}
}
