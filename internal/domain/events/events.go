package events

import (
	evbus "github.com/asaskevich/EventBus"
)

// Lifecycle topics published by the moderation pipeline and the delegate
// coordinator. The hub fans these out to the audience groups; the audit
// recorder persists the moderation decisions.
const (
	TopicDrawingAccepted = "drawing:accepted"
	TopicDrawingFlagged  = "drawing:flagged"
	TopicDrawingRemoved  = "drawing:removed"
	TopicDrawingPardoned = "drawing:pardoned"
	TopicConsoleState    = "console:state"
	TopicDelegateOnline  = "delegate:online"
	TopicDelegateOffline = "delegate:offline"
)

// DrawingAccepted is published the moment a drawing is optimistically
// accepted, before any moderation check has run.
type DrawingAccepted struct {
	ID          string      `json:"id"`
	Payload     string      `json:"imagePayload"`
	DisplayHint interface{} `json:"displayHint"`
}

type DrawingFlagged struct {
	ID      string   `json:"drawingId"`
	Reasons []string `json:"reasons"`
}

type DrawingRemoved struct {
	ID     string `json:"drawingId"`
	Reason string `json:"reason"`
}

type DrawingPardoned struct {
	ID string `json:"drawingId"`
}

// ConsoleEntry is one drawing as shown on a moderation console.
type ConsoleEntry struct {
	ID        string `json:"id"`
	Thumbnail string `json:"thumbnail"`
	Flagged   bool   `json:"flagged"`
	Reason    string `json:"reason,omitempty"`
}

// New creates a synchronous event bus. One bus is constructed per server
// process and threaded explicitly; there is no package-level instance.
func New() evbus.Bus {
	return evbus.New()
}
