package moderation

import (
	"context"
	"strings"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"sketchwall-server-go/internal/domain/classifier"
	"sketchwall-server-go/internal/domain/delegate"
	"sketchwall-server-go/internal/domain/drawing"
	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/domain/thumbnail"
	"sketchwall-server-go/internal/platform/logging"
	"sketchwall-server-go/internal/platform/observability"
)

// AutoRemoveReason is recorded when the post-flag timer removes a drawing.
const AutoRemoveReason = "auto-removed after flag"

// Config tunes the pipeline timings.
type Config struct {
	AutoRemoveDelay time.Duration
	ThumbnailMaxDim int
}

// Pipeline drives the drawing lifecycle: optimistic publish, the two
// moderation checks, the flag decision, and timed auto-removal. Events
// are published on the bus; the hub and the audit recorder subscribe.
type Pipeline struct {
	cfg         Config
	registry    *drawing.Registry
	classifier  *classifier.Classifier
	coordinator *delegate.Coordinator
	bus         evbus.Bus
	logger      *logging.Logger

	baseCtx context.Context
}

func NewPipeline(
	ctx context.Context,
	cfg Config,
	registry *drawing.Registry,
	cls *classifier.Classifier,
	coordinator *delegate.Coordinator,
	bus evbus.Bus,
	logger *logging.Logger,
) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.AutoRemoveDelay <= 0 {
		cfg.AutoRemoveDelay = 5 * time.Second
	}
	return &Pipeline{
		cfg:         cfg,
		registry:    registry,
		classifier:  cls,
		coordinator: coordinator,
		bus:         bus,
		logger:      logger,
		baseCtx:     ctx,
	}
}

// Submit accepts a drawing, broadcasts it to displays immediately, and
// runs the moderation checks on their own goroutine. Display always
// happens before any check completes.
func (p *Pipeline) Submit(imagePayload string, displayHint interface{}) string {
	id := uuid.New().String()
	d := drawing.Drawing{
		ID:          id,
		Payload:     imagePayload,
		DisplayHint: displayHint,
		Thumbnail:   thumbnail.FromPayload(imagePayload, p.cfg.ThumbnailMaxDim),
		CreatedAt:   time.Now(),
	}

	p.registry.Insert(d)
	p.bus.Publish(events.TopicDrawingAccepted, events.DrawingAccepted{
		ID:          id,
		Payload:     imagePayload,
		DisplayHint: displayHint,
	})
	p.publishConsoleState()

	p.logger.InfoTag("Moderation", "accepted drawing %s, checks pending", id)
	go p.moderate(d)

	return id
}

// moderate runs the classifier stage followed by the delegated shape
// check. Classifier reasons always precede delegate reasons in the
// accumulated list.
func (p *Pipeline) moderate(d drawing.Drawing) {
	ctx, spanEnd := observability.StartSpan(p.baseCtx, "moderation.pipeline", "moderate")
	defer spanEnd(nil)

	reasons := p.classifier.Check(ctx, d.Payload)

	// The shape check is dispatched even with no delegate connected: the
	// coordinator keeps it registered and replays it to a delegate that
	// connects before the timeout fires.
	if !p.coordinator.Online() {
		p.logger.DebugTag("Moderation", "no delegate connected, shape check for %s is queued", d.ID)
	}
	reasons = append(reasons, p.coordinator.Check(ctx, d.ID, d.Payload)...)

	if len(reasons) == 0 {
		p.logger.DebugTag("Moderation", "drawing %s is clean", d.ID)
		return
	}

	if !p.registry.Flag(d.ID, strings.Join(reasons, ", ")) {
		// Removed while the checks were in flight; nothing left to flag.
		return
	}

	p.logger.InfoTag("Moderation", "flagged drawing %s: %s", d.ID, strings.Join(reasons, ", "))
	p.bus.Publish(events.TopicDrawingFlagged, events.DrawingFlagged{
		ID:      d.ID,
		Reasons: reasons,
	})
	p.publishConsoleState()

	p.registry.ScheduleRemoval(d.ID, p.cfg.AutoRemoveDelay, func(id string) {
		p.Remove(id, AutoRemoveReason)
	})
}

// Remove deletes a drawing and announces it. Unknown ids are a no-op.
func (p *Pipeline) Remove(id, reason string) {
	if _, ok := p.registry.Remove(id); !ok {
		return
	}

	p.logger.InfoTag("Moderation", "removed drawing %s: %s", id, reason)
	p.bus.Publish(events.TopicDrawingRemoved, events.DrawingRemoved{
		ID:     id,
		Reason: reason,
	})
	p.publishConsoleState()
}

// Pardon clears a drawing's flag and cancels its auto-removal timer,
// returning it to the clean terminal state. Checks are not re-run.
func (p *Pipeline) Pardon(id string) {
	if !p.registry.Pardon(id) {
		return
	}

	p.logger.InfoTag("Moderation", "pardoned drawing %s", id)
	p.bus.Publish(events.TopicDrawingPardoned, events.DrawingPardoned{ID: id})
	p.publishConsoleState()
}

// ConsoleState snapshots every live drawing for the moderation consoles.
func (p *Pipeline) ConsoleState() []events.ConsoleEntry {
	list := p.registry.List()
	state := make([]events.ConsoleEntry, 0, len(list))
	for _, d := range list {
		state = append(state, events.ConsoleEntry{
			ID:        d.ID,
			Thumbnail: d.Thumbnail,
			Flagged:   d.Flagged,
			Reason:    d.Reason,
		})
	}
	return state
}

func (p *Pipeline) publishConsoleState() {
	p.bus.Publish(events.TopicConsoleState, p.ConsoleState())
}
