package hub

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"sketchwall-server-go/internal/domain/delegate"
	"sketchwall-server-go/internal/domain/drawing"
	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/platform/logging"
)

// Moderator is the subset of pipeline operations driven from sockets.
type Moderator interface {
	Submit(imagePayload string, displayHint interface{}) string
	Remove(id, reason string)
	Pardon(id string)
	ConsoleState() []events.ConsoleEntry
}

// Delegates tracks the single shape-check delegate connection.
type Delegates interface {
	Attach(delegate.Sender)
	Detach(delegate.Sender)
	Online() bool
	Resolve(correlationID uint64, reasons []string)
}

// Drawings exposes the registry contents needed for display replay.
type Drawings interface {
	List() []drawing.Drawing
}

// Hub owns audience group membership and multicasts lifecycle events to
// each group. It subscribes to the event bus; the moderation pipeline
// never talks to sockets directly.
type Hub struct {
	mu     sync.RWMutex
	groups map[Group]map[string]*Client

	moderator Moderator
	delegates Delegates
	drawings  Drawings
	logger    *logging.Logger
}

func New(moderator Moderator, delegates Delegates, drawings Drawings, logger *logging.Logger) *Hub {
	groups := make(map[Group]map[string]*Client)
	for _, g := range []Group{GroupDisplay, GroupConsole, GroupDelegate} {
		groups[g] = make(map[string]*Client)
	}
	return &Hub{
		groups:    groups,
		moderator: moderator,
		delegates: delegates,
		drawings:  drawings,
		logger:    logger,
	}
}

// BindBus subscribes the hub's fan-out handlers to the lifecycle topics.
func (h *Hub) BindBus(bus evbus.Bus) error {
	subs := map[string]interface{}{
		events.TopicDrawingAccepted: h.onDrawingAccepted,
		events.TopicDrawingFlagged:  h.onDrawingFlagged,
		events.TopicDrawingRemoved:  h.onDrawingRemoved,
		events.TopicDrawingPardoned: h.onDrawingPardoned,
		events.TopicConsoleState:    h.onConsoleState,
		events.TopicDelegateOnline:  func() { h.Publish(GroupConsole, MsgDelegateOnline, nil) },
		events.TopicDelegateOffline: func() { h.Publish(GroupConsole, MsgDelegateOffline, nil) },
	}
	for topic, fn := range subs {
		if err := bus.Subscribe(topic, fn); err != nil {
			return err
		}
	}
	return nil
}

// Register joins a client to the group for its declared role and replays
// whatever state a late joiner needs to converge.
func (h *Hub) Register(c *Client, role Role) bool {
	group, ok := GroupForRole(role)
	if !ok {
		h.logger.WarnTag("Hub", "client %s declared unknown role %q", c.ID(), role)
		return false
	}

	h.mu.Lock()
	c.role = role
	h.groups[group][c.ID()] = c
	h.mu.Unlock()

	h.logger.InfoTag("Hub", "client %s joined group %s", c.ID(), group)

	switch role {
	case RoleDisplay:
		h.replayToDisplay(c)
	case RoleConsole:
		h.replayToConsole(c)
	case RoleDelegate:
		// Last registered delegate wins; the coordinator replays any
		// outstanding checks and announces the status change.
		h.delegates.Attach(c)
	}
	return true
}

// Unregister drops a client from its group. A departing delegate is
// detached from the coordinator, which announces the offline status.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	role := c.role
	if group, ok := GroupForRole(role); ok {
		delete(h.groups[group], c.ID())
	}
	h.mu.Unlock()

	if role == RoleDelegate {
		h.delegates.Detach(c)
	}
}

// Publish multicasts one message to every member of a group. Delivery is
// best effort; write failures drop the slow socket's message and are
// logged only.
func (h *Hub) Publish(group Group, msgType string, payload interface{}) {
	data, err := Encode(msgType, payload)
	if err != nil {
		h.logger.ErrorTag("Hub", "encode %s: %v", msgType, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if err := c.sendRaw(data); err != nil {
			h.logger.DebugTag("Hub", "drop %s to %s: %v", msgType, c.ID(), err)
		}
	}
}

// GroupSize reports current membership, mostly for the status API.
func (h *Hub) GroupSize(group Group) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) onDrawingAccepted(e events.DrawingAccepted) {
	h.Publish(GroupDisplay, MsgNewDrawing, NewDrawingPayload{
		ID:           e.ID,
		ImagePayload: e.Payload,
		DisplayHint:  e.DisplayHint,
	})
}

func (h *Hub) onDrawingFlagged(e events.DrawingFlagged) {
	h.Publish(GroupDisplay, MsgFlagDrawing, FlagDrawingPayload{DrawingID: e.ID})
	h.Publish(GroupConsole, MsgDrawingFlagged, DrawingFlaggedPayload{
		DrawingID: e.ID,
		Reasons:   e.Reasons,
	})
}

func (h *Hub) onDrawingRemoved(e events.DrawingRemoved) {
	h.Publish(GroupDisplay, MsgRemoveDrawing, e.ID)
	h.Publish(GroupConsole, MsgDrawingRemoved, DrawingRemovedPayload{
		DrawingID: e.ID,
		Reason:    e.Reason,
	})
}

func (h *Hub) onDrawingPardoned(e events.DrawingPardoned) {
	h.Publish(GroupDisplay, MsgPardonDrawing, PardonDrawingPayload{DrawingID: e.ID})
}

func (h *Hub) onConsoleState(state []events.ConsoleEntry) {
	h.Publish(GroupConsole, MsgModerationState, state)
}

// replayToDisplay catches a late-joining display up: one new-drawing per
// live drawing, followed by a flag for any already-flagged drawing.
func (h *Hub) replayToDisplay(c *Client) {
	for _, d := range h.drawings.List() {
		c.Send(MsgNewDrawing, NewDrawingPayload{
			ID:           d.ID,
			ImagePayload: d.Payload,
			DisplayHint:  d.DisplayHint,
		})
	}
	for _, d := range h.drawings.List() {
		if d.Flagged {
			c.Send(MsgFlagDrawing, FlagDrawingPayload{DrawingID: d.ID})
		}
	}
}

// replayToConsole sends the full moderation snapshot and current
// delegate status to a newly joined console.
func (h *Hub) replayToConsole(c *Client) {
	c.Send(MsgModerationState, h.moderator.ConsoleState())
	if h.delegates.Online() {
		c.Send(MsgDelegateOnline, nil)
	} else {
		c.Send(MsgDelegateOffline, nil)
	}
}
