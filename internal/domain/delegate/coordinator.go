package delegate

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/platform/logging"
)

// Sender delivers a correlated scan request to the connected delegate
// process. The hub's delegate client implements it.
type Sender interface {
	SendScan(correlationID uint64, imagePayload string) error
}

type pendingCheck struct {
	id        uint64
	drawingID string
	payload   string
	done      chan []string
	timer     *time.Timer
}

// Coordinator manages the single outstanding delegate connection and the
// table of in-flight shape checks. Each check is completed exactly once,
// by a matching response or by its timeout, whichever fires first.
type Coordinator struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingCheck
	sender  Sender

	timeout time.Duration
	bus     evbus.Bus
	logger  *logging.Logger
}

func NewCoordinator(timeout time.Duration, bus evbus.Bus, logger *logging.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Coordinator{
		pending: make(map[uint64]*pendingCheck),
		timeout: timeout,
		bus:     bus,
		logger:  logger,
	}
}

// Attach installs the active delegate connection. The last registered
// connection wins; checks dispatched to a replaced connection are not
// invalidated and simply time out if unanswered. All currently pending
// checks are replayed to the new connection.
func (c *Coordinator) Attach(s Sender) {
	c.mu.Lock()
	c.sender = s
	replay := make([]*pendingCheck, 0, len(c.pending))
	for _, p := range c.pending {
		replay = append(replay, p)
	}
	c.mu.Unlock()

	c.logger.InfoTag("Delegate", "delegate connected, replaying %d pending checks", len(replay))
	for _, p := range replay {
		if err := s.SendScan(p.id, p.payload); err != nil {
			c.logger.WarnTag("Delegate", "replay of check %d failed: %v", p.id, err)
		}
	}

	if c.bus != nil {
		c.bus.Publish(events.TopicDelegateOnline)
	}
}

// Detach clears the connection if s is still the active one. Pending
// checks stay registered: a reconnecting delegate may still answer them
// within the timeout window.
func (c *Coordinator) Detach(s Sender) {
	c.mu.Lock()
	if c.sender != s {
		c.mu.Unlock()
		return
	}
	c.sender = nil
	c.mu.Unlock()

	c.logger.InfoTag("Delegate", "delegate disconnected")
	if c.bus != nil {
		c.bus.Publish(events.TopicDelegateOffline)
	}
}

// Online reports whether a delegate connection is currently active.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sender != nil
}

// PendingCount reports the number of unresolved checks.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Check dispatches a correlated shape check and blocks until the delegate
// responds or the bounded wait elapses. A timeout degrades to an empty
// reason list; the pipeline is never blocked indefinitely.
func (c *Coordinator) Check(ctx context.Context, drawingID, imagePayload string) []string {
	c.mu.Lock()
	c.nextID++
	p := &pendingCheck{
		id:        c.nextID,
		drawingID: drawingID,
		payload:   imagePayload,
		done:      make(chan []string, 1),
	}
	c.pending[p.id] = p
	p.timer = time.AfterFunc(c.timeout, func() {
		if c.complete(p.id, nil) {
			c.logger.WarnTag("Delegate", "check %d for drawing %s timed out after %s",
				p.id, drawingID, c.timeout)
		}
	})
	sender := c.sender
	c.mu.Unlock()

	if sender != nil {
		if err := sender.SendScan(p.id, imagePayload); err != nil {
			c.logger.WarnTag("Delegate", "scan request %d failed to send: %v", p.id, err)
		}
	}

	select {
	case reasons := <-p.done:
		return reasons
	case <-ctx.Done():
		c.complete(p.id, nil)
		return nil
	}
}

// Resolve completes the pending check matching correlationID with the
// delegate's reasons. Unknown or duplicate ids are ignored.
func (c *Coordinator) Resolve(correlationID uint64, reasons []string) {
	if !c.complete(correlationID, reasons) {
		c.logger.DebugTag("Delegate", "ignoring response for unknown check %d", correlationID)
	}
}

// complete removes the pending entry and delivers the result. Returns
// false when the check was already completed, making the response/timeout
// race safe: exactly one side wins.
func (c *Coordinator) complete(correlationID uint64, reasons []string) bool {
	c.mu.Lock()
	p, ok := c.pending[correlationID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, correlationID)
	c.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.done <- reasons
	return true
}
