package hub

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"sketchwall-server-go/internal/platform/logging"
)

// Conn is the transport-level connection a client speaks over. The
// websocket transport's Connection satisfies it; tests use in-memory
// fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage(stopChan <-chan struct{}) (int, []byte, error)
	Close() error
	GetID() string
	IsClosed() bool
}

// Client is one registered socket. It runs the read loop, dispatches
// inbound messages, and acts as the delegate Sender when its role is
// delegate.
type Client struct {
	conn      Conn
	hub       *Hub
	moderator Moderator
	delegates Delegates
	logger    *logging.Logger

	role Role // guarded by hub.mu

	stopOnce sync.Once
	stop     chan struct{}
}

func NewClient(conn Conn, h *Hub, moderator Moderator, delegates Delegates, logger *logging.Logger) *Client {
	return &Client{
		conn:      conn,
		hub:       h,
		moderator: moderator,
		delegates: delegates,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// ID returns the underlying connection id.
func (c *Client) ID() string {
	return c.conn.GetID()
}

// GetSessionID implements the websocket session handler contract.
func (c *Client) GetSessionID() string {
	return c.ID()
}

// Handle runs the read loop until the socket closes.
func (c *Client) Handle() {
	for {
		_, data, err := c.conn.ReadMessage(c.stop)
		if err != nil {
			return
		}
		c.dispatch(data)
	}
}

// Close tears the client down and leaves its group.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.hub.Unregister(c)
		_ = c.conn.Close()
	})
}

// Send frames and writes one message to this client only.
func (c *Client) Send(msgType string, payload interface{}) {
	data, err := Encode(msgType, payload)
	if err != nil {
		c.logger.ErrorTag("Hub", "encode %s for %s: %v", msgType, c.ID(), err)
		return
	}
	if err := c.sendRaw(data); err != nil {
		c.logger.DebugTag("Hub", "send %s to %s: %v", msgType, c.ID(), err)
	}
}

func (c *Client) sendRaw(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendScan implements delegate.Sender: forward a correlated scan request
// to the delegate process behind this socket.
func (c *Client) SendScan(correlationID uint64, imagePayload string) error {
	data, err := Encode(MsgScanRequest, ScanRequestPayload{
		CorrelationID: correlationID,
		ImagePayload:  imagePayload,
	})
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

func (c *Client) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.WarnTag("Hub", "malformed frame from %s: %v", c.ID(), err)
		return
	}

	switch env.Type {
	case MsgRegister:
		var p RegisterPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.logger.WarnTag("Hub", "bad register from %s: %v", c.ID(), err)
			return
		}
		c.hub.Register(c, Role(p.Role))

	case MsgDrawing:
		var p DrawingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.logger.WarnTag("Hub", "bad drawing from %s: %v", c.ID(), err)
			return
		}
		c.moderator.Submit(p.ImagePayload, p.DisplayHint)

	case MsgScanResponse:
		if c.currentRole() != RoleDelegate {
			c.logger.WarnTag("Hub", "scan-response from non-delegate %s ignored", c.ID())
			return
		}
		var p ScanResponsePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.logger.WarnTag("Hub", "bad scan-response from %s: %v", c.ID(), err)
			return
		}
		c.delegates.Resolve(p.CorrelationID, p.Reasons)

	case MsgRemoveDrawing:
		if c.currentRole() != RoleConsole {
			return
		}
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			c.logger.WarnTag("Hub", "bad remove from %s: %v", c.ID(), err)
			return
		}
		c.moderator.Remove(id, "removed by moderator")

	case MsgPardonDrawing:
		if c.currentRole() != RoleConsole {
			return
		}
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			c.logger.WarnTag("Hub", "bad pardon from %s: %v", c.ID(), err)
			return
		}
		c.moderator.Pardon(id)

	default:
		c.logger.DebugTag("Hub", "unhandled message %q from %s", env.Type, c.ID())
	}
}

func (c *Client) currentRole() Role {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.role
}
