package hub

import "encoding/json"

// Role declared by a client on its register message.
type Role string

const (
	RoleDisplay  Role = "display"
	RoleConsole  Role = "moderation-console"
	RoleDelegate Role = "delegate"
)

// Group is a multicast audience. Display and console groups hold many
// sockets; the delegate group holds at most one active connection.
type Group string

const (
	GroupDisplay  Group = "display"
	GroupConsole  Group = "moderation-console"
	GroupDelegate Group = "delegate"
)

// GroupForRole maps a declared role onto its audience group.
func GroupForRole(role Role) (Group, bool) {
	switch role {
	case RoleDisplay:
		return GroupDisplay, true
	case RoleConsole:
		return GroupConsole, true
	case RoleDelegate:
		return GroupDelegate, true
	}
	return "", false
}

// Wire message types.
const (
	MsgRegister        = "register"
	MsgDrawing         = "drawing"
	MsgNewDrawing      = "new-drawing"
	MsgFlagDrawing     = "flag-drawing"
	MsgPardonDrawing   = "pardon-drawing"
	MsgRemoveDrawing   = "remove-drawing"
	MsgModerationState = "moderation-state"
	MsgDrawingFlagged  = "drawing-flagged"
	MsgDrawingRemoved  = "drawing-removed"
	MsgDelegateOnline  = "delegate-online"
	MsgDelegateOffline = "delegate-offline"
	MsgScanRequest     = "scan-request"
	MsgScanResponse    = "scan-response"
)

// Envelope frames every message on the channel.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type RegisterPayload struct {
	Role string `json:"role"`
}

type DrawingPayload struct {
	ImagePayload string      `json:"imagePayload"`
	DisplayHint  interface{} `json:"displayHint,omitempty"`
}

type NewDrawingPayload struct {
	ID           string      `json:"id"`
	ImagePayload string      `json:"imagePayload"`
	DisplayHint  interface{} `json:"displayHint,omitempty"`
}

type FlagDrawingPayload struct {
	DrawingID string `json:"drawingId"`
}

type PardonDrawingPayload struct {
	DrawingID string `json:"drawingId"`
}

type DrawingFlaggedPayload struct {
	DrawingID string   `json:"drawingId"`
	Reasons   []string `json:"reasons"`
}

type DrawingRemovedPayload struct {
	DrawingID string `json:"drawingId"`
	Reason    string `json:"reason"`
}

type ScanRequestPayload struct {
	CorrelationID uint64 `json:"correlationId"`
	ImagePayload  string `json:"imagePayload"`
}

type ScanResponsePayload struct {
	CorrelationID uint64   `json:"correlationId"`
	Reasons       []string `json:"reasons"`
}

// Encode frames a payload into an envelope, ready for the socket.
func Encode(msgType string, payload interface{}) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
