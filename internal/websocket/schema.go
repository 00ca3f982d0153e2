package websocket

import (
	"encoding/json"

	"github.com/stemsi/formcraft-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing      Action = "ping"
	ActionDragStart Action = "drag_start"
	ActionDragOver  Action = "drag_over"
	ActionDrop      Action = "drop"
	ActionCancel    Action = "cancel"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action          `json:"action"`
	Raw    json.RawMessage `json:"-"`
}

// DragStartRequest begins a gesture over the socket.
type DragStartRequest struct {
	Action  Action            `json:"action"`
	Payload model.DragPayload `json:"payload"`
}

// DragOverRequest reports the hovered insertion index. Sent on every
// pointer move; repeated indexes are ignored server side.
type DragOverRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventState    Event = "state"
	EventPong     Event = "pong"
)

// SnapshotResponse is the first message after connecting.
type SnapshotResponse struct {
	Event   Event                `json:"event"`
	Session model.BuilderSession `json:"session"`
}

// StateResponse wraps a builder event published by any instance.
type StateResponse struct {
	Event Event              `json:"event"`
	State model.BuilderEvent `json:"state"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
