package model

import (
	"time"

	"github.com/google/uuid"
)

// DragPayloadType distinguishes a palette drag from a reorder drag.
type DragPayloadType string

const (
	DragNewField      DragPayloadType = "new_field"
	DragExistingField DragPayloadType = "existing_field"
)

// DragPayload is what the user is currently dragging.
type DragPayload struct {
	Type    DragPayloadType `json:"type"`
	Kind    FieldKind       `json:"kind,omitempty"`
	FieldID string          `json:"field_id,omitempty"`
}

// NewFieldKind builds a palette drag payload.
func NewFieldKind(kind FieldKind) DragPayload {
	return DragPayload{Type: DragNewField, Kind: kind}
}

// ExistingField builds a reorder drag payload.
func ExistingField(id string) DragPayload {
	return DragPayload{Type: DragExistingField, FieldID: id}
}

// DragState is Idle when Payload is nil.
type DragState struct {
	Payload   *DragPayload `json:"payload,omitempty"`
	OverIndex *int         `json:"over_index,omitempty"`
}

// BuilderSnapshot is the serializable state of a field list editor.
type BuilderSnapshot struct {
	Fields        []Field   `json:"fields"`
	ActiveFieldID string    `json:"active_field_id,omitempty"`
	Drag          DragState `json:"drag"`
	Version       uint64    `json:"version"`
}

// BuilderSession is one admin editing a form. Form carries the header
// metadata; the field list lives in Editor until the session is saved.
// Published forms open read-only. Preview holds the scratch answers typed
// into the preview pane.
type BuilderSession struct {
	ID        uuid.UUID         `json:"id"`
	Form      Form              `json:"form"`
	IsNew     bool              `json:"is_new"`
	ReadOnly  bool              `json:"read_only"`
	Editor    BuilderSnapshot   `json:"editor"`
	Preview   map[string]Answer `json:"preview,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StartSessionRequest opens the builder on a new or existing form.
type StartSessionRequest struct {
	FormID *uuid.UUID `json:"form_id"`
}

// DragStartRequest begins a drag gesture.
type DragStartRequest struct {
	Type    DragPayloadType `json:"type" binding:"required,oneof=new_field existing_field"`
	Kind    FieldKind       `json:"kind" binding:"required_if=Type new_field,omitempty,fieldkind"`
	FieldID string          `json:"field_id" binding:"required_if=Type existing_field"`
}

// Payload converts the request into a drag payload.
func (r DragStartRequest) Payload() DragPayload {
	if r.Type == DragNewField {
		return NewFieldKind(r.Kind)
	}
	return ExistingField(r.FieldID)
}

// DragOverRequest reports the candidate insertion index.
type DragOverRequest struct {
	Index *int `json:"index" binding:"required"`
}

// InsertFieldRequest adds a field from the palette without dragging.
type InsertFieldRequest struct {
	Kind  FieldKind `json:"kind" binding:"required,fieldkind"`
	Index *int      `json:"index"`
}

// SetActiveFieldRequest selects the field open for editing. An empty id
// clears the selection.
type SetActiveFieldRequest struct {
	FieldID string `json:"field_id"`
}

// OptionValueRequest sets the text of a dropdown option.
type OptionValueRequest struct {
	Value string `json:"value" binding:"max=100"`
}

// BuilderEvent is published whenever a session's visible state changes.
type BuilderEvent struct {
	SessionID uuid.UUID       `json:"session_id"`
	Operation string          `json:"operation"`
	Version   uint64          `json:"version"`
	Editor    BuilderSnapshot `json:"editor"`
}
