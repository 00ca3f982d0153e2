package builder

import (
	"github.com/stemsi/formcraft-backend/internal/model"
)

// DropResult describes what a drop committed.
type DropResult struct {
	Changed bool   `json:"changed"`
	FieldID string `json:"field_id,omitempty"`
	Index   int    `json:"index"`
}

// FieldListController owns the ordered field list of one form being built,
// the active field selection and the state of the current drag gesture.
//
// The list is never mutated in place: each operation builds a new slice and
// swaps it in, so slices handed out earlier stay valid. Version increases on
// every observable change and is left alone by no-ops and rejections.
//
// A controller is not safe for concurrent use.
type FieldListController struct {
	fields   []model.Field
	activeID string
	drag     model.DragState
	version  uint64
}

// NewFieldListController starts an idle controller over a copy of fields.
func NewFieldListController(fields []model.Field) *FieldListController {
	return &FieldListController{fields: cloneFields(fields)}
}

// RestoreFieldListController rebuilds a controller from a snapshot.
func RestoreFieldListController(s model.BuilderSnapshot) *FieldListController {
	c := &FieldListController{
		fields:   cloneFields(s.Fields),
		activeID: s.ActiveFieldID,
		drag:     cloneDrag(s.Drag),
		version:  s.Version,
	}
	if c.activeID != "" && c.indexOf(c.activeID) < 0 {
		c.activeID = ""
	}
	return c
}

// Snapshot returns a deep copy of the controller state.
func (c *FieldListController) Snapshot() model.BuilderSnapshot {
	return model.BuilderSnapshot{
		Fields:        cloneFields(c.fields),
		ActiveFieldID: c.activeID,
		Drag:          cloneDrag(c.drag),
		Version:       c.version,
	}
}

// Fields returns a copy of the current list.
func (c *FieldListController) Fields() []model.Field {
	return cloneFields(c.fields)
}

func (c *FieldListController) Len() int { return len(c.fields) }

func (c *FieldListController) Version() uint64 { return c.version }

func (c *FieldListController) ActiveID() string { return c.activeID }

// Dragging reports whether a drag gesture is in progress.
func (c *FieldListController) Dragging() bool { return c.drag.Payload != nil }

// Field looks a field up by id.
func (c *FieldListController) Field(id string) (model.Field, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return model.Field{}, false
	}
	return c.fields[i].Clone(), true
}

// ─── Drag gesture ──────────────────────────────────────────────────────

// DragStart moves the controller into the dragging state. Any active field
// is deselected while dragging.
func (c *FieldListController) DragStart(p model.DragPayload) error {
	switch p.Type {
	case model.DragNewField:
		if !p.Kind.Valid() {
			return ErrUnknownKind
		}
	case model.DragExistingField:
		if c.indexOf(p.FieldID) < 0 {
			return ErrFieldNotFound
		}
	default:
		return invalidPatch("unknown drag payload")
	}

	payload := p
	c.drag = model.DragState{Payload: &payload}
	c.activeID = ""
	c.touch()
	return nil
}

// DragOver records the candidate insertion index, clamped to [0, len].
// It reports whether the state changed; a repeated index is ignored so
// callers can skip re-rendering.
func (c *FieldListController) DragOver(index int) bool {
	if c.drag.Payload == nil {
		return false
	}
	index = clamp(index, len(c.fields))
	if c.drag.OverIndex != nil && *c.drag.OverIndex == index {
		return false
	}
	c.drag.OverIndex = &index
	c.touch()
	return true
}

// Cancel abandons the gesture without touching the list.
func (c *FieldListController) Cancel() {
	if c.drag.Payload == nil {
		return
	}
	c.drag = model.DragState{}
	c.touch()
}

// Drop commits the gesture and returns to idle. Dropping without a payload
// is a no-op. A rejected drop still ends the gesture but leaves the list
// and the selection untouched.
func (c *FieldListController) Drop() (DropResult, error) {
	if c.drag.Payload == nil {
		return DropResult{}, nil
	}

	payload := *c.drag.Payload
	over := c.drag.OverIndex
	c.drag = model.DragState{}
	defer c.touch()

	if payload.Type == model.DragNewField {
		field, idx, err := c.insertNew(payload.Kind, over)
		if err != nil {
			return DropResult{}, err
		}
		return DropResult{Changed: true, FieldID: field.ID, Index: idx}, nil
	}

	src := c.indexOf(payload.FieldID)
	if src < 0 {
		return DropResult{}, ErrFieldNotFound
	}

	moved := c.fields[src]
	rest := make([]model.Field, 0, len(c.fields))
	rest = append(rest, c.fields[:src]...)
	rest = append(rest, c.fields[src+1:]...)

	target := len(rest)
	if over != nil {
		target = clamp(*over, len(rest))
	}
	if target == src {
		return DropResult{FieldID: moved.ID, Index: src}, nil
	}

	c.fields = insertAt(rest, target, moved)
	return DropResult{Changed: true, FieldID: moved.ID, Index: target}, nil
}

// ─── List operations ───────────────────────────────────────────────────

// Insert adds a new field of kind at index (appended when nil) and makes
// it active. It follows the same rules as dropping a palette item.
func (c *FieldListController) Insert(kind model.FieldKind, index *int) (model.Field, error) {
	field, _, err := c.insertNew(kind, index)
	if err != nil {
		return model.Field{}, err
	}
	c.touch()
	return field.Clone(), nil
}

func (c *FieldListController) insertNew(kind model.FieldKind, index *int) (model.Field, int, error) {
	if MaxFieldsReached(c.fields) {
		return model.Field{}, 0, ErrMaxFields
	}
	field, err := NewField(kind)
	if err != nil {
		return model.Field{}, 0, err
	}

	idx := len(c.fields)
	if index != nil {
		idx = clamp(*index, len(c.fields))
	}
	c.fields = insertAt(c.fields, idx, field)
	c.activeID = field.ID
	return field, idx, nil
}

// Update applies patch to the field with the given id.
func (c *FieldListController) Update(id string, patch model.FieldPatch) (model.Field, error) {
	return c.replace(id, func(f model.Field) (model.Field, error) {
		return UpdateField(f, patch)
	})
}

func (c *FieldListController) AddOption(id string) (model.Field, error) {
	return c.replace(id, AddOption)
}

func (c *FieldListController) UpdateOption(id string, optionID int, value string) (model.Field, error) {
	return c.replace(id, func(f model.Field) (model.Field, error) {
		return UpdateOption(f, optionID, value)
	})
}

func (c *FieldListController) DeleteOption(id string, optionID int) (model.Field, error) {
	return c.replace(id, func(f model.Field) (model.Field, error) {
		return DeleteOption(f, optionID)
	})
}

func (c *FieldListController) replace(id string, fn func(model.Field) (model.Field, error)) (model.Field, error) {
	i := c.indexOf(id)
	if i < 0 {
		return model.Field{}, ErrFieldNotFound
	}
	updated, err := fn(c.fields[i])
	if err != nil {
		return c.fields[i].Clone(), err
	}

	next := cloneFields(c.fields)
	next[i] = updated
	c.fields = next
	c.touch()
	return updated.Clone(), nil
}

// Remove deletes the field; the selection is cleared when it was active.
func (c *FieldListController) Remove(id string) error {
	i := c.indexOf(id)
	if i < 0 {
		return ErrFieldNotFound
	}

	next := make([]model.Field, 0, len(c.fields)-1)
	next = append(next, c.fields[:i]...)
	next = append(next, c.fields[i+1:]...)
	c.fields = next
	if c.activeID == id {
		c.activeID = ""
	}
	c.touch()
	return nil
}

// Duplicate inserts a copy of the field right after it. The active field
// is left as it was.
func (c *FieldListController) Duplicate(id string) (model.Field, error) {
	i := c.indexOf(id)
	if i < 0 {
		return model.Field{}, ErrFieldNotFound
	}
	if MaxFieldsReached(c.fields) {
		return model.Field{}, ErrMaxFields
	}

	dup := DuplicateField(c.fields[i])
	c.fields = insertAt(c.fields, i+1, dup)
	c.touch()
	return dup.Clone(), nil
}

// ─── Active field ──────────────────────────────────────────────────────

// SetActive selects id for editing, implicitly deselecting the previous
// field.
func (c *FieldListController) SetActive(id string) error {
	if c.indexOf(id) < 0 {
		return ErrFieldNotFound
	}
	if c.activeID == id {
		return nil
	}
	c.activeID = id
	c.touch()
	return nil
}

func (c *FieldListController) ClearActive() {
	if c.activeID == "" {
		return
	}
	c.activeID = ""
	c.touch()
}

func (c *FieldListController) IsActive(id string) bool {
	return id != "" && c.activeID == id
}

// ─── helpers ───────────────────────────────────────────────────────────

func (c *FieldListController) touch() { c.version++ }

func (c *FieldListController) indexOf(id string) int {
	for i := range c.fields {
		if c.fields[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// insertAt returns a new slice with f placed at idx.
func insertAt(fields []model.Field, idx int, f model.Field) []model.Field {
	out := make([]model.Field, 0, len(fields)+1)
	out = append(out, fields[:idx]...)
	out = append(out, f)
	out = append(out, fields[idx:]...)
	return out
}

func cloneFields(in []model.Field) []model.Field {
	out := make([]model.Field, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneDrag(d model.DragState) model.DragState {
	var out model.DragState
	if d.Payload != nil {
		p := *d.Payload
		out.Payload = &p
	}
	if d.OverIndex != nil {
		i := *d.OverIndex
		out.OverIndex = &i
	}
	return out
}
