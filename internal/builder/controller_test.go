package builder

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newControllerWith builds a controller over n short-text fields f1..fn.
func newControllerWith(t *testing.T, n int) *FieldListController {
	t.Helper()
	useSequentialIDs(t)
	fields := make([]model.Field, 0, n)
	for i := 0; i < n; i++ {
		f, err := NewField(model.FieldKindShortText)
		require.NoError(t, err)
		fields = append(fields, f)
	}
	return NewFieldListController(fields)
}

func fieldIDs(fields []model.Field) []string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	return ids
}

func TestDrop_ReorderMovesFieldToFront(t *testing.T) {
	c := newControllerWith(t, 5) // f1..f5, index 3 is f4

	require.NoError(t, c.DragStart(model.ExistingField("f4")))
	c.DragOver(0)
	res, err := c.Drop()
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, []string{"f4", "f1", "f2", "f3", "f5"}, fieldIDs(c.Fields()))
	assert.False(t, c.Dragging())
}

func TestDrop_ReorderCases(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		over    *int
		want    []string
		changed bool
	}{
		{"to end when no index", "f1", nil, []string{"f2", "f3", "f4", "f1"}, true},
		{"index past end appends", "f2", ptr(99), []string{"f1", "f3", "f4", "f2"}, true},
		{"negative index clamps to front", "f3", ptr(-4), []string{"f3", "f1", "f2", "f4"}, true},
		{"same index is a no-op", "f2", ptr(1), []string{"f1", "f2", "f3", "f4"}, false},
		{"move down", "f1", ptr(2), []string{"f2", "f3", "f1", "f4"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newControllerWith(t, 4)
			require.NoError(t, c.DragStart(model.ExistingField(tt.id)))
			if tt.over != nil {
				c.DragOver(*tt.over)
			}
			res, err := c.Drop()
			require.NoError(t, err)
			assert.Equal(t, tt.changed, res.Changed)
			assert.Equal(t, tt.want, fieldIDs(c.Fields()))
		})
	}
}

func TestDrop_NewFieldInsertsAndActivates(t *testing.T) {
	c := newControllerWith(t, 2)

	require.NoError(t, c.DragStart(model.NewFieldKind(model.FieldKindDropdown)))
	c.DragOver(1)
	res, err := c.Drop()
	require.NoError(t, err)

	fields := c.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, res.FieldID, fields[1].ID)
	assert.Equal(t, model.FieldKindDropdown, fields[1].Kind)
	assert.True(t, c.IsActive(res.FieldID))
}

func TestDrop_WithoutPayloadIsNoop(t *testing.T) {
	c := newControllerWith(t, 3)
	before := c.Snapshot()

	res, err := c.Drop()
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, before, c.Snapshot())
}

func TestDrop_EleventhFieldRejected(t *testing.T) {
	c := newControllerWith(t, MaxFields)
	require.NoError(t, c.SetActive("f2"))

	require.NoError(t, c.DragStart(model.NewFieldKind(model.FieldKindNumber)))
	_, err := c.Drop()
	assert.ErrorIs(t, err, ErrMaxFields)
	assert.Len(t, c.Fields(), MaxFields)
	assert.False(t, c.Dragging())

	_, err = c.Insert(model.FieldKindNumber, nil)
	assert.ErrorIs(t, err, ErrMaxFields)
	assert.Len(t, c.Fields(), MaxFields)
}

func TestDragOver_Throttled(t *testing.T) {
	c := newControllerWith(t, 3)

	assert.False(t, c.DragOver(1), "idle controller ignores drag-over")

	require.NoError(t, c.DragStart(model.ExistingField("f1")))
	v := c.Version()

	assert.True(t, c.DragOver(2))
	assert.Equal(t, v+1, c.Version())

	assert.False(t, c.DragOver(2))
	assert.Equal(t, v+1, c.Version())

	// both clamp to len(fields)
	assert.True(t, c.DragOver(10))
	assert.False(t, c.DragOver(11))
}

func TestCancel_LeavesListUntouched(t *testing.T) {
	c := newControllerWith(t, 3)
	before := fieldIDs(c.Fields())

	require.NoError(t, c.DragStart(model.ExistingField("f3")))
	c.DragOver(0)
	c.Cancel()

	assert.False(t, c.Dragging())
	assert.Equal(t, before, fieldIDs(c.Fields()))

	res, err := c.Drop()
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestDragStart_ClearsActiveAndValidates(t *testing.T) {
	c := newControllerWith(t, 2)
	require.NoError(t, c.SetActive("f1"))

	assert.ErrorIs(t, c.DragStart(model.ExistingField("missing")), ErrFieldNotFound)
	assert.True(t, c.IsActive("f1"))
	assert.ErrorIs(t, c.DragStart(model.NewFieldKind("SIGNATURE")), ErrUnknownKind)

	require.NoError(t, c.DragStart(model.ExistingField("f2")))
	assert.Empty(t, c.ActiveID())
}

func TestSetActive_SingleActiveField(t *testing.T) {
	c := newControllerWith(t, 3)

	require.NoError(t, c.SetActive("f1"))
	require.NoError(t, c.SetActive("f2"))

	assert.False(t, c.IsActive("f1"))
	assert.True(t, c.IsActive("f2"))
	assert.False(t, c.IsActive("f3"))

	assert.ErrorIs(t, c.SetActive("nope"), ErrFieldNotFound)
	assert.True(t, c.IsActive("f2"))

	c.ClearActive()
	assert.Empty(t, c.ActiveID())
}

func TestRemove_ClearsActive(t *testing.T) {
	c := newControllerWith(t, 3)
	require.NoError(t, c.SetActive("f2"))

	require.NoError(t, c.Remove("f2"))
	assert.Equal(t, []string{"f1", "f3"}, fieldIDs(c.Fields()))
	assert.Empty(t, c.ActiveID())

	require.NoError(t, c.SetActive("f1"))
	require.NoError(t, c.Remove("f3"))
	assert.True(t, c.IsActive("f1"))

	assert.ErrorIs(t, c.Remove("f3"), ErrFieldNotFound)
}

func TestDuplicate_InsertedAfterSource(t *testing.T) {
	c := newControllerWith(t, 3)

	dup, err := c.Duplicate("f2")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", dup.ID, "f3"}, fieldIDs(c.Fields()))
}

func TestRejectedOperationsKeepVersion(t *testing.T) {
	c := newControllerWith(t, 2)
	dd, err := c.Insert(model.FieldKindDropdown, nil)
	require.NoError(t, err)
	_, err = c.DeleteOption(dd.ID, 1)
	require.NoError(t, err)

	before := c.Snapshot()

	_, err = c.DeleteOption(dd.ID, 2)
	assert.ErrorIs(t, err, ErrLastOption)
	_, err = c.Update("f1", model.FieldPatch{Kind: ptr(model.FieldKindNumber)})
	assert.ErrorIs(t, err, ErrInvalidPatch)
	_, err = c.Update("missing", model.FieldPatch{})
	assert.ErrorIs(t, err, ErrFieldNotFound)

	assert.Equal(t, before, c.Snapshot())
}

func TestSnapshotRestore(t *testing.T) {
	c := newControllerWith(t, 3)
	require.NoError(t, c.SetActive("f3"))
	require.NoError(t, c.DragStart(model.ExistingField("f1")))
	c.DragOver(2)

	restored := RestoreFieldListController(c.Snapshot())
	assert.Equal(t, c.Snapshot(), restored.Snapshot())

	res, err := restored.Drop()
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"f2", "f3", "f1"}, fieldIDs(restored.Fields()))
	assert.Equal(t, []string{"f1", "f2", "f3"}, fieldIDs(c.Fields()))
}

func TestFieldsAreCopyOnWrite(t *testing.T) {
	c := newControllerWith(t, 2)
	held := c.Fields()
	held[0].Question = "mutated"

	f, ok := c.Field("f1")
	require.True(t, ok)
	assert.Equal(t, DefaultQuestion, f.Question)
}

// ─── Properties ────────────────────────────────────────────────────────

// Any sequence of add/update/delete option operations keeps at least one
// option on a dropdown.
func TestProperty_DropdownKeepsAnOption(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dropdown never drops below one option", prop.ForAll(
		func(ops []int) bool {
			c := NewFieldListController(nil)
			f, err := c.Insert(model.FieldKindDropdown, nil)
			if err != nil {
				return false
			}
			for _, op := range ops {
				cur, _ := c.Field(f.ID)
				target := cur.Options[op%len(cur.Options)].ID
				switch op % 3 {
				case 0:
					_, _ = c.AddOption(f.ID)
				case 1:
					_, _ = c.UpdateOption(f.ID, target, "edited")
				case 2:
					_, _ = c.DeleteOption(f.ID, target)
				}
				if got, _ := c.Field(f.ID); len(got.Options) < 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

// However many inserts, drops and duplicates are attempted, the list never
// exceeds the cap.
func TestProperty_FieldCap(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("field count stays within the cap", prop.ForAll(
		func(ops []int) bool {
			c := NewFieldListController(nil)
			for _, op := range ops {
				switch op % 3 {
				case 0:
					_, _ = c.Insert(model.FieldKinds[op%len(model.FieldKinds)], ptr(op%7))
				case 1:
					_ = c.DragStart(model.NewFieldKind(model.FieldKindNumber))
					c.DragOver(op % 5)
					_, _ = c.Drop()
				case 2:
					if c.Len() > 0 {
						_, _ = c.Duplicate(c.Fields()[op%c.Len()].ID)
					}
				}
				if c.Len() > MaxFields {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

// Duplicating a field and removing the duplicate restores the list.
func TestProperty_DuplicateRemoveRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("duplicate then remove is a round trip", prop.ForAll(
		func(n, pick int) bool {
			fields := make([]model.Field, 0, n)
			for i := 0; i < n; i++ {
				f, err := NewField(model.FieldKinds[i%len(model.FieldKinds)])
				if err != nil {
					return false
				}
				fields = append(fields, f)
			}
			c := NewFieldListController(fields)
			before := c.Fields()

			dup, err := c.Duplicate(before[pick%n].ID)
			if err != nil {
				return false
			}
			if err := c.Remove(dup.ID); err != nil {
				return false
			}
			return assert.ObjectsAreEqual(before, c.Fields())
		},
		gen.IntRange(1, MaxFields-1),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
