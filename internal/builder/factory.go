// Package builder holds the form-building core: the field factory, the
// field list controller with its drag state machine, the mode-aware field
// renderer and the per-session answer store. Nothing in here does I/O.
package builder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stemsi/formcraft-backend/internal/model"
)

const (
	MaxFields            = 10
	MaxQuestionLength    = 150
	MaxDescriptionLength = 300
	MaxOptionLength      = 100

	DefaultQuestion  = "Untitled Question"
	DefaultMaxSizeMB = 2
)

var DefaultAllowedFormats = []string{"PDF", "PNG", "JPG"}

// newID mints field ids. Tests swap it for a deterministic sequence.
var newID = uuid.NewString

// NewField returns a field of the given kind with its defaults applied.
func NewField(kind model.FieldKind) (model.Field, error) {
	if !kind.Valid() {
		return model.Field{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	f := model.Field{
		ID:       newID(),
		Kind:     kind,
		Question: DefaultQuestion,
	}

	switch kind {
	case model.FieldKindDropdown:
		f.Options = []model.DropdownOption{
			{ID: 1, Value: "Option 1"},
			{ID: 2, Value: "Option 2"},
		}
		f.SelectionType = model.SelectionSingle
	case model.FieldKindFileUpload:
		f.AllowedFormats = append([]string(nil), DefaultAllowedFormats...)
		f.MaxSizeMB = DefaultMaxSizeMB
		f.AllowMultiple = false
	case model.FieldKindDatePicker:
		f.DateFormat = model.DateFormatDayFirst
	}

	return f, nil
}

// UpdateField merges patch into field. The whole patch is checked before
// anything is applied; on rejection the original field is returned as-is.
func UpdateField(field model.Field, patch model.FieldPatch) (model.Field, error) {
	if err := checkPatch(field, patch); err != nil {
		return field, err
	}

	out := field.Clone()
	if patch.Question != nil {
		out.Question = *patch.Question
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.ShowDescription != nil {
		out.ShowDescription = *patch.ShowDescription
	}
	if patch.Required != nil {
		out.Required = *patch.Required
	}
	if patch.Options != nil {
		out.Options = append([]model.DropdownOption(nil), patch.Options...)
	}
	if patch.SelectionType != nil {
		out.SelectionType = *patch.SelectionType
	}
	if patch.AllowedFormats != nil {
		out.AllowedFormats = normalizeFormats(patch.AllowedFormats)
	}
	if patch.MaxSizeMB != nil {
		out.MaxSizeMB = *patch.MaxSizeMB
	}
	if patch.AllowMultiple != nil {
		out.AllowMultiple = *patch.AllowMultiple
	}
	if patch.DateFormat != nil {
		out.DateFormat = *patch.DateFormat
	}
	return out, nil
}

func checkPatch(field model.Field, patch model.FieldPatch) error {
	if patch.Kind != nil && *patch.Kind != field.Kind {
		return invalidPatch("field kind cannot be changed after creation")
	}
	if patch.Question != nil && utf8.RuneCountInString(*patch.Question) > MaxQuestionLength {
		return invalidPatch(fmt.Sprintf("question must be at most %d characters", MaxQuestionLength))
	}
	if patch.Description != nil && utf8.RuneCountInString(*patch.Description) > MaxDescriptionLength {
		return invalidPatch(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}

	isDropdown := field.Kind == model.FieldKindDropdown
	isFile := field.Kind == model.FieldKindFileUpload

	if patch.Options != nil {
		if !isDropdown {
			return invalidPatch("options only apply to dropdown fields")
		}
		if len(patch.Options) == 0 {
			return ErrLastOption
		}
		seen := make(map[int]struct{}, len(patch.Options))
		for _, o := range patch.Options {
			if o.ID < 1 {
				return invalidPatch("option ids must be positive")
			}
			if _, dup := seen[o.ID]; dup {
				return invalidPatch(fmt.Sprintf("duplicate option id %d", o.ID))
			}
			if utf8.RuneCountInString(o.Value) > MaxOptionLength {
				return invalidPatch(fmt.Sprintf("option must be at most %d characters", MaxOptionLength))
			}
			seen[o.ID] = struct{}{}
		}
	}
	if patch.SelectionType != nil {
		if !isDropdown {
			return invalidPatch("selection type only applies to dropdown fields")
		}
		if !patch.SelectionType.Valid() {
			return invalidPatch(fmt.Sprintf("unknown selection type %q", *patch.SelectionType))
		}
	}

	if (patch.AllowedFormats != nil || patch.MaxSizeMB != nil || patch.AllowMultiple != nil) && !isFile {
		return invalidPatch("upload settings only apply to file upload fields")
	}
	if patch.AllowedFormats != nil {
		if len(normalizeFormats(patch.AllowedFormats)) == 0 {
			return invalidPatch("at least one file format must be allowed")
		}
	}
	if patch.MaxSizeMB != nil && *patch.MaxSizeMB <= 0 {
		return invalidPatch("maximum file size must be positive")
	}

	if patch.DateFormat != nil {
		if field.Kind != model.FieldKindDatePicker {
			return invalidPatch("date format only applies to date picker fields")
		}
		if !patch.DateFormat.Valid() {
			return invalidPatch(fmt.Sprintf("unknown date format %q", *patch.DateFormat))
		}
	}
	return nil
}

// normalizeFormats upper-cases extensions, strips leading dots and drops
// blanks and duplicates while keeping order.
func normalizeFormats(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// AddOption appends "Option N" to a dropdown, N being one past the
// highest id in use.
func AddOption(field model.Field) (model.Field, error) {
	if field.Kind != model.FieldKindDropdown {
		return field, invalidPatch("options only apply to dropdown fields")
	}

	next := 1
	for _, o := range field.Options {
		if o.ID >= next {
			next = o.ID + 1
		}
	}

	out := field.Clone()
	out.Options = append(out.Options, model.DropdownOption{
		ID:    next,
		Value: fmt.Sprintf("Option %d", next),
	})
	return out, nil
}

// UpdateOption sets the text of one dropdown option.
func UpdateOption(field model.Field, optionID int, value string) (model.Field, error) {
	if field.Kind != model.FieldKindDropdown {
		return field, invalidPatch("options only apply to dropdown fields")
	}
	if utf8.RuneCountInString(value) > MaxOptionLength {
		return field, invalidPatch(fmt.Sprintf("option must be at most %d characters", MaxOptionLength))
	}

	idx := optionIndex(field, optionID)
	if idx < 0 {
		return field, ErrOptionNotFound
	}

	out := field.Clone()
	out.Options[idx].Value = value
	return out, nil
}

// DeleteOption removes one dropdown option. Removing the last remaining
// option is rejected with ErrLastOption.
func DeleteOption(field model.Field, optionID int) (model.Field, error) {
	if field.Kind != model.FieldKindDropdown {
		return field, invalidPatch("options only apply to dropdown fields")
	}

	idx := optionIndex(field, optionID)
	if idx < 0 {
		return field, ErrOptionNotFound
	}
	if len(field.Options) <= 1 {
		return field, ErrLastOption
	}

	out := field.Clone()
	out.Options = append(out.Options[:idx:idx], out.Options[idx+1:]...)
	return out, nil
}

func optionIndex(field model.Field, optionID int) int {
	for i, o := range field.Options {
		if o.ID == optionID {
			return i
		}
	}
	return -1
}

// DuplicateField deep-copies field under a fresh id. Placing the copy is
// the caller's job.
func DuplicateField(field model.Field) model.Field {
	out := field.Clone()
	out.ID = newID()
	return out
}

// MaxFieldsReached reports whether fields is already at the cap.
func MaxFieldsReached(fields []model.Field) bool {
	return len(fields) >= MaxFields
}
