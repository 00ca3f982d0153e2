package builder

import (
	"fmt"
	"strings"

	"github.com/stemsi/formcraft-backend/internal/model"
)

// Widget is the kind of control a field is presented with.
type Widget string

const (
	WidgetEditor  Widget = "editor"  // live schema editing inputs
	WidgetStatic  Widget = "static"  // frozen label and options
	WidgetInput   Widget = "input"   // functional answer control
	WidgetDisplay Widget = "display" // stored answer as text or link
)

const (
	answerPlaceholder    = "Enter answer"
	noAnswerText         = "No answer"
	noFileText           = "No file uploaded"
	selectOneText        = "Select an option"
	selectManyText       = "Select option(s)"
	shortTextPlaceholder = "Short Text (Up to 100 Character)"
	longTextPlaceholder  = "Long text (up to 200 chars)"
	numberPlaceholder    = "Enter number"
)

// OptionView is one dropdown option as shown to the user.
type OptionView struct {
	ID       int    `json:"id"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// FieldView is the mode-resolved presentation of one field.
type FieldView struct {
	FieldID        string           `json:"field_id"`
	Kind           model.FieldKind  `json:"kind"`
	Number         int              `json:"number,omitempty"`
	Question       string           `json:"question"`
	Description    string           `json:"description,omitempty"`
	Required       bool             `json:"required"`
	Active         bool             `json:"active"`
	Widget         Widget           `json:"widget"`
	SchemaEditable bool             `json:"schema_editable"`
	AnswerEditable bool             `json:"answer_editable"`
	Persist        bool             `json:"persist"`
	Placeholder    string           `json:"placeholder,omitempty"`
	Answer         *model.Answer    `json:"answer,omitempty"`
	DisplayText    string           `json:"display_text,omitempty"`
	Link           *model.FileRef   `json:"link,omitempty"`
	Options        []OptionView     `json:"options,omitempty"`
	Multiple       bool             `json:"multiple,omitempty"`
	DateFormat     model.DateFormat `json:"date_format,omitempty"`
	Accept         []string         `json:"accept,omitempty"`
	Limits         string           `json:"limits,omitempty"`
	Definition     *model.Field     `json:"definition,omitempty"`
}

// Render resolves how field is presented under mode. answer is ignored in
// BUILDER_EDIT, where no answers exist.
func Render(field model.Field, mode model.Mode, answer model.Answer, isActive bool) FieldView {
	v := FieldView{
		FieldID:        field.ID,
		Kind:           field.Kind,
		Question:       field.Question,
		Required:       field.Required,
		SchemaEditable: mode.SchemaEditable(isActive),
		AnswerEditable: mode.AnswerEditable(),
		Persist:        mode.PersistsAnswers(),
		Multiple:       field.IsMultiSelect() || (field.Kind == model.FieldKindFileUpload && field.AllowMultiple),
		DateFormat:     field.DateFormat,
	}
	if field.ShowDescription {
		v.Description = field.Description
	}

	switch mode {
	case model.ModeBuilderEdit:
		v.Active = isActive
		v.Widget = WidgetStatic
		if isActive {
			v.Widget = WidgetEditor
			def := field.Clone()
			v.Definition = &def
		}
		v.Placeholder = builderPlaceholder(field)
		v.Options = optionViews(field, model.Answer{})

	case model.ModeBuilderPreview, model.ModeLearnerSubmission:
		a := answer.Clone()
		v.Widget = WidgetInput
		v.Answer = &a
		v.Placeholder = answerPlaceholder
		if field.Kind == model.FieldKindDatePicker {
			v.Placeholder = string(field.DateFormat)
		}
		if field.Kind == model.FieldKindDropdown {
			v.Placeholder = ""
			v.DisplayText = dropdownSummary(field, answer)
		}
		v.Options = optionViews(field, answer)

	case model.ModeViewSubmission:
		a := answer.Clone()
		v.Widget = WidgetDisplay
		v.Answer = &a
		v.DisplayText, v.Link = storedAnswerText(field, answer)
	}

	if field.Kind == model.FieldKindFileUpload {
		v.Accept = append([]string(nil), field.AllowedFormats...)
		if mode != model.ModeViewSubmission {
			v.Limits = fileLimits(field)
		}
	}

	return v
}

// RenderAll renders every field in order. Fill modes number questions from
// 1; BUILDER_EDIT marks the field whose id equals activeID as active.
func RenderAll(fields []model.Field, mode model.Mode, store *AnswerStore, activeID string) []FieldView {
	views := make([]FieldView, 0, len(fields))
	for i, f := range fields {
		a := EmptyAnswer(f)
		if store != nil {
			if got, ok := store.Get(f.ID); ok {
				a = got
			}
		}

		v := Render(f, mode, a, mode == model.ModeBuilderEdit && activeID != "" && f.ID == activeID)
		if mode.NumbersQuestions() {
			v.Number = i + 1
		}
		views = append(views, v)
	}
	return views
}

func builderPlaceholder(f model.Field) string {
	switch f.Kind {
	case model.FieldKindShortText:
		return shortTextPlaceholder
	case model.FieldKindLongText:
		return longTextPlaceholder
	case model.FieldKindNumber:
		return numberPlaceholder
	case model.FieldKindDatePicker:
		return string(f.DateFormat)
	default:
		return ""
	}
}

func optionViews(f model.Field, a model.Answer) []OptionView {
	if f.Kind != model.FieldKindDropdown {
		return nil
	}
	out := make([]OptionView, 0, len(f.Options))
	for _, o := range f.Options {
		selected := false
		if f.IsMultiSelect() {
			selected = a.Contains(o.Value)
		} else {
			selected = a.Text != "" && a.Text == o.Value
		}
		out = append(out, OptionView{ID: o.ID, Value: o.Value, Selected: selected})
	}
	return out
}

func dropdownSummary(f model.Field, a model.Answer) string {
	if f.IsMultiSelect() {
		switch len(a.Choices) {
		case 0:
			return selectManyText
		case 1:
			return a.Choices[0]
		default:
			return fmt.Sprintf("%d options selected", len(a.Choices))
		}
	}
	if a.Text == "" {
		return selectOneText
	}
	return a.Text
}

func storedAnswerText(f model.Field, a model.Answer) (string, *model.FileRef) {
	if f.Kind == model.FieldKindFileUpload {
		if a.File == nil {
			return noFileText, nil
		}
		link := *a.File
		return link.Name, &link
	}
	if len(a.Choices) > 0 {
		return strings.Join(a.Choices, ", "), nil
	}
	if a.Text == "" {
		return noAnswerText, nil
	}
	return a.Text, nil
}

func fileLimits(f model.Field) string {
	count := "Only one file allowed"
	if f.AllowMultiple {
		count = "Multiple files allowed"
	}
	return fmt.Sprintf("%s. Supported: %s. Max size %g MB", count, strings.Join(f.AllowedFormats, ", "), f.MaxSizeMB)
}

// ─── Interaction handlers ──────────────────────────────────────────────
//
// Handlers only change the store when the mode allows answer edits and the
// store is not frozen. Anything else is a silent no-op. Each reports
// whether the stored answer changed.

func answersWritable(mode model.Mode, store *AnswerStore) bool {
	return store != nil && mode.AnswerEditable() && !store.Frozen()
}

// OnChange handles typed input for text, number and date fields. The raw
// string is stored as-is; numbers are not parsed.
func OnChange(mode model.Mode, field model.Field, store *AnswerStore, value string) bool {
	if !answersWritable(mode, store) {
		return false
	}
	switch field.Kind {
	case model.FieldKindShortText, model.FieldKindLongText, model.FieldKindNumber, model.FieldKindDatePicker:
	default:
		return false
	}
	return store.Set(field.ID, model.TextAnswer(value)) == nil
}

// OnOptionClick handles a click on a dropdown option. A single-select click
// replaces the answer and closes the list (re-clicking the selected option
// changes nothing); a multi-select click toggles the value and leaves the
// list open.
func OnOptionClick(mode model.Mode, field model.Field, store *AnswerStore, value string) (changed, closeList bool) {
	if !answersWritable(mode, store) || field.Kind != model.FieldKindDropdown || !field.HasOptionValue(value) {
		return false, false
	}

	current, _ := store.Get(field.ID)
	if !field.IsMultiSelect() {
		if current.Text == value && current.Choices == nil && current.File == nil {
			return false, true
		}
		return store.Set(field.ID, model.TextAnswer(value)) == nil, true
	}

	next := make([]string, 0, len(current.Choices)+1)
	if current.Contains(value) {
		for _, c := range current.Choices {
			if c != value {
				next = append(next, c)
			}
		}
	} else {
		next = append(next, current.Choices...)
		next = append(next, value)
	}
	return store.Set(field.ID, model.ChoicesAnswer(next...)) == nil, false
}

// OnFileChosen records the uploaded file reference for a file field.
func OnFileChosen(mode model.Mode, field model.Field, store *AnswerStore, ref model.FileRef) bool {
	if !answersWritable(mode, store) || field.Kind != model.FieldKindFileUpload {
		return false
	}
	return store.Set(field.ID, model.Answer{File: &ref}) == nil
}
