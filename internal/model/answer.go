package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FileRef points at an uploaded file. Uploads are mocked, so only the
// metadata exists.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Answer is the value entered for one field. Exactly one representation is
// meaningful for a given field kind:
//   - Text for short/long text, number, date and single-select dropdowns
//   - Choices for multi-select dropdowns
//   - File for file uploads
//
// It encodes to JSON as a plain string, a list of strings or a {name, url}
// object respectively.
type Answer struct {
	Text    string
	Choices []string
	File    *FileRef
}

// TextAnswer wraps a plain string answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ChoicesAnswer wraps a list of selected dropdown values.
func ChoicesAnswer(values ...string) Answer {
	out := make([]string, len(values))
	copy(out, values)
	return Answer{Choices: out}
}

// FileAnswer wraps an uploaded file reference.
func FileAnswer(name, url string) Answer {
	return Answer{File: &FileRef{Name: name, URL: url}}
}

// IsEmpty reports whether nothing was entered.
func (a Answer) IsEmpty() bool {
	return a.Text == "" && len(a.Choices) == 0 && a.File == nil
}

// Clone returns a deep copy of a.
func (a Answer) Clone() Answer {
	out := Answer{Text: a.Text}
	if a.Choices != nil {
		out.Choices = make([]string, len(a.Choices))
		copy(out.Choices, a.Choices)
	}
	if a.File != nil {
		f := *a.File
		out.File = &f
	}
	return out
}

// Contains reports whether value is among the selected choices.
func (a Answer) Contains(value string) bool {
	for _, c := range a.Choices {
		if c == value {
			return true
		}
	}
	return false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case a.File != nil:
		return json.Marshal(a.File)
	case a.Choices != nil:
		return json.Marshal(a.Choices)
	default:
		return json.Marshal(a.Text)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = Answer{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &a.Text)
	case '[':
		choices := []string{}
		if err := json.Unmarshal(data, &choices); err != nil {
			return fmt.Errorf("answer choices: %w", err)
		}
		a.Choices = choices
		return nil
	case '{':
		var f FileRef
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("answer file: %w", err)
		}
		a.File = &f
		return nil
	default:
		// Numbers typed by clients are kept verbatim as text.
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported answer value: %s", string(data))
		}
		a.Text = n.String()
		return nil
	}
}
