package builder

import (
	"github.com/stemsi/formcraft-backend/internal/model"
)

// AnswerStore holds the answers of one fill, preview or view session,
// keyed by field id. A store loaded from a stored submission is frozen and
// rejects every write.
type AnswerStore struct {
	order   []string
	fields  map[string]model.Field
	answers map[string]model.Answer
	frozen  bool
}

// NewAnswerStore seeds an empty answer for every field.
func NewAnswerStore(fields []model.Field) *AnswerStore {
	s := &AnswerStore{
		fields:  make(map[string]model.Field, len(fields)),
		answers: make(map[string]model.Answer, len(fields)),
	}
	for _, f := range fields {
		s.order = append(s.order, f.ID)
		s.fields[f.ID] = f.Clone()
		s.answers[f.ID] = EmptyAnswer(f)
	}
	return s
}

// LoadStoredAnswers builds a frozen store from a stored submission.
// Answers for fields no longer on the form are dropped.
func LoadStoredAnswers(fields []model.Field, stored map[string]model.Answer) *AnswerStore {
	s := NewAnswerStore(fields)
	for id, a := range stored {
		if _, ok := s.fields[id]; ok {
			s.answers[id] = a.Clone()
		}
	}
	s.frozen = true
	return s
}

func (s *AnswerStore) Frozen() bool { return s.frozen }

// Get returns the answer for a field.
func (s *AnswerStore) Get(fieldID string) (model.Answer, bool) {
	a, ok := s.answers[fieldID]
	if !ok {
		return model.Answer{}, false
	}
	return a.Clone(), true
}

// Set replaces the answer for a field.
func (s *AnswerStore) Set(fieldID string, a model.Answer) error {
	if s.frozen {
		return ErrAnswersFrozen
	}
	if _, ok := s.fields[fieldID]; !ok {
		return ErrFieldNotFound
	}
	s.answers[fieldID] = a.Clone()
	return nil
}

// Clear resets every answer to empty.
func (s *AnswerStore) Clear() error {
	if s.frozen {
		return ErrAnswersFrozen
	}
	for id, f := range s.fields {
		s.answers[id] = EmptyAnswer(f)
	}
	return nil
}

// Reconcile brings the store in line with a new set of field definitions:
// answers of removed fields are dropped, new fields start empty and
// existing answers are re-derived for the field's current shape.
func (s *AnswerStore) Reconcile(fields []model.Field) {
	order := make([]string, 0, len(fields))
	defs := make(map[string]model.Field, len(fields))
	answers := make(map[string]model.Answer, len(fields))

	for _, f := range fields {
		order = append(order, f.ID)
		defs[f.ID] = f.Clone()
		if prev, ok := s.answers[f.ID]; ok {
			answers[f.ID] = ReconcileAnswer(f, prev)
		} else {
			answers[f.ID] = EmptyAnswer(f)
		}
	}

	s.order, s.fields, s.answers = order, defs, answers
}

// Missing returns the ids of required fields that have no answer, in form
// order.
func (s *AnswerStore) Missing() []string {
	var missing []string
	for _, id := range s.order {
		if s.fields[id].Required && s.answers[id].IsEmpty() {
			missing = append(missing, id)
		}
	}
	return missing
}

// Snapshot returns a copy of every answer.
func (s *AnswerStore) Snapshot() map[string]model.Answer {
	out := make(map[string]model.Answer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.Clone()
	}
	return out
}

// EmptyAnswer is the blank value for a field: an empty list for
// multi-select dropdowns, an empty string otherwise.
func EmptyAnswer(f model.Field) model.Answer {
	if f.IsMultiSelect() {
		return model.ChoicesAnswer()
	}
	return model.TextAnswer("")
}

// ReconcileAnswer re-derives an answer after the field definition changed.
//
// For dropdowns, values no longer among the options are dropped. Switching
// MULTI to SINGLE keeps the first still-valid selection; switching SINGLE
// to MULTI wraps the single value in a one-element list.
func ReconcileAnswer(f model.Field, a model.Answer) model.Answer {
	switch f.Kind {
	case model.FieldKindDropdown:
		var selected []string
		if a.Choices != nil {
			selected = a.Choices
		} else if a.Text != "" {
			selected = []string{a.Text}
		}

		valid := make([]string, 0, len(selected))
		for _, v := range selected {
			if f.HasOptionValue(v) && !contains(valid, v) {
				valid = append(valid, v)
			}
		}

		if f.IsMultiSelect() {
			return model.ChoicesAnswer(valid...)
		}
		if len(valid) == 0 {
			return model.TextAnswer("")
		}
		return model.TextAnswer(valid[0])

	case model.FieldKindFileUpload:
		if a.File == nil {
			return model.TextAnswer("")
		}
		return model.Answer{File: &model.FileRef{Name: a.File.Name, URL: a.File.URL}}

	default:
		return model.TextAnswer(a.Text)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
