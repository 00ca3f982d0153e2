// Package seed produces the sample forms the dashboard ships with.
package seed

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// SampleCount is how many samples the dashboard shows next to user forms.
const SampleCount = 23

// namespace keeps sample ids stable across runs so seeding is idempotent.
var namespace = uuid.MustParse("6f1c9a52-3d4e-4b8a-9c1f-2a7d5e8b0c34")

// SampleID returns the id of the i-th sample (1-based).
func SampleID(i int) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("sample-%d", i)))
}

// Samples builds n sample forms: every third one a published access
// request, even ones drafts, the rest published onboarding forms.
func Samples(n int) ([]model.Form, error) {
	out := make([]model.Form, 0, n)
	for i := 1; i <= n; i++ {
		f := model.Form{
			ID:          SampleID(i),
			CreatedBy:   "System",
			CreatedDate: "Jan 01, 2025",
			UpdatedAt:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		}

		switch {
		case i%3 == 0:
			f.Title = fmt.Sprintf("Resource Access Request %d", i)
			f.Status = model.FormStatusPublished
			f.PublishedBy, f.PublishedDate = "Karan Patel", "May 20, 2025"
		case i%2 == 0:
			f.Title = fmt.Sprintf("Internal Transfer Request %d", i)
			f.Status = model.FormStatusDraft
			f.CreatedBy, f.CreatedDate = "Saanvi Reddy", "May 08, 2025"
		default:
			f.Title = fmt.Sprintf("Employee Onboarding %d", i)
			f.Status = model.FormStatusPublished
			f.PublishedBy, f.PublishedDate = "Aarav Sharma", "Apr 25, 2025"
		}
		f.HeaderName = f.Title
		f.Visible = f.Status == model.FormStatusPublished

		fields, err := sampleFields(i)
		if err != nil {
			return nil, err
		}
		f.Fields = fields
		out = append(out, f)
	}
	return out, nil
}

// sampleFields gives each sample a name question and a dropdown so the
// published ones can be filled.
func sampleFields(i int) ([]model.Field, error) {
	name, err := builder.NewField(model.FieldKindShortText)
	if err != nil {
		return nil, err
	}
	name, err = builder.UpdateField(name, model.FieldPatch{
		Question: ptr("Full name"),
		Required: ptr(true),
	})
	if err != nil {
		return nil, err
	}

	team, err := builder.NewField(model.FieldKindDropdown)
	if err != nil {
		return nil, err
	}
	team, err = builder.UpdateField(team, model.FieldPatch{
		Question: ptr(fmt.Sprintf("Team (request %d)", i)),
		Options: []model.DropdownOption{
			{ID: 1, Value: "Engineering"},
			{ID: 2, Value: "Operations"},
			{ID: 3, Value: "Finance"},
		},
	})
	if err != nil {
		return nil, err
	}
	return []model.Field{name, team}, nil
}

// Merge appends the samples that are not stored yet, after the user's
// forms. It reports how many were added.
func Merge(existing, samples []model.Form) ([]model.Form, int) {
	seen := make(map[uuid.UUID]bool, len(existing))
	for _, f := range existing {
		seen[f.ID] = true
	}

	out := make([]model.Form, 0, len(existing)+len(samples))
	out = append(out, existing...)
	added := 0
	for _, s := range samples {
		if !seen[s.ID] {
			out = append(out, s)
			added++
		}
	}
	return out, added
}

func ptr[T any](v T) *T { return &v }
