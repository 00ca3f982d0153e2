package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/stemsi/formcraft-backend/internal/model"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// FormRepository persists the whole form collection. Reads and writes are
// all-or-nothing; list order is the stored order.
type FormRepository interface {
	LoadAll(ctx context.Context) ([]model.Form, error)
	SaveAll(ctx context.Context, forms []model.Form) error
}

// MemoryFormRepository keeps the collection in process memory.
type MemoryFormRepository struct {
	mu    sync.RWMutex
	forms []model.Form
}

var _ FormRepository = (*MemoryFormRepository)(nil)

// NewMemoryFormRepository creates a repository seeded with forms.
func NewMemoryFormRepository(forms ...model.Form) *MemoryFormRepository {
	return &MemoryFormRepository{forms: cloneForms(forms)}
}

func (r *MemoryFormRepository) LoadAll(_ context.Context) ([]model.Form, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneForms(r.forms), nil
}

func (r *MemoryFormRepository) SaveAll(_ context.Context, forms []model.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = cloneForms(forms)
	return nil
}

func cloneForms(in []model.Form) []model.Form {
	out := make([]model.Form, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
