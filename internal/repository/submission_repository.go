package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Upsert writes a submission. Replaying the same submission is harmless.
func (r *SubmissionRepository) Upsert(ctx context.Context, s *model.Submission) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO submissions (id, form_id, form_title, submitter_name, submitter_email, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET answers = EXCLUDED.answers, form_title = EXCLUDED.form_title`,
		s.ID, s.FormID, s.FormTitle, s.SubmitterName, s.SubmitterEmail, answers, s.SubmittedAt,
	)
	return err
}

// GetByID retrieves a submission with its answers.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, form_id, form_title, submitter_name, submitter_email, answers, submitted_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.FormID, &s.FormTitle, &s.SubmitterName, &s.SubmitterEmail, &answers, &s.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return s, nil
}

// ListByForm returns one page of a form's responses, newest first. search
// matches submitter name, email or submission id.
func (r *SubmissionRepository) ListByForm(ctx context.Context, formID uuid.UUID, search string, limit, offset int) ([]model.SubmissionSummary, int, error) {
	where := ` WHERE form_id = $1`
	args := []interface{}{formID}
	if search != "" {
		where += ` AND (submitter_name ILIKE $2 OR submitter_email ILIKE $2 OR id::text ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	return r.listSummaries(ctx, where, args, limit, offset)
}

// ListBySubmitter returns one page of the submissions made under a name.
func (r *SubmissionRepository) ListBySubmitter(ctx context.Context, submitter string, limit, offset int) ([]model.SubmissionSummary, int, error) {
	return r.listSummaries(ctx, ` WHERE submitter_name = $1`, []interface{}{submitter}, limit, offset)
}

func (r *SubmissionRepository) listSummaries(ctx context.Context, where string, args []interface{}, limit, offset int) ([]model.SubmissionSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT id, form_id, form_title, submitter_name, submitter_email, submitted_at
	          FROM submissions` + where +
		` ORDER BY submitted_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.SubmissionSummary{}
	for rows.Next() {
		var s model.SubmissionSummary
		if err := rows.Scan(&s.ID, &s.FormID, &s.FormTitle, &s.SubmitterName, &s.SubmitterEmail, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// ListAllByForm returns every submission of a form with answers, oldest
// first.
func (r *SubmissionRepository) ListAllByForm(ctx context.Context, formID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, form_id, form_title, submitter_name, submitter_email, answers, submitted_at
		 FROM submissions WHERE form_id = $1 ORDER BY submitted_at ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var answers []byte
		if err := rows.Scan(&s.ID, &s.FormID, &s.FormTitle, &s.SubmitterName, &s.SubmitterEmail, &answers, &s.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
