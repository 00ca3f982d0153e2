package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// PostgresFormRepository keeps one row per form with the document in a
// JSONB column. SaveAll replaces every row inside a single transaction.
type PostgresFormRepository struct {
	pool *pgxpool.Pool
}

var _ FormRepository = (*PostgresFormRepository)(nil)

// NewPostgresFormRepository creates a new PostgresFormRepository.
func NewPostgresFormRepository(pool *pgxpool.Pool) *PostgresFormRepository {
	return &PostgresFormRepository{pool: pool}
}

func (r *PostgresFormRepository) LoadAll(ctx context.Context) ([]model.Form, error) {
	rows, err := r.pool.Query(ctx, `SELECT document FROM forms ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var f model.Form
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode form: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (r *PostgresFormRepository) SaveAll(ctx context.Context, forms []model.Form) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM forms`); err != nil {
		return fmt.Errorf("clear forms: %w", err)
	}

	rows := make([][]interface{}, 0, len(forms))
	for i, f := range forms {
		raw, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode form %s: %w", f.ID, err)
		}
		rows = append(rows, []interface{}{f.ID, i, f.Title, string(f.Status), f.Visible, raw, f.UpdatedAt})
	}

	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"forms"},
			[]string{"id", "position", "title", "status", "visible", "document", "updated_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy forms: %w", err)
		}
	}

	return tx.Commit(ctx)
}
