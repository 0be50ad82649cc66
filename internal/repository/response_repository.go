package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/intenza/hfeval/internal/repository/models"
)

// ResponseRepository is the append-only store of response rows.
type ResponseRepository struct {
	db *sql.DB
}

func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// ReadAll returns the header followed by every stored row in insertion order.
func (r *ResponseRepository) ReadAll(ctx context.Context) ([][]string, error) {
	const query = `
		SELECT tester, machine_code, section, item, result, note, score, created_at
		FROM responses
		ORDER BY id
	`

	grid, err := queryGrid(ctx, r.db, query)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	return grid, nil
}

// Append writes all records in one transaction; either every row is stored or none is.
func (r *ResponseRepository) Append(ctx context.Context, records []models.ResponseRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO responses (tester, machine_code, section, item, result, note, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var score sql.NullString
		if rec.Score != nil {
			score = sql.NullString{String: strconv.FormatFloat(*rec.Score, 'f', -1, 64), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			rec.Tester, rec.MachineCode, rec.Section, rec.Item,
			string(rec.Result), rec.Note, score, rec.Timestamp,
		); err != nil {
			return fmt.Errorf("insert response row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}
