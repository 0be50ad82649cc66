package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/intenza/hfeval/internal/repository/models"
)

// CatalogueRepository reads the machine and question settings tables.
type CatalogueRepository struct {
	db *sql.DB
}

func NewCatalogueRepository(db *sql.DB) *CatalogueRepository {
	return &CatalogueRepository{db: db}
}

func (r *CatalogueRepository) ReadMachines(ctx context.Context) ([][]string, error) {
	grid, err := queryGrid(ctx, r.db, `SELECT series_name, machine_code FROM machines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read machines: %w", err)
	}
	return grid, nil
}

func (r *CatalogueRepository) ReadQuestions(ctx context.Context) ([][]string, error) {
	grid, err := queryGrid(ctx, r.db, `SELECT section, question, applicable_machine_codes FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return grid, nil
}

// ReplaceCatalogue swaps the whole catalogue for the given machines and questions.
func (r *CatalogueRepository) ReplaceCatalogue(ctx context.Context, machines []models.Machine, questions []models.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace catalogue: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{`DELETE FROM machines`, `DELETE FROM questions`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear catalogue: %w", err)
		}
	}

	for _, m := range machines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO machines (series_name, machine_code) VALUES (?, ?)`, m.Series, m.Code); err != nil {
			return fmt.Errorf("insert machine %q: %w", m.Code, err)
		}
	}
	for _, q := range questions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (section, question, applicable_machine_codes) VALUES (?, ?, ?)`,
			q.Section, q.Text, strings.Join(q.ApplicableMachines, ",")); err != nil {
			return fmt.Errorf("insert question %q: %w", q.Text, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace catalogue: %w", err)
	}
	return nil
}
