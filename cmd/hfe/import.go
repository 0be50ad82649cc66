package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/intenza/hfeval/internal/normalize"
	"github.com/intenza/hfeval/internal/repository"
	"github.com/intenza/hfeval/internal/repository/models"
	dbbuilder "github.com/intenza/hfeval/pkg/database"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Append responses exported from the legacy spreadsheet (CSV)",
		ArgsUsage: "<responses.csv>",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Only report what would be imported",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to the CSV export")
			}
			logger := newLogger(cmd.Root())
			defer logger.Sync() //nolint:errcheck

			f, err := os.Open(cmd.Args().First())
			if err != nil {
				return fmt.Errorf("opening export: %w", err)
			}
			defer f.Close()

			grid, err := readGrid(f)
			if err != nil {
				return err
			}

			batch := prepareImport(grid, logger)
			for _, r := range batch.repairs {
				fmt.Fprintln(os.Stderr, "warning:", r)
			}
			if batch.skipped > 0 {
				fmt.Fprintf(os.Stderr, "warning: skipped %d rows without a machine code\n", batch.skipped)
			}

			if cmd.Bool("dry-run") {
				fmt.Printf("Would import %d responses\n", len(batch.records))
				return nil
			}

			db, err := dbbuilder.New(
				dbbuilder.WithDataSource(cmd.String("db")),
				dbbuilder.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storeImport(ctx, db, batch); err != nil {
				return err
			}

			fmt.Printf("Imported %d responses into %s\n", len(batch.records), cmd.String("db"))
			return nil
		},
	}
}

type importBatch struct {
	records []models.ResponseRecord
	skipped int
	repairs []string
}

// prepareImport reads either the current column layout or the legacy one.
// A grid without a recognisable header is read in the legacy column order,
// which is also the current one.
func prepareImport(grid normalize.Grid, logger *zap.Logger) importBatch {
	schema := normalize.LegacyResponsesSchema
	if len(grid) > 0 && normalize.ResponsesSchema.IsHeader(grid[0]) {
		schema = normalize.ResponsesSchema
	}

	table := normalize.New(logger).Normalize(grid, schema)
	records, skipped := normalize.WithoutBlankMachines(normalize.ToResponses(table))
	if skipped > 0 {
		logger.Warn("rows without machine code skipped", zap.Int("rows", skipped))
	}
	return importBatch{records: records, skipped: skipped, repairs: table.Repairs}
}

func storeImport(ctx context.Context, db *sql.DB, batch importBatch) error {
	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	return repository.NewResponseRepository(db).Append(ctx, batch.records)
}

// readGrid reads a CSV file whose rows may have differing widths.
func readGrid(r io.Reader) (normalize.Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return normalize.Grid(rows), nil
}
