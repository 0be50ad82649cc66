package main

import (
	"context"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/intenza/hfeval/internal/repository"
	dbbuilder "github.com/intenza/hfeval/pkg/database"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Replace the machine and question catalogue from a YAML file",
		ArgsUsage: "<catalogue.yaml>",
		Flags:     []cli.Flag{dbFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to the catalogue file")
			}
			logger := newLogger(cmd.Root())
			defer logger.Sync() //nolint:errcheck

			machines, questions, err := repository.LoadSeedFile(cmd.Args().First())
			if err != nil {
				return err
			}

			db, err := dbbuilder.New(
				dbbuilder.WithDataSource(cmd.String("db")),
				dbbuilder.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(ctx, db); err != nil {
				return err
			}
			if err := repository.NewCatalogueRepository(db).ReplaceCatalogue(ctx, machines, questions); err != nil {
				return err
			}

			logger.Info("catalogue replaced", zap.Int("machines", len(machines)), zap.Int("questions", len(questions)))
			fmt.Printf("Seeded %d machines and %d questions into %s\n", len(machines), len(questions), cmd.String("db"))
			return nil
		},
	}
}
