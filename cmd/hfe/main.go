package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	ctx := context.Background()

	appl := &cli.Command{
		Name:  "hfe",
		Usage: "Query and maintain the machine evaluation service",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			reportCommand(),
			seedCommand(),
			importCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hfe:", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cli.Command) *zap.Logger {
	if !cmd.Bool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Usage:   "Path of the sqlite database",
		Value:   "./data/evaluations.db",
		Sources: cli.EnvVars("DB_PATH"),
	}
}
