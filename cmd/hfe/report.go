package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/intenza/hfeval/api/v1"
)

var errUnknownFormat = errors.New("unknown format")

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Fetch the evaluation report from the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Address of the gRPC server",
				Value:   "localhost:50051",
				Sources: cli.EnvVars("HFE_ADDR"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv (pivot table), ng (failure ranking), scores, json",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 15 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			conn, err := grpc.NewClient(cmd.String("addr"), grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", cmd.String("addr"), err)
			}
			defer conn.Close()

			format := cmd.String("format")
			report, err := pb.NewEvaluationClient(conn).GetReport(ctx, &pb.ReportRequest{IncludeFacts: format == "json"})
			if err != nil {
				return fmt.Errorf("fetching report: %w", err)
			}

			out := io.Writer(os.Stdout)
			if path := cmd.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				out = f
			}

			return writeReport(out, report, format)
		},
	}
}

func writeReport(w io.Writer, report *pb.ReportResponse, format string) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(report.Records()); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		return nil
	case "ng":
		return writeDigest(w, report.Digest)
	case "scores":
		return writeScores(w, report.Scores)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}

func writeDigest(w io.Writer, digest []pb.DigestEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNG\tITEM | MACHINE\tNOTES")
	for i, d := range digest {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i+1, d.Count, d.Key, d.Notes)
	}
	return tw.Flush()
}

func writeScores(w io.Writer, scores []pb.MachineScore) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MACHINE\tAVERAGE\tSCORES")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\n", s.Machine, s.Average, s.Count)
	}
	return tw.Flush()
}
