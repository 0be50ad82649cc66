package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/intenza/hfeval/internal/normalize"
	"github.com/intenza/hfeval/internal/repository/models"
)

const (
	storeTimeout    = 5 * time.Second
	timestampLayout = "2006-01-02 15:04:05"
)

var (
	ErrNoResponses       = errors.New("no responses found")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidSubmission = errors.New("invalid submission")
)

// ReportService loads responses and catalogue snapshots and turns them into reports.
type ReportService struct {
	responses  ResponseStore
	catalogue  CatalogueSource
	normalizer *normalize.Normalizer
	logger     *zap.Logger
	opts       []Option
	now        func() time.Time
}

// NewReportService creates a new ReportService instance.
func NewReportService(responses ResponseStore, catalogue CatalogueSource, logger *zap.Logger, opts ...Option) *ReportService {
	if responses == nil {
		panic("response store must not be nil")
	}
	if catalogue == nil {
		panic("catalogue source must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &ReportService{
		responses:  responses,
		catalogue:  catalogue,
		normalizer: normalize.New(logger),
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// LoadCatalogue reads and normalizes the machine and question settings.
func (s *ReportService) LoadCatalogue(ctx context.Context) (Catalogue, error) {
	dbCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	mGrid, err := s.catalogue.ReadMachines(dbCtx)
	if err != nil {
		return Catalogue{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	qGrid, err := s.catalogue.ReadQuestions(dbCtx)
	if err != nil {
		return Catalogue{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	mTable := s.normalizer.Normalize(mGrid, normalize.MachinesSchema)
	qTable := s.normalizer.Normalize(qGrid, normalize.QuestionsSchema)

	c := Catalogue{
		Machines:  normalize.ToMachines(mTable),
		Questions: normalize.ToQuestions(qTable),
		Repairs:   append(slices.Clone(mTable.Repairs), qTable.Repairs...),
	}

	s.logger.Info("loaded catalogue",
		zap.Int("machines", len(c.Machines)),
		zap.Int("questions", len(c.Questions)),
		zap.Int("repairs", len(c.Repairs)))

	return c, nil
}

// LoadResponses reads every stored response and adapts it into typed records.
func (s *ReportService) LoadResponses(ctx context.Context) ([]models.ResponseRecord, error) {
	dbCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	grid, err := s.responses.ReadAll(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	table := s.normalizer.Normalize(grid, normalize.ResponsesSchema)
	records := normalize.ToResponses(table)

	s.logger.Debug("loaded responses", zap.Int("rows", len(records)))
	return records, nil
}

// MachineScore is the average overall score of one machine.
type MachineScore struct {
	Machine string  `json:"machine"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Report is the outcome of one report run.
type Report struct {
	Machines    []string        `json:"machines"`
	Sections    []string        `json:"sections"`
	Facts       []Fact          `json:"facts"`
	Table       PivotTable      `json:"table"`
	Digest      []NGDigestEntry `json:"digest"`
	Scores      []MachineScore  `json:"scores"`
	Repairs     []string        `json:"repairs,omitempty"`
	GeneratedAt string          `json:"generated_at"`
}

// BuildReport aggregates a response snapshot against a catalogue snapshot.
// It does not touch any store.
func (s *ReportService) BuildReport(responses []models.ResponseRecord, catalogue Catalogue) (Report, error) {
	if len(responses) == 0 {
		return Report{}, ErrNoResponses
	}

	machines := catalogue.MachineCodes()
	if len(machines) == 0 {
		machines = DeriveMachines(responses)
	}
	sections := catalogue.Sections()
	if len(sections) == 0 {
		sections = DeriveSections(responses)
	}

	facts := BuildFacts(responses, machines, sections, s.opts...)

	r := Report{
		Machines:    machines,
		Sections:    sections,
		Facts:       facts,
		Table:       Pivot(facts, machines, sections),
		Digest:      DigestNG(responses),
		Scores:      MachineScores(responses, machines),
		Repairs:     catalogue.Repairs,
		GeneratedAt: s.now().Format(timestampLayout),
	}

	s.logger.Info("built report",
		zap.Int("responses", len(responses)),
		zap.Int("machines", len(machines)),
		zap.Int("facts", len(facts)),
		zap.Int("rows", len(r.Table.Rows)))

	return r, nil
}

// GenerateReport loads fresh snapshots and builds a report from them.
func (s *ReportService) GenerateReport(ctx context.Context) (Report, error) {
	catalogue, err := s.LoadCatalogue(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load catalogue: %w", err)
	}
	responses, err := s.LoadResponses(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load responses: %w", err)
	}
	return s.BuildReport(responses, catalogue)
}

// MachineScores averages the numeric overall scores per machine. Machines are
// listed in the given order, followed by any other scored machine by code.
func MachineScores(responses []models.ResponseRecord, machines []string) []MachineScore {
	byMachine := indexByMachine(responses)

	order := slices.Clone(machines)
	for _, m := range DeriveMachines(responses) {
		if !slices.Contains(order, m) {
			order = append(order, m)
		}
	}

	var out []MachineScore
	for _, m := range order {
		scores := overallScores(byMachine[m])
		if len(scores) == 0 {
			continue
		}
		out = append(out, MachineScore{Machine: m, Average: stat.Mean(scores, nil), Count: len(scores)})
	}
	return out
}
