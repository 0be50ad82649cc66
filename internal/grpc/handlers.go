package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/intenza/hfeval/api/v1"
	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
)

const (
	defaultCatalogueTTL = 5 * time.Minute
	defaultResponsesTTL = time.Minute
	defaultGRPCTimeout  = 10 * time.Second
)

type CacheKeyType string

const (
	cacheKeyCatalogue CacheKeyType = "grpc:catalogue"
	cacheKeyResponses CacheKeyType = "grpc:responses"
)

type GRPCHandlers struct {
	pb.UnimplementedEvaluationServer
	svc          EvaluationService
	sessions     SessionStore
	cache        Cacher
	logger       *zap.Logger
	sfGroup      singleflight.Group
	refresh      refreshGate
	catalogueTTL time.Duration
	responsesTTL time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(svc EvaluationService, sessions SessionStore, cache Cacher, logger *zap.Logger, catalogueTTL, responsesTTL time.Duration) *GRPCHandlers {
	if svc == nil {
		panic("nil EvaluationService provided to NewGRPCHandlers")
	}
	if sessions == nil {
		panic("nil SessionStore provided to NewGRPCHandlers")
	}
	if catalogueTTL <= 0 {
		catalogueTTL = defaultCatalogueTTL
	}
	if responsesTTL <= 0 {
		responsesTTL = defaultResponsesTTL
	}
	return &GRPCHandlers{
		svc:          svc,
		sessions:     sessions,
		cache:        cache,
		logger:       logger.Named("grpc-handler"),
		catalogueTTL: catalogueTTL,
		responsesTTL: responsesTTL,
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrNoResponses):
		s.logger.Info("no responses found", zap.String("op", op))
		return status.Error(codes.NotFound, "no responses recorded yet")
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	case errors.Is(err, service.ErrInvalidSubmission), errors.Is(err, session.ErrInvalidMode):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, session.ErrNotFound):
		s.logger.Info("session not found", zap.String("op", op))
		return status.Error(codes.NotFound, "session not found or expired")
	case errors.Is(err, session.ErrNoMachine), errors.Is(err, session.ErrSeriesDone):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) catalogue(ctx context.Context) (service.Catalogue, error) {
	key := s.snapshotKey(ctx, cacheKeyCatalogue)
	return FindAndCache(ctx, s.cache, &s.sfGroup, &s.refresh, key, s.catalogueTTL, s.logger, s.svc.LoadCatalogue)
}

func (s *GRPCHandlers) responses(ctx context.Context) ([]models.ResponseRecord, error) {
	key := s.snapshotKey(ctx, cacheKeyResponses)
	return FindAndCache(ctx, s.cache, &s.sfGroup, &s.refresh, key, s.responsesTTL, s.logger, s.svc.LoadResponses)
}

func (s *GRPCHandlers) GetReport(ctx context.Context, req *pb.ReportRequest) (*pb.ReportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetReport", err)
	}
	responses, err := s.responses(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetReport", err)
	}

	report, err := s.svc.BuildReport(responses, catalogue)
	if err != nil {
		return nil, s.handleError(ctx, "GetReport", err)
	}

	return mapToProtoReport(report, req.IncludeFacts), nil
}

func (s *GRPCHandlers) GetMachineQuestions(ctx context.Context, req *pb.MachineQuestionsRequest) (*pb.MachineQuestionsResponse, error) {
	code := strings.TrimSpace(req.MachineCode)
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "machine code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetMachineQuestions", err)
	}
	if !catalogue.HasMachine(code) {
		return nil, status.Errorf(codes.NotFound, "machine %q is not in the catalogue", code)
	}

	return &pb.MachineQuestionsResponse{
		MachineCode: code,
		Sections:    mapToProtoSections(service.QuestionsForMachine(catalogue.Questions, code)),
	}, nil
}

func (s *GRPCHandlers) GetSeriesProgress(ctx context.Context, req *pb.SeriesProgressRequest) (*pb.SeriesProgressResponse, error) {
	if req.Series == "" {
		return nil, status.Error(codes.InvalidArgument, "series is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetSeriesProgress", err)
	}
	responses, err := s.responses(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetSeriesProgress", err)
	}

	p := service.SeriesProgress(responses, catalogue, strings.TrimSpace(req.Tester), req.Series)
	return &pb.SeriesProgressResponse{
		Series:    p.Series,
		Done:      p.Done,
		Total:     p.Total,
		Completed: p.Completed,
		Remaining: p.Remaining,
	}, nil
}

// ReloadCatalogue drops the cached catalogue and reads it again.
func (s *GRPCHandlers) ReloadCatalogue(ctx context.Context, _ *pb.ReloadCatalogueRequest) (*pb.ReloadCatalogueResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	s.invalidate(ctx, cacheKeyCatalogue)

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "ReloadCatalogue", err)
	}

	return &pb.ReloadCatalogueResponse{
		Series:    catalogue.Series(),
		Machines:  len(catalogue.Machines),
		Questions: len(catalogue.Questions),
		Repairs:   catalogue.Repairs,
	}, nil
}

func (s *GRPCHandlers) SubmitEvaluation(ctx context.Context, req *pb.SubmitEvaluationRequest) (*pb.SubmitResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	rows, err := s.submit(ctx, service.Submission{
		Tester:       req.Tester,
		MachineCode:  req.MachineCode,
		Items:        mapFromProtoAnswers(req.Items),
		SectionNotes: req.SectionNotes,
		Score:        req.Score,
	})
	if err != nil {
		return nil, s.handleError(ctx, "SubmitEvaluation", err)
	}
	return &pb.SubmitResponse{Rows: rows}, nil
}

// submit stores a submission and invalidates the response snapshot so the
// next read sees it.
func (s *GRPCHandlers) submit(ctx context.Context, sub service.Submission) (int, error) {
	rows, err := s.svc.Submit(ctx, sub)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, cacheKeyResponses)
	return rows, nil
}

func mapToProtoReport(r service.Report, includeFacts bool) *pb.ReportResponse {
	out := &pb.ReportResponse{
		Machines:    r.Machines,
		Sections:    r.Sections,
		Rows:        make([]pb.ReportRow, len(r.Table.Rows)),
		Repairs:     r.Repairs,
		GeneratedAt: r.GeneratedAt,
	}
	for i, row := range r.Table.Rows {
		out.Rows[i] = pb.ReportRow{Section: row.Section, Metric: row.Metric, Values: row.Values}
	}
	for _, d := range r.Digest {
		out.Digest = append(out.Digest, pb.DigestEntry{
			Key: d.Key, Item: d.Item, Machine: d.Machine, Count: d.Count, Notes: d.Notes,
		})
	}
	for _, sc := range r.Scores {
		out.Scores = append(out.Scores, pb.MachineScore{Machine: sc.Machine, Average: sc.Average, Count: sc.Count})
	}
	if includeFacts {
		for _, f := range r.Facts {
			out.Facts = append(out.Facts, pb.Fact{Section: f.Section, Metric: f.Metric, Machine: f.Machine, Value: f.Value})
		}
	}
	return out
}

func mapToProtoSections(sections []service.SectionQuestions) []pb.SectionQuestions {
	out := make([]pb.SectionQuestions, len(sections))
	for i, sq := range sections {
		out[i] = pb.SectionQuestions{Section: sq.Section, Questions: sq.Questions}
	}
	return out
}

func mapFromProtoAnswers(answers []pb.Answer) []service.ItemResponse {
	out := make([]service.ItemResponse, len(answers))
	for i, a := range answers {
		out[i] = service.ItemResponse{
			Section: a.Section,
			Item:    a.Item,
			Result:  models.ParseResult(a.Result),
		}
		if a.Note != nil {
			out[i].Note = *a.Note
		}
	}
	return out
}
