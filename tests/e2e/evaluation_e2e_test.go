//go:build e2e

package e2e

import (
	"context"
	"net"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	pb "github.com/intenza/hfeval/api/v1"
	handlers "github.com/intenza/hfeval/internal/grpc"
	"github.com/intenza/hfeval/internal/repository"
	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
	dbbuilder "github.com/intenza/hfeval/pkg/database"
	grpcsrv "github.com/intenza/hfeval/pkg/grpc/server"
	"github.com/intenza/hfeval/tests/e2e/mocks"
)

var (
	testMachines = []models.Machine{
		{Series: "Alpha", Code: "M1"},
		{Series: "Alpha", Code: "M2"},
		{Series: "Beta", Code: "B1"},
	}
	testQuestions = []models.Question{
		{Section: "Grip", Text: "Handle firm"},
		{Section: "Grip", Text: "Trigger smooth"},
		{Section: "Fit", Text: "Gap even", ApplicableMachines: []string{"M2"}},
	}
)

func setupClient(t *testing.T) *pb.EvaluationClient {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := dbbuilder.New(dbbuilder.WithDataSource(":memory:"), dbbuilder.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repository.Migrate(ctx, db))
	catalogueRepo := repository.NewCatalogueRepository(db)
	require.NoError(t, catalogueRepo.ReplaceCatalogue(ctx, testMachines, testQuestions))

	cache := mocks.NewInMemoryCache()
	svc := service.NewReportService(repository.NewResponseRepository(db), catalogueRepo, logger)
	sessions := session.NewStore(cache, time.Hour, logger)
	h := handlers.NewGRPCHandlers(svc, sessions, cache, logger, time.Minute, time.Minute)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv, err := grpcsrv.New(grpcsrv.WithListener(lis), grpcsrv.WithLogger(logger))
	require.NoError(t, err)
	srv.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterEvaluationServer(s, h)
	})
	srv.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewEvaluationClient(conn)
}

func cell(t *testing.T, report *pb.ReportResponse, section, metric, machine string) string {
	t.Helper()
	col := -1
	for i, m := range report.Machines {
		if m == machine {
			col = i
		}
	}
	require.NotEqual(t, -1, col, "machine %s not in report", machine)
	for _, row := range report.Rows {
		if row.Section == section && row.Metric == metric {
			return row.Values[col]
		}
	}
	t.Fatalf("row %s / %s not in report", section, metric)
	return ""
}

func notePtr(s string) *string { return &s }

func TestE2E_ReportBeforeAnySubmission(t *testing.T) {
	client := setupClient(t)

	_, err := client.GetReport(context.Background(), &pb.ReportRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestE2E_MachineQuestions(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	resp, err := client.GetMachineQuestions(ctx, &pb.MachineQuestionsRequest{MachineCode: "M2"})
	require.NoError(t, err)
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "Grip", resp.Sections[0].Section)
	assert.Equal(t, []string{"Handle firm", "Trigger smooth"}, resp.Sections[0].Questions)
	assert.Equal(t, []string{"Gap even"}, resp.Sections[1].Questions)

	resp, err = client.GetMachineQuestions(ctx, &pb.MachineQuestionsRequest{MachineCode: "M1"})
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)

	_, err = client.GetMachineQuestions(ctx, &pb.MachineQuestionsRequest{MachineCode: "ZZ"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestE2E_SequentialSessionToReport(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	started, err := client.StartSession(ctx, &pb.StartSessionRequest{Tester: "alice", Series: "Alpha"})
	require.NoError(t, err)
	id := started.Session.ID
	require.NotEmpty(t, id)
	assert.Equal(t, "M1", started.Session.Machine)
	require.Len(t, started.Sections, 1)

	score := 4
	_, err = client.UpdateSession(ctx, &pb.UpdateSessionRequest{
		SessionID: id,
		Answers: []pb.Answer{
			{Section: "Grip", Item: "Handle firm", Result: "Pass"},
			{Section: "Grip", Item: "Trigger smooth", Result: "NG", Note: notePtr("sticky")},
		},
		Score: &score,
	})
	require.NoError(t, err)

	submitted, err := client.SubmitSession(ctx, &pb.SubmitSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, 3, submitted.Rows)
	require.NotNil(t, submitted.Session)
	assert.Equal(t, "M2", submitted.Session.Machine)
	assert.Equal(t, 1, submitted.Session.Submitted)
	assert.Empty(t, submitted.Session.Answers)

	score = 5
	_, err = client.UpdateSession(ctx, &pb.UpdateSessionRequest{
		SessionID: id,
		Answers: []pb.Answer{
			{Section: "Grip", Item: "Handle firm", Result: "Pass"},
			{Section: "Fit", Item: "Gap even", Result: "Pass"},
		},
		SectionNotes: map[string]string{"Fit": "tight everywhere"},
		Score:        &score,
	})
	require.NoError(t, err)

	submitted, err = client.SubmitSession(ctx, &pb.SubmitSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.True(t, submitted.Session.Done)

	_, err = client.SubmitSession(ctx, &pb.SubmitSessionRequest{SessionID: id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	progress, err := client.GetSeriesProgress(ctx, &pb.SeriesProgressRequest{Tester: "alice", Series: "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Done)
	assert.Equal(t, 2, progress.Total)
	assert.Empty(t, progress.Remaining)

	report, err := client.GetReport(ctx, &pb.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2", "B1"}, report.Machines)
	assert.Equal(t, "50.0%", cell(t, report, "Grip", service.MetricPassRate, "M1"))
	assert.Equal(t, "100.0%", cell(t, report, "Grip", service.MetricPassRate, "M2"))
	assert.Equal(t, "100.0%", cell(t, report, "Fit", service.MetricPassRate, "M2"))
	assert.Equal(t, "4.0", cell(t, report, models.SectionOverall, service.MetricTotalScore, "M1"))
	assert.Equal(t, "5.0", cell(t, report, models.SectionOverall, service.MetricTotalScore, "M2"))
	assert.Contains(t, cell(t, report, "Fit", service.MetricSectionNote, "M2"), "tight everywhere")

	require.Len(t, report.Digest, 1)
	assert.Equal(t, "Trigger smooth | M1", report.Digest[0].Key)
	assert.Equal(t, 1, report.Digest[0].Count)
	assert.Equal(t, "sticky", report.Digest[0].Notes)

	records := report.Records()
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"Section", "Metric", "M1", "M2", "B1"}, records[0])
}

func TestE2E_DirectSubmissionRefreshesReport(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	four, two := 4, 2
	_, err := client.SubmitEvaluation(ctx, &pb.SubmitEvaluationRequest{
		Tester:      "alice",
		MachineCode: "M1",
		Items:       []pb.Answer{{Section: "Grip", Item: "Handle firm", Result: "Pass"}},
		Score:       &four,
	})
	require.NoError(t, err)

	report, err := client.GetReport(ctx, &pb.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "4.0", cell(t, report, models.SectionOverall, service.MetricTotalScore, "M1"))

	_, err = client.SubmitEvaluation(ctx, &pb.SubmitEvaluationRequest{
		Tester:      "bob",
		MachineCode: "M1",
		Items:       []pb.Answer{{Section: "Grip", Item: "Handle firm", Result: "NG", Note: notePtr("loose")}},
		Score:       &two,
	})
	require.NoError(t, err)

	report, err = client.GetReport(ctx, &pb.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "3.0", cell(t, report, models.SectionOverall, service.MetricTotalScore, "M1"))
	assert.Equal(t, "50.0%", cell(t, report, "Grip", service.MetricPassRate, "M1"))
	require.Len(t, report.Scores, 1)
	assert.InDelta(t, 3.0, report.Scores[0].Average, 1e-9)
}

func TestE2E_InvalidSubmission(t *testing.T) {
	client := setupClient(t)
	score := 9

	_, err := client.SubmitEvaluation(context.Background(), &pb.SubmitEvaluationRequest{
		Tester:      "alice",
		MachineCode: "M1",
		Score:       &score,
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestE2E_ReloadCatalogue(t *testing.T) {
	client := setupClient(t)

	resp, err := client.ReloadCatalogue(context.Background(), &pb.ReloadCatalogueRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, resp.Series)
	assert.Equal(t, 3, resp.Machines)
	assert.Equal(t, 3, resp.Questions)
}
