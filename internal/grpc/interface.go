package grpc

import (
	"context"
	"time"

	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// EvaluationService loads snapshots, builds reports and stores submissions.
type EvaluationService interface {
	LoadCatalogue(ctx context.Context) (service.Catalogue, error)
	LoadResponses(ctx context.Context) ([]models.ResponseRecord, error)
	BuildReport(responses []models.ResponseRecord, catalogue service.Catalogue) (service.Report, error)
	Submit(ctx context.Context, sub service.Submission) (int, error)
}

type SessionStore interface {
	Start(ctx context.Context, tester, series string, mode session.FillMode) (*session.State, error)
	Load(ctx context.Context, id string) (*session.State, error)
	Save(ctx context.Context, st *session.State) error
}
