package mocks

import (
	"context"
	"errors"

	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
)

// MockEvaluationService is a mock implementation of the EvaluationService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockEvaluationService struct {
	LoadCatalogueFunc func(ctx context.Context) (service.Catalogue, error)
	LoadResponsesFunc func(ctx context.Context) ([]models.ResponseRecord, error)
	BuildReportFunc   func(responses []models.ResponseRecord, catalogue service.Catalogue) (service.Report, error)
	SubmitFunc        func(ctx context.Context, sub service.Submission) (int, error)
}

// LoadCatalogue implements the EvaluationService interface
func (m *MockEvaluationService) LoadCatalogue(ctx context.Context) (service.Catalogue, error) {
	if m.LoadCatalogueFunc != nil {
		return m.LoadCatalogueFunc(ctx)
	}
	return service.Catalogue{}, errors.New("LoadCatalogueFunc not implemented")
}

// LoadResponses implements the EvaluationService interface
func (m *MockEvaluationService) LoadResponses(ctx context.Context) ([]models.ResponseRecord, error) {
	if m.LoadResponsesFunc != nil {
		return m.LoadResponsesFunc(ctx)
	}
	return nil, errors.New("LoadResponsesFunc not implemented")
}

// BuildReport implements the EvaluationService interface
func (m *MockEvaluationService) BuildReport(responses []models.ResponseRecord, catalogue service.Catalogue) (service.Report, error) {
	if m.BuildReportFunc != nil {
		return m.BuildReportFunc(responses, catalogue)
	}
	return service.Report{}, errors.New("BuildReportFunc not implemented")
}

// Submit implements the EvaluationService interface
func (m *MockEvaluationService) Submit(ctx context.Context, sub service.Submission) (int, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sub)
	}
	return 0, errors.New("SubmitFunc not implemented")
}

// MockSessionStore is a mock implementation of the SessionStore interface.
type MockSessionStore struct {
	StartFunc func(ctx context.Context, tester, series string, mode session.FillMode) (*session.State, error)
	LoadFunc  func(ctx context.Context, id string) (*session.State, error)
	SaveFunc  func(ctx context.Context, st *session.State) error
}

// Start implements the SessionStore interface
func (m *MockSessionStore) Start(ctx context.Context, tester, series string, mode session.FillMode) (*session.State, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, tester, series, mode)
	}
	return nil, errors.New("StartFunc not implemented")
}

// Load implements the SessionStore interface
func (m *MockSessionStore) Load(ctx context.Context, id string) (*session.State, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, id)
	}
	return nil, session.ErrNotFound
}

// Save implements the SessionStore interface
func (m *MockSessionStore) Save(ctx context.Context, st *session.State) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, st)
	}
	return nil
}
