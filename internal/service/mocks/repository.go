package mocks

import (
	"context"
	"errors"

	"github.com/intenza/hfeval/internal/repository/models"
)

// MockResponseStore is a mock implementation of the ResponseStore interface
// for testing the service layer.
type MockResponseStore struct {
	ReadAllFunc func(ctx context.Context) ([][]string, error)
	AppendFunc  func(ctx context.Context, records []models.ResponseRecord) error
}

// ReadAll implements the ResponseStore interface
func (m *MockResponseStore) ReadAll(ctx context.Context) ([][]string, error) {
	if m.ReadAllFunc != nil {
		return m.ReadAllFunc(ctx)
	}
	return nil, errors.New("ReadAllFunc not implemented")
}

// Append implements the ResponseStore interface
func (m *MockResponseStore) Append(ctx context.Context, records []models.ResponseRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, records)
	}
	return errors.New("AppendFunc not implemented")
}

// MockCatalogueSource is a mock implementation of the CatalogueSource interface.
type MockCatalogueSource struct {
	ReadMachinesFunc  func(ctx context.Context) ([][]string, error)
	ReadQuestionsFunc func(ctx context.Context) ([][]string, error)
}

// ReadMachines implements the CatalogueSource interface
func (m *MockCatalogueSource) ReadMachines(ctx context.Context) ([][]string, error) {
	if m.ReadMachinesFunc != nil {
		return m.ReadMachinesFunc(ctx)
	}
	return nil, errors.New("ReadMachinesFunc not implemented")
}

// ReadQuestions implements the CatalogueSource interface
func (m *MockCatalogueSource) ReadQuestions(ctx context.Context) ([][]string, error) {
	if m.ReadQuestionsFunc != nil {
		return m.ReadQuestionsFunc(ctx)
	}
	return nil, errors.New("ReadQuestionsFunc not implemented")
}
