package service

import (
	"context"

	"github.com/intenza/hfeval/internal/repository/models"
)

// ResponseStore defines the storage operations the service needs for responses.
// ReadAll returns a raw grid whose first row may be a header.
type ResponseStore interface {
	ReadAll(ctx context.Context) ([][]string, error)
	Append(ctx context.Context, records []models.ResponseRecord) error
}

// CatalogueSource defines read access to the machine and question settings.
type CatalogueSource interface {
	ReadMachines(ctx context.Context) ([][]string, error)
	ReadQuestions(ctx context.Context) ([][]string, error)
}
