package http

import (
	"context"

	"avdeck/internal/dataprocessing"
	"avdeck/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handlers need
type DatasetServiceInterface interface {
	ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error)
	GetDataset(ctx context.Context, id string) (*dataprocessing.Table, error)
	Rebuild(ctx context.Context) (domain.BuildSummary, error)
	LastBuild() (domain.BuildSummary, bool)
}
