package http

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"avdeck/internal/dataprocessing"
	apierrors "avdeck/internal/errors"
	"avdeck/internal/shared/testutil"
	"avdeck/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DatasetSummary), args.Error(1)
}

func (m *MockDatasetService) GetDataset(ctx context.Context, id string) (*dataprocessing.Table, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataprocessing.Table), args.Error(1)
}

func (m *MockDatasetService) Rebuild(ctx context.Context) (domain.BuildSummary, error) {
	args := m.Called()
	return args.Get(0).(domain.BuildSummary), args.Error(1)
}

func (m *MockDatasetService) LastBuild() (domain.BuildSummary, bool) {
	args := m.Called()
	return args.Get(0).(domain.BuildSummary), args.Bool(1)
}

func newTestDeps(t *testing.T) (*slog.Logger, *apierrors.ErrorHandler) {
	logger, _ := testutil.NewTestLogger(t)
	return logger, apierrors.NewErrorHandler(logger, false)
}

func trafficTable() *dataprocessing.Table {
	day := dataprocessing.Str("2019-01-01")
	return dataprocessing.NewTable("traffic", []dataprocessing.Column{
		{Name: "airport", Type: dataprocessing.String},
		{Name: "date", Type: dataprocessing.String},
		{Name: "flights", Type: dataprocessing.Number},
	}, [][]dataprocessing.Value{
		{dataprocessing.Str("EGLL"), day, dataprocessing.Num(1234.5)},
		{dataprocessing.Str("LFPG, Paris"), day, dataprocessing.Null()},
	})
}
