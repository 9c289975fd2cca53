package analysis

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/pkg/nominatim"
)

// --- Nominatim Mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Search(ctx context.Context, query string) (*nominatim.Place, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nominatim.Place), args.Error(1)
}

func (m *mockGeocoder) ReverseZip(ctx context.Context, lat, lon float64) (string, error) {
	args := m.Called(ctx, lat, lon)
	return args.String(0), args.Error(1)
}

// --- Census Mock ---

type mockCensus struct {
	mock.Mock
}

func (m *mockCensus) Demographics(ctx context.Context, zip string) (*model.DemographicData, error) {
	args := m.Called(ctx, zip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DemographicData), args.Error(1)
}

// --- Overpass Mock ---

type mockOverpass struct {
	mock.Mock
}

func (m *mockOverpass) Around(ctx context.Context, tag model.CategoryTag, lat, lon float64, radiusMeters int, includeLocations bool) (*model.CompetitorResult, error) {
	args := m.Called(ctx, tag, lat, lon, radiusMeters, includeLocations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompetitorResult), args.Error(1)
}

func (m *mockOverpass) InArea(ctx context.Context, tag model.CategoryTag, zip string, includeLocations bool) (*model.CompetitorResult, error) {
	args := m.Called(ctx, tag, zip, includeLocations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompetitorResult), args.Error(1)
}
