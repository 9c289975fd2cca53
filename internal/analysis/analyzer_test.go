package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/market-scout/internal/cache"
	"github.com/sells-group/market-scout/internal/category"
	"github.com/sells-group/market-scout/internal/config"
	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/pkg/nominatim"
)

// nominatimPlace builds a geocoded place at a fixed Atlanta coordinate.
func nominatimPlace(name string) *nominatim.Place {
	return &nominatim.Place{Lat: 33.75, Lon: -84.39, DisplayName: name}
}

func newTestAnalyzer(geo *mockGeocoder, cen *mockCensus, ovp *mockOverpass) *Analyzer {
	resolver := category.NewResolver(category.DefaultDictionary())
	return New(geo, cen, ovp, resolver, cache.NewMemory(time.Hour), config.AnalysisConfig{
		ZipRadiusMiles:     2,
		AddressRadiusMiles: 1,
	})
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		req  model.AnalyzeRequest
	}{
		{"missing term", model.AnalyzeRequest{ZipCode: "30301"}},
		{"term too long", model.AnalyzeRequest{BusinessTerm: string(make([]byte, 101)), ZipCode: "30301"}},
		{"no location", model.AnalyzeRequest{BusinessTerm: "coffee shop"}},
		{"both locations", model.AnalyzeRequest{BusinessTerm: "coffee shop", ZipCode: "30301", Address: "123 Main St"}},
		{"malformed zip", model.AnalyzeRequest{BusinessTerm: "coffee shop", ZipCode: "3031"}},
		{"negative radius", model.AnalyzeRequest{BusinessTerm: "coffee shop", Address: "123 Main St", RadiusMiles: -1}},
		{"radius over limit", model.AnalyzeRequest{BusinessTerm: "coffee shop", Address: "123 Main St", RadiusMiles: 51}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := &mockGeocoder{}
			cen := &mockCensus{}
			ovp := &mockOverpass{}
			a := newTestAnalyzer(geo, cen, ovp)

			report, err := a.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, resilience.KindValidation, resilience.KindOf(err))

			// Rejected before any external call.
			geo.AssertNotCalled(t, "Search")
			cen.AssertNotCalled(t, "Demographics")
		})
	}
}

func TestAnalyzeZipSearch(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, "30301").
		Return(nominatimPlace("Atlanta, Fulton County, Georgia"), nil).Once()
	cen.On("Demographics", mock.Anything, "30301").
		Return(&model.DemographicData{Population: 50000, MedianIncome: 80000}, nil).Once()
	cafeTag := model.CategoryTag{Key: "amenity", Value: "cafe"}
	ovp.On("Around", mock.Anything, cafeTag, 33.75, -84.39, 3219, false).
		Return(&model.CompetitorResult{Count: 5}, nil).Once()

	report, err := a.Analyze(context.Background(), model.AnalyzeRequest{
		BusinessTerm: "coffee shop",
		ZipCode:      "30301",
	})
	require.NoError(t, err)

	assert.Equal(t, 50000, report.Population)
	assert.Equal(t, 80000, report.MedianIncome)
	assert.Equal(t, 5, report.CompetitorCount)
	assert.Equal(t, "1 per 10,000 residents", report.OpportunityScore)
	assert.Equal(t, 12400, report.OpportunityValue)
	assert.Equal(t, model.SearchTypeZip, report.SearchType)
	assert.Equal(t, "Atlanta, Fulton County, Georgia", report.SearchLocation)
	require.NotNil(t, report.Coordinates)
	assert.Equal(t, 33.75, report.Coordinates.Lat)
	assert.NotNil(t, report.CompetitorLocations)
	assert.Empty(t, report.CompetitorLocations)

	geo.AssertExpectations(t)
	cen.AssertExpectations(t)
	ovp.AssertExpectations(t)
}

func TestAnalyzeAddressSearch(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, "123 Peachtree St, Atlanta").
		Return(nominatimPlace("123, Peachtree Street, Atlanta"), nil).Once()
	geo.On("ReverseZip", mock.Anything, 33.75, -84.39).
		Return("30301", nil).Once()
	cen.On("Demographics", mock.Anything, "30301").
		Return(&model.DemographicData{Population: 50000, MedianIncome: 80000}, nil).Once()
	// Radius defaults to 1 mile for address searches.
	ovp.On("Around", mock.Anything, mock.Anything, 33.75, -84.39, 1609, true).
		Return(&model.CompetitorResult{
			Count:     2,
			Locations: []model.Point{{Lat: 33.76, Lon: -84.38}, {Lat: 33.74, Lon: -84.4}},
		}, nil).Once()

	report, err := a.Analyze(context.Background(), model.AnalyzeRequest{
		BusinessTerm:     "coffee shop",
		Address:          "123 Peachtree St, Atlanta",
		IncludeLocations: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SearchTypeRadius, report.SearchType)
	assert.Len(t, report.CompetitorLocations, 2)

	geo.AssertExpectations(t)
	ovp.AssertExpectations(t)
}

func TestAnalyzeAddressWithoutZip(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, mock.Anything).
		Return(nominatimPlace("Middle of Nowhere"), nil).Once()
	geo.On("ReverseZip", mock.Anything, 33.75, -84.39).
		Return("", nil).Once()

	report, err := a.Analyze(context.Background(), model.AnalyzeRequest{
		BusinessTerm: "coffee shop",
		Address:      "somewhere remote",
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, resilience.KindNotFound, resilience.KindOf(err))
	cen.AssertNotCalled(t, "Demographics")
}

func TestAnalyzeCensusFailurePropagates(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, "99999").
		Return(nominatimPlace("somewhere"), nil).Once()
	cen.On("Demographics", mock.Anything, "99999").
		Return(nil, resilience.NewError(resilience.KindDemographicUnavailable,
			eris.New("census: no data for zip 99999, it may be invalid or non-residential"))).Once()
	ovp.On("Around", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&model.CompetitorResult{Count: 0}, nil).Maybe()

	report, err := a.Analyze(context.Background(), model.AnalyzeRequest{
		BusinessTerm: "coffee shop",
		ZipCode:      "99999",
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, resilience.KindDemographicUnavailable, resilience.KindOf(err))
}

func TestAnalyzeUsesCacheOnRepeat(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, "30301").
		Return(nominatimPlace("Atlanta"), nil).Twice()
	cen.On("Demographics", mock.Anything, "30301").
		Return(&model.DemographicData{Population: 50000, MedianIncome: 80000}, nil).Once()
	ovp.On("Around", mock.Anything, mock.Anything, 33.75, -84.39, 3219, false).
		Return(&model.CompetitorResult{Count: 5}, nil).Once()

	req := model.AnalyzeRequest{BusinessTerm: "coffee shop", ZipCode: "30301"}

	first, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)

	// The demographic and competitor fetches ran exactly once; the second
	// request was served from cache.
	assert.Equal(t, first.OpportunityValue, second.OpportunityValue)
	cen.AssertExpectations(t)
	ovp.AssertExpectations(t)
}

func TestAnalyzeBoundarySearch(t *testing.T) {
	geo := &mockGeocoder{}
	cen := &mockCensus{}
	ovp := &mockOverpass{}
	a := newTestAnalyzer(geo, cen, ovp)

	geo.On("Search", mock.Anything, "30301").
		Return(nominatimPlace("Atlanta"), nil).Once()
	cen.On("Demographics", mock.Anything, "30301").
		Return(&model.DemographicData{Population: 50000, MedianIncome: 80000}, nil).Once()
	ovp.On("InArea", mock.Anything, mock.Anything, "30301", false).
		Return(&model.CompetitorResult{Count: 3}, nil).Once()

	report, err := a.Analyze(context.Background(), model.AnalyzeRequest{
		BusinessTerm: "coffee shop",
		ZipCode:      "30301",
		UseBoundary:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.CompetitorCount)
	ovp.AssertNotCalled(t, "Around")
	ovp.AssertExpectations(t)
}
