// Package analysis drives the opportunity-analysis pipeline: input
// validation, location and category resolution, the concurrent demographic
// and competitor fetches, and score assembly.
package analysis

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/market-scout/internal/cache"
	"github.com/sells-group/market-scout/internal/category"
	"github.com/sells-group/market-scout/internal/config"
	"github.com/sells-group/market-scout/internal/metrics"
	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/pkg/census"
	"github.com/sells-group/market-scout/pkg/nominatim"
	"github.com/sells-group/market-scout/pkg/overpass"
)

// Analyzer runs the full analysis for one request. It holds no per-request
// state; the response cache is the only thing shared across requests.
type Analyzer struct {
	geocoder   nominatim.Client
	census     census.Client
	overpass   overpass.Client
	categories *category.Resolver
	cache      cache.Cache
	cfg        config.AnalysisConfig
}

// New creates an Analyzer with all dependencies.
func New(
	geocoder nominatim.Client,
	censusClient census.Client,
	overpassClient overpass.Client,
	categories *category.Resolver,
	responseCache cache.Cache,
	cfg config.AnalysisConfig,
) *Analyzer {
	return &Analyzer{
		geocoder:   geocoder,
		census:     censusClient,
		overpass:   overpassClient,
		categories: categories,
		cache:      responseCache,
		cfg:        cfg,
	}
}

// Analyze validates the request and produces an opportunity report.
// Validation failures return before any external call.
func (a *Analyzer) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.OpportunityReport, error) {
	req.Normalize()
	if req.Address != "" && req.RadiusMiles == 0 {
		req.RadiusMiles = a.cfg.AddressRadiusMiles
	}

	searchType, err := validate(&req)
	if err != nil {
		metrics.AnalyzeRequests.WithLabelValues(string(searchType), resilience.KindValidation.String()).Inc()
		return nil, err
	}

	start := time.Now()
	report, err := a.run(ctx, req, searchType)
	metrics.AnalyzeDuration.WithLabelValues(string(searchType)).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = resilience.KindOf(err).String()
	}
	metrics.AnalyzeRequests.WithLabelValues(string(searchType), outcome).Inc()
	return report, err
}

// validate checks the request shape and fills in radius defaults. It returns
// the search type so even rejected requests are attributed to a branch.
func validate(req *model.AnalyzeRequest) (model.SearchType, error) {
	searchType := model.SearchTypeZip
	if req.ZipCode == "" {
		searchType = model.SearchTypeRadius
	}

	if req.BusinessTerm == "" || len(req.BusinessTerm) > 100 {
		return searchType, resilience.NewError(resilience.KindValidation,
			eris.New("business term must be between 1 and 100 characters"))
	}

	switch {
	case req.ZipCode != "" && req.Address != "":
		return searchType, resilience.NewError(resilience.KindValidation,
			eris.New("provide either a zip code or an address, not both"))

	case req.ZipCode != "":
		if !model.ValidZip(req.ZipCode) {
			return searchType, resilience.NewError(resilience.KindValidation,
				eris.New("valid 5-digit zip code is required"))
		}

	case req.Address != "":
		if req.RadiusMiles <= 0 || req.RadiusMiles > model.MaxRadiusMiles {
			return searchType, resilience.NewError(resilience.KindValidation,
				eris.Errorf("radius must be greater than 0 and at most %v miles", model.MaxRadiusMiles))
		}

	default:
		return searchType, resilience.NewError(resilience.KindValidation,
			eris.New("a zip code or an address is required"))
	}

	return searchType, nil
}

// run executes the pipeline after validation. Category resolution is
// independent of location resolution, so the two run concurrently; the
// demographic and competitor fetches then run concurrently behind the
// cache with fail-fast join semantics.
func (a *Analyzer) run(ctx context.Context, req model.AnalyzeRequest, searchType model.SearchType) (*model.OpportunityReport, error) {
	var (
		loc model.ResolvedLocation
		tag model.CategoryTag
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tag = a.categories.Resolve(gctx, req.BusinessTerm)
		return nil
	})
	g.Go(func() error {
		var resolveErr error
		loc, resolveErr = a.resolveLocation(gctx, req, searchType)
		return resolveErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	radiusMiles := req.RadiusMiles
	if searchType == model.SearchTypeZip {
		radiusMiles = a.cfg.ZipRadiusMiles
	}
	radiusMeters := MilesToMeters(radiusMiles)

	var (
		demo *model.DemographicData
		comp *model.CompetitorResult
	)

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var fetchErr error
		demo, fetchErr = cache.GetOrFetch(gctx, a.cache, cache.DemographicKey(loc.Zip),
			func(ctx context.Context) (*model.DemographicData, error) {
				return a.census.Demographics(ctx, loc.Zip)
			})
		return fetchErr
	})
	g.Go(func() error {
		var fetchErr error
		comp, fetchErr = a.fetchCompetitors(gctx, req, loc, tag, radiusMeters)
		return fetchErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	score := Score(demo.Population, demo.MedianIncome, comp.Count)

	locations := comp.Locations
	if locations == nil {
		locations = []model.Point{}
	}

	zap.L().Info("analysis complete",
		zap.String("term", req.BusinessTerm),
		zap.String("tag", tag.Key+"="+tag.Value),
		zap.String("search_type", string(searchType)),
		zap.String("zip", loc.Zip),
		zap.Int("competitors", comp.Count),
		zap.Int("opportunity_value", score.Value),
	)

	return &model.OpportunityReport{
		Population:          demo.Population,
		MedianIncome:        demo.MedianIncome,
		CompetitorCount:     comp.Count,
		OpportunityScore:    score.Label,
		OpportunityValue:    score.Value,
		CompetitorLocations: locations,
		SearchLocation:      loc.Label,
		Coordinates:         &model.Point{Lat: loc.Lat, Lon: loc.Lon},
		SearchType:          searchType,
	}, nil
}

// resolveLocation turns the request's location into coordinates plus the zip
// code the demographic lookup keys on. The zip branch geocodes the zip only
// for coordinates and a display label; the address branch additionally
// reverse-geocodes to recover a zip.
func (a *Analyzer) resolveLocation(ctx context.Context, req model.AnalyzeRequest, searchType model.SearchType) (model.ResolvedLocation, error) {
	if searchType == model.SearchTypeZip {
		place, err := a.geocoder.Search(ctx, req.ZipCode)
		if err != nil {
			return model.ResolvedLocation{}, eris.Wrapf(err, "resolve zip %s", req.ZipCode)
		}
		return model.ResolvedLocation{
			Lat:   place.Lat,
			Lon:   place.Lon,
			Label: place.DisplayName,
			Zip:   req.ZipCode,
		}, nil
	}

	place, err := a.geocoder.Search(ctx, req.Address)
	if err != nil {
		return model.ResolvedLocation{}, eris.Wrap(err, "resolve address")
	}

	zip, err := a.geocoder.ReverseZip(ctx, place.Lat, place.Lon)
	if err != nil {
		return model.ResolvedLocation{}, eris.Wrap(err, "reverse geocode")
	}
	if zip == "" {
		// Demographic data is zip-indexed, so an address we cannot tie to a
		// zip cannot be analyzed.
		return model.ResolvedLocation{}, resilience.NewError(resilience.KindNotFound,
			eris.New("could not determine a zip code for this address, try a more specific address"))
	}

	return model.ResolvedLocation{
		Lat:   place.Lat,
		Lon:   place.Lon,
		Label: place.DisplayName,
		Zip:   zip,
	}, nil
}

// fetchCompetitors runs the spatial query through the cache. Radius mode is
// the default for both branches; the boundary path remains for callers that
// ask for the legacy zip-polygon search.
func (a *Analyzer) fetchCompetitors(ctx context.Context, req model.AnalyzeRequest, loc model.ResolvedLocation, tag model.CategoryTag, radiusMeters int) (*model.CompetitorResult, error) {
	if req.UseBoundary && loc.Zip != "" {
		return cache.GetOrFetch(ctx, a.cache, cache.CompetitorZipKey(loc.Zip, req.BusinessTerm),
			func(ctx context.Context) (*model.CompetitorResult, error) {
				return a.overpass.InArea(ctx, tag, loc.Zip, req.IncludeLocations)
			})
	}

	key := cache.CompetitorRadiusKey(loc.Lat, loc.Lon, radiusMeters, req.BusinessTerm)
	return cache.GetOrFetch(ctx, a.cache, key,
		func(ctx context.Context) (*model.CompetitorResult, error) {
			return a.overpass.Around(ctx, tag, loc.Lat, loc.Lon, radiusMeters, req.IncludeLocations)
		})
}
