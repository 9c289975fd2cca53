// Package overpass provides a client for the OSM Overpass API, supporting
// radius and postal-boundary point-of-interest queries.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/internal/model"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Client runs spatial point-of-interest queries.
type Client interface {
	// Around finds POIs matching the tag within radiusMeters of the center.
	Around(ctx context.Context, tag model.CategoryTag, lat, lon float64, radiusMeters int, includeLocations bool) (*model.CompetitorResult, error)
	// InArea finds POIs matching the tag inside the postal boundary of the
	// zip code. A zip with no registered boundary yields an empty result,
	// not an error.
	InArea(ctx context.Context, tag model.CategoryTag, zip string, includeLocations bool) (*model.CompetitorResult, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default interpreter endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an Overpass API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// element is a single Overpass result element. Nodes carry their own
// coordinates; ways carry a geometry vertex list when "out geom" was
// requested; count summaries carry totals in tags.
type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Geometry []geomPoint       `json:"geometry"`
	Tags     map[string]string `json:"tags"`
}

type geomPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type response struct {
	Elements []element `json:"elements"`
}

func (c *httpClient) Around(ctx context.Context, tag model.CategoryTag, lat, lon float64, radiusMeters int, includeLocations bool) (*model.CompetitorResult, error) {
	resp, err := c.run(ctx, aroundQuery(tag, lat, lon, radiusMeters, includeLocations))
	if err != nil {
		return nil, err
	}
	return reduce(resp, includeLocations), nil
}

func (c *httpClient) InArea(ctx context.Context, tag model.CategoryTag, zip string, includeLocations bool) (*model.CompetitorResult, error) {
	areaResp, err := c.run(ctx, areaLookupQuery(zip))
	if err != nil {
		return nil, err
	}

	// No postal boundary registered for this zip. Common, and not fatal.
	if len(areaResp.Elements) == 0 {
		zap.L().Debug("overpass: no postal boundary for zip", zap.String("zip", zip))
		return &model.CompetitorResult{Count: 0, Locations: []model.Point{}}, nil
	}

	resp, err := c.run(ctx, inAreaQuery(tag, areaResp.Elements[0].ID, includeLocations))
	if err != nil {
		return nil, err
	}
	return reduce(resp, includeLocations), nil
}

// run posts an Overpass QL query and decodes the JSON response. Any
// non-success outcome is a hard competitor-query failure.
func (c *httpClient) run(ctx context.Context, query string) (*response, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewError(resilience.KindCompetitorQuery,
			eris.Wrap(err, "overpass: request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewError(resilience.KindCompetitorQuery,
			eris.Errorf("overpass: returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewError(resilience.KindCompetitorQuery,
			eris.Wrap(err, "overpass: read body"))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resilience.NewError(resilience.KindCompetitorQuery,
			eris.Wrap(err, "overpass: parse response"))
	}
	return &parsed, nil
}

// reduce collapses result elements into a CompetitorResult. With location
// detail each element becomes one representative point: nodes use their own
// coordinates, ways their first geometry vertex. Without detail the count
// summary element's total is used.
func reduce(resp *response, includeLocations bool) *model.CompetitorResult {
	if !includeLocations {
		return &model.CompetitorResult{Count: countTotal(resp.Elements)}
	}

	locations := make([]model.Point, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		switch el.Type {
		case "node":
			locations = append(locations, model.Point{Lat: el.Lat, Lon: el.Lon})
		case "way", "relation":
			if len(el.Geometry) > 0 {
				locations = append(locations, model.Point{Lat: el.Geometry[0].Lat, Lon: el.Geometry[0].Lon})
			}
		}
	}
	return &model.CompetitorResult{Count: len(locations), Locations: locations}
}

// countTotal reads the total from an "out count" summary element.
func countTotal(elements []element) int {
	for _, el := range elements {
		if el.Type != "count" {
			continue
		}
		if total, err := strconv.Atoi(el.Tags["total"]); err == nil {
			return total
		}
	}
	return 0
}
