// Package census provides a client for the Census Bureau ACS 5-year
// estimates API, keyed by zip code tabulation area.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/internal/model"
)

const (
	defaultBaseURL = "https://api.census.gov"
	defaultYear    = "2022"

	// ACS variable codes: total population and median household income.
	varPopulation   = "B01001_001E"
	varMedianIncome = "B19013_001E"
)

// Client fetches demographic figures for a zip code.
type Client interface {
	Demographics(ctx context.Context, zip string) (*model.DemographicData, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithYear sets the ACS vintage year.
func WithYear(year string) Option {
	return func(c *httpClient) {
		c.year = year
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	year    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Census ACS API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		year:    defaultYear,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Demographics fetches both ACS variables in a single request. The API
// returns a header row followed by data rows:
//
//	[["B01001_001E","B19013_001E","zip code tabulation area"],
//	 ["57110","104538","90210"]]
//
// A zip the survey has no usable figures for (zero or negative population or
// income, or no data row at all) yields a KindDemographicUnavailable error.
func (c *httpClient) Demographics(ctx context.Context, zip string) (*model.DemographicData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "census: rate limit")
	}

	params := url.Values{
		"get": {varPopulation + "," + varMedianIncome},
		"for": {"zip code tabulation area:" + zip},
		"key": {c.apiKey},
	}
	reqURL := fmt.Sprintf("%s/data/%s/acs/acs5?%s", c.baseURL, c.year, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The ACS API answers 204 when the ZCTA does not exist at all.
	if resp.StatusCode == http.StatusNoContent {
		return nil, unavailable(zip)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read body")
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}
	if len(rows) < 2 || len(rows[1]) < 2 {
		return nil, unavailable(zip)
	}

	population := parseFigure(rows[1][0])
	income := parseFigure(rows[1][1])
	if population <= 0 || income <= 0 {
		return nil, unavailable(zip)
	}

	return &model.DemographicData{
		Population:   population,
		MedianIncome: income,
	}, nil
}

// parseFigure parses an ACS figure, treating blanks and the API's negative
// sentinel values (e.g. -666666666 for "not available") as missing.
func parseFigure(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func unavailable(zip string) error {
	return resilience.NewError(resilience.KindDemographicUnavailable,
		eris.Errorf("census: no data for zip %s, it may be invalid or non-residential", zip))
}
