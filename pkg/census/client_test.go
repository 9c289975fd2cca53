package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/market-scout/internal/resilience"
)

func TestDemographics(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantKind    resilience.Kind
		wantPop     int
		wantIncome  int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `[["B01001_001E","B19013_001E","zip code tabulation area"],
			        ["57110","104538","30301"]]`,
			wantPop:    57110,
			wantIncome: 104538,
		},
		{
			name:     "zcta does not exist",
			status:   http.StatusNoContent,
			body:     ``,
			wantErr:  "no data for zip",
			wantKind: resilience.KindDemographicUnavailable,
		},
		{
			name:     "zero population",
			status:   http.StatusOK,
			body:     `[["B01001_001E","B19013_001E","zip code tabulation area"],["0","104538","30301"]]`,
			wantErr:  "no data for zip",
			wantKind: resilience.KindDemographicUnavailable,
		},
		{
			name:     "income sentinel",
			status:   http.StatusOK,
			body:     `[["B01001_001E","B19013_001E","zip code tabulation area"],["57110","-666666666","30301"]]`,
			wantErr:  "no data for zip",
			wantKind: resilience.KindDemographicUnavailable,
		},
		{
			name:     "header only",
			status:   http.StatusOK,
			body:     `[["B01001_001E","B19013_001E","zip code tabulation area"]]`,
			wantErr:  "no data for zip",
			wantKind: resilience.KindDemographicUnavailable,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `error`,
			wantErr:  "status 500",
			wantKind: resilience.KindInternal,
		},
		{
			name:     "malformed response",
			status:   http.StatusOK,
			body:     `{unexpected`,
			wantErr:  "parse response",
			wantKind: resilience.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/data/2022/acs/acs5", r.URL.Path)
				assert.Equal(t, "B01001_001E,B19013_001E", r.URL.Query().Get("get"))
				assert.Equal(t, "zip code tabulation area:30301", r.URL.Query().Get("for"))
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))

			data, err := client.Demographics(context.Background(), "30301")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantKind, resilience.KindOf(err))
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPop, data.Population)
			assert.Equal(t, tt.wantIncome, data.MedianIncome)
		})
	}
}

func TestDemographicsYearOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2019/acs/acs5", r.URL.Path)
		_, _ = w.Write([]byte(`[["B01001_001E","B19013_001E","zcta"],["100","50000","30301"]]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithYear("2019"))
	data, err := client.Demographics(context.Background(), "30301")
	require.NoError(t, err)
	assert.Equal(t, 100, data.Population)
}
