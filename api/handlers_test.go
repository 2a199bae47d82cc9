package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	sections []*core.Section
	err      error
	query    string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]*core.Section, error) {
	f.query = query
	return f.sections, f.err
}

type fakeStats struct {
	count  int
	cached int
	err    error
}

func (f *fakeStats) CountSections(ctx context.Context) (int, error) { return f.count, f.err }
func (f *fakeStats) Cached() int                                    { return f.cached }

func newTestServer(t *testing.T, searcher Searcher, stats Stats, opts ...Option) http.Handler {
	t.Helper()
	srv, err := NewServer(searcher, stats, append([]Option{WithLogger(discardLogger())}, opts...)...)
	require.NoError(t, err)
	return srv.Handler()
}

func predict(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bns/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	h.ServeHTTP(rec, req)
	return rec
}

func TestPredict_ReturnsSectionViews(t *testing.T) {
	searcher := &fakeSearcher{sections: []*core.Section{
		{Id: 1, SectionNo: "303", Title: "Theft", Description: "taking", Punishment: "3 years", Vector: core.Embedding{1, 2}},
		{Id: 5, SectionNo: "303(2)", Title: "Theft of vehicle"},
	}}
	h := newTestServer(t, searcher, &fakeStats{})

	rec := predict(h, "  someone stole my bike \n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "someone stole my bike", searcher.query)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Theft", views[0]["title"])
	assert.Equal(t, "303", views[0]["sectionNo"])
	assert.Equal(t, float64(1), views[0]["id"])
	assert.NotContains(t, views[0], "vector")
	assert.Equal(t, "Theft of vehicle", views[1]["title"])
}

func TestPredict_EmptyResultIsArray(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, &fakeStats{})

	rec := predict(h, "anything")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPredict_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"blank body", "   \n\t", nil, http.StatusBadRequest},
		{"empty body", "", nil, http.StatusBadRequest},
		{"encoder unavailable", "theft", fmt.Errorf("encode: %w", ai.ErrEmbedderUnavailable), http.StatusServiceUnavailable},
		{"other failure", "theft", errors.New("disk on fire"), http.StatusInternalServerError},
		{"too large", strings.Repeat("a", MaxQueryBytes+1), nil, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeSearcher{err: tt.err}, &fakeStats{})
			rec := predict(h, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bns/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, &fakeStats{count: 358, cached: 356})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sections":358,"cached":356}`, rec.Body.String())
}

func TestHealth_StorageFailure(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, &fakeStats{err: errors.New("closed")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_RateLimited(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, &fakeStats{}, WithRateLimit(0.001, 1))

	assert.Equal(t, http.StatusOK, predict(h, "theft").Code)
	assert.Equal(t, http.StatusTooManyRequests, predict(h, "theft").Code)
}
