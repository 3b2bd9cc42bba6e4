// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testConfig() types.SemanticScholarConfig {
	return types.SemanticScholarConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "citegraph-test"},
		PageLimit:         1000,
		RequestsPerSecond: 1000,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg types.SemanticScholarConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	orig := apiBase
	apiBase = srv.URL
	t.Cleanup(func() { apiBase = orig })

	return New(cfg, zap.NewNop())
}

type edgePage struct {
	Offset int              `json:"offset"`
	Next   *int             `json:"next,omitempty"`
	Data   []map[string]any `json:"data"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchByDOI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, paperFields, r.URL.Query().Get("fields"))
		switch r.URL.Path {
		case "/paper/DOI:10.1/x/citations":
			writeJSON(t, w, edgePage{Data: []map[string]any{
				{"citingPaper": Paper{PaperID: "s2c1", Title: "Citing One", Year: 2022}},
				{"citingPaper": Paper{PaperID: "s2c2", Title: "Citing Two", Year: 2023}},
			}})
		case "/paper/DOI:10.1/x/references":
			writeJSON(t, w, edgePage{Data: []map[string]any{
				{"citedPaper": Paper{
					PaperID:     "s2r1",
					Title:       "Cited One",
					ExternalIDs: ExternalIDs{DOI: "10.2/y", CorpusID: 99},
					Authors:     []Author{{AuthorID: "sa1", Name: "J. Smith"}},
				}},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}, testConfig())

	nb, err := c.FetchByDOI(context.Background(), "10.1/x")
	require.NoError(t, err)
	require.NotNil(t, nb)

	require.Len(t, nb.Citations, 2)
	assert.Equal(t, "Citing One", nb.Citations[0].Title)

	require.Len(t, nb.References, 1)
	assert.Equal(t, "10.2/y", nb.References[0].ExternalIDs.DOI)
	assert.Equal(t, int64(99), nb.References[0].ExternalIDs.CorpusID)
	require.Len(t, nb.References[0].Authors, 1)
	assert.Equal(t, "J. Smith", nb.References[0].Authors[0].Name)
}

func TestFetchByDOIPaginates(t *testing.T) {
	next := 1
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/paper/DOI:10.1/x/references" {
			writeJSON(t, w, edgePage{Data: nil})
			return
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset == 0 {
			writeJSON(t, w, edgePage{
				Next: &next,
				Data: []map[string]any{{"citingPaper": Paper{PaperID: "s2c1"}}},
			})
			return
		}
		assert.Equal(t, 1, offset)
		writeJSON(t, w, edgePage{
			Offset: 1,
			Data:   []map[string]any{{"citingPaper": Paper{PaperID: "s2c2"}}},
		})
	}, testConfig())

	nb, err := c.FetchByDOI(context.Background(), "10.1/x")
	require.NoError(t, err)
	require.NotNil(t, nb)
	assert.Len(t, nb.Citations, 2)
}

func TestFetchByDOIUnknownDOI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, testConfig())

	nb, err := c.FetchByDOI(context.Background(), "10.9/unknown")
	require.NoError(t, err)
	assert.Nil(t, nb)
}

func TestFetchByDOIFatalStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}, testConfig())

	_, err := c.FetchByDOI(context.Background(), "10.1/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, httputil.ErrFatalStatus)
}

func TestAPIKeyHeader(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "sk_test"

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk_test", r.Header.Get("x-api-key"))
		writeJSON(t, w, edgePage{})
	}, cfg)

	_, err := c.FetchByDOI(context.Background(), "10.1/x")
	require.NoError(t, err)
}
