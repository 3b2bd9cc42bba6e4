// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is the typed client for the OpenAlex Works API, the
// engine's primary bibliographic provider. Pagination, batching limits,
// and field selection are hidden behind a uniform result shape.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// apiBase is the OpenAlex API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.openalex.org"

// FieldSet selects which work fields a batch request asks for. Narrow
// selections keep large batch responses small.
type FieldSet string

const (
	// FieldsSearchPreview covers title-search candidate listings.
	FieldsSearchPreview FieldSet = "search-preview"

	// FieldsFullIngestion covers everything a full Paper ingestion needs,
	// including authorships, references, and related works.
	FieldsFullIngestion FieldSet = "full-ingestion"

	// FieldsAuthorReconciliation covers only identity and authorships.
	FieldsAuthorReconciliation FieldSet = "author-reconciliation"

	// FieldsStubCreation covers the minimal identity of a stub paper.
	FieldsStubCreation FieldSet = "stub-creation"
)

var fieldSelections = map[FieldSet]string{
	FieldsSearchPreview: "id,doi,title,display_name,publication_year,publication_date,authorships,cited_by_count",
	FieldsFullIngestion: "id,doi,title,display_name,publication_year,publication_date,language,type,fwci," +
		"cited_by_count,abstract_inverted_index,primary_location,open_access,best_oa_location,keywords," +
		"authorships,referenced_works,related_works",
	FieldsAuthorReconciliation: "id,doi,authorships",
	FieldsStubCreation:         "id,doi,title,display_name,publication_year,cited_by_count",
}

// Client queries the OpenAlex API. All methods honor the configured rate
// limit, and single-work fetches are served from a TTL cache so hydration
// and extension phases never refetch a record already in hand.
type Client struct {
	http    *http.Client
	cfg     types.OpenAlexConfig
	limiter *rate.Limiter
	cache   *gocache.Cache
	log     *zap.Logger
}

// New builds a client from the adapter configuration.
func New(cfg types.OpenAlexConfig, log *zap.Logger) *Client {
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:     log,
	}
	if cfg.CacheTTL > 0 {
		c.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// SearchByTitle returns ranked work candidates for a title query, in
// OpenAlex relevance order.
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]Work, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty title query")
	}

	params := url.Values{
		"search":   {query},
		"per-page": {"10"},
		"select":   {fieldSelections[FieldsSearchPreview]},
	}

	var lr listResponse
	if err := c.get(ctx, "/works", params, &lr); err != nil {
		return nil, fmt.Errorf("title search: %w", err)
	}
	return lr.Results, nil
}

// FetchWork fetches a single work by OpenAlex id or bare DOI. It returns
// (nil, nil) when the provider reports the work does not exist.
func (c *Client) FetchWork(ctx context.Context, id string) (*Work, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(id); ok {
			w := cached.(Work)
			return &w, nil
		}
	}

	path := "/works/" + url.PathEscape(id)
	if strings.HasPrefix(id, "10.") {
		// DOIs are addressed through the resolver form.
		path = "/works/https://doi.org/" + id
	}

	var w Work
	found, err := c.getOne(ctx, path, url.Values{"select": {fieldSelections[FieldsFullIngestion]}}, &w)
	if err != nil {
		return nil, fmt.Errorf("fetching work %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	if c.cache != nil {
		c.cache.SetDefault(id, w)
	}
	return &w, nil
}

// FetchCitingWorks lists the works that cite any of the given OpenAlex
// work ids. Ids are chunked to the provider's per-filter limit; each chunk
// is walked with cursor pagination capped at MaxPagesPerChunk. Hitting the
// cap logs degradation and returns what was collected so a very large
// citing set never stalls the phase.
func (c *Client) FetchCitingWorks(ctx context.Context, ids []string) ([]Work, error) {
	var all []Work
	for _, chunk := range chunkIDs(ids, c.cfg.BatchSize) {
		works, err := c.pageFilter(ctx, "cites:"+strings.Join(chunk, "|"), FieldsFullIngestion)
		if err != nil {
			return all, err
		}
		all = append(all, works...)
	}
	return all, nil
}

// FetchWorksBatch fetches many works by OpenAlex id with the given field
// selection. Unknown ids are simply absent from the result.
func (c *Client) FetchWorksBatch(ctx context.Context, ids []string, fs FieldSet) ([]Work, error) {
	return c.batchFilter(ctx, "openalex", ids, fs)
}

// FetchWorksByDOI fetches many works by bare DOI with the given field
// selection. Unknown DOIs are simply absent from the result.
func (c *Client) FetchWorksByDOI(ctx context.Context, dois []string, fs FieldSet) ([]Work, error) {
	return c.batchFilter(ctx, "doi", dois, fs)
}

func (c *Client) batchFilter(ctx context.Context, key string, values []string, fs FieldSet) ([]Work, error) {
	var all []Work
	for _, chunk := range chunkIDs(values, c.cfg.BatchSize) {
		works, err := c.pageFilter(ctx, key+":"+strings.Join(chunk, "|"), fs)
		if err != nil {
			return all, err
		}
		all = append(all, works...)
	}
	if c.cache != nil {
		for _, w := range all {
			c.cache.SetDefault(strings.TrimPrefix(w.ID, "https://openalex.org/"), w)
		}
	}
	return all, nil
}

// pageFilter walks a filtered works listing with cursor pagination.
func (c *Client) pageFilter(ctx context.Context, filter string, fs FieldSet) ([]Work, error) {
	cursor := "*"
	var all []Work
	for page := 0; page < c.cfg.MaxPagesPerChunk; page++ {
		params := url.Values{
			"filter":   {filter},
			"per-page": {fmt.Sprintf("%d", c.cfg.PerPage)},
			"cursor":   {cursor},
			"select":   {fieldSelections[fs]},
		}

		var lr listResponse
		if err := c.get(ctx, "/works", params, &lr); err != nil {
			return all, fmt.Errorf("filter %q: %w", filter, err)
		}
		all = append(all, lr.Results...)

		if lr.Meta.NextCursor == "" || len(lr.Results) == 0 {
			return all, nil
		}
		cursor = lr.Meta.NextCursor
	}

	c.log.Warn("page cap hit, proceeding with partial results",
		zap.String("filter", filter),
		zap.Int("pages", c.cfg.MaxPagesPerChunk),
		zap.Int("collected", len(all)))
	return all, nil
}

// get performs a rate-limited GET against a listing endpoint. A 404 on a
// listing leaves out untouched, which callers see as an empty page.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	_, err := c.getOne(ctx, path, params, out)
	return err
}

// getOne performs a rate-limited GET. It returns found=false on 404.
func (c *Client) getOne(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	if c.cfg.Email != "" {
		params.Set("mailto", c.cfg.Email)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	reqURL := apiBase + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(c.http, req, 0)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return true, nil
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = 50
	}
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
