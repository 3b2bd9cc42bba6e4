// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semanticscholar is the typed client for the Semantic Scholar
// Graph API, the engine's secondary bibliographic provider. It is consulted
// only for cross-provider enrichment: given a DOI it returns the papers
// citing and cited by that work, paginated internally up to the provider's
// per-request limit.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// apiBase is the Semantic Scholar Graph API root. Declared as a var so
// tests can substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/graph/v1"

const paperFields = "title,year,externalIds,authors"

// Paper is a raw Semantic Scholar paper record. Authors arrive as plain
// names with Semantic Scholar author ids only; there is no stable
// cross-provider author identity on this path.
type Paper struct {
	PaperID     string      `json:"paperId"`
	Title       string      `json:"title"`
	Year        int         `json:"year"`
	ExternalIDs ExternalIDs `json:"externalIds"`
	Authors     []Author    `json:"authors"`
}

// ExternalIDs carries the cross-provider identifiers of a paper.
type ExternalIDs struct {
	DOI      string `json:"DOI"`
	CorpusID int64  `json:"CorpusId"`
}

// Author is a raw Semantic Scholar author reference.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// Neighborhood holds everything the provider knows about a paper's
// immediate citation neighborhood.
type Neighborhood struct {
	Citations  []Paper
	References []Paper
}

type edgeList struct {
	Offset int  `json:"offset"`
	Next   *int `json:"next"`
	Data   []struct {
		CitingPaper *Paper `json:"citingPaper"`
		CitedPaper  *Paper `json:"citedPaper"`
	} `json:"data"`
}

// Client queries the Semantic Scholar Graph API.
type Client struct {
	http    *http.Client
	cfg     types.SemanticScholarConfig
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds a client from the adapter configuration.
func New(cfg types.SemanticScholarConfig, log *zap.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:     log,
	}
}

// FetchByDOI returns the citation neighborhood of the paper with the given
// bare DOI, or (nil, nil) when the provider does not know the DOI. The
// citations and references listings are independent and fetched
// concurrently; both respect the shared rate limiter.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*Neighborhood, error) {
	var (
		wg              sync.WaitGroup
		citations, refs []Paper
		citFound        bool
		citErr, refErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		citations, citFound, citErr = c.pageEdges(ctx, doi, "citations")
	}()
	go func() {
		defer wg.Done()
		refs, _, refErr = c.pageEdges(ctx, doi, "references")
	}()
	wg.Wait()

	if citErr != nil {
		return nil, citErr
	}
	if refErr != nil {
		return nil, refErr
	}
	if !citFound {
		return nil, nil
	}

	return &Neighborhood{Citations: citations, References: refs}, nil
}

// pageEdges walks one edge listing (citations or references) with offset
// pagination up to the provider's offset ceiling.
func (c *Client) pageEdges(ctx context.Context, doi, kind string) ([]Paper, bool, error) {
	var papers []Paper
	offset := 0
	for {
		params := url.Values{
			"fields": {paperFields},
			"limit":  {fmt.Sprintf("%d", c.cfg.PageLimit)},
			"offset": {fmt.Sprintf("%d", offset)},
		}

		var el edgeList
		found, err := c.get(ctx, "/paper/DOI:"+doi+"/"+kind, params, &el)
		if err != nil {
			return papers, true, fmt.Errorf("fetching %s of %s: %w", kind, doi, err)
		}
		if !found {
			return nil, false, nil
		}

		for _, d := range el.Data {
			switch {
			case d.CitingPaper != nil:
				papers = append(papers, *d.CitingPaper)
			case d.CitedPaper != nil:
				papers = append(papers, *d.CitedPaper)
			}
		}

		if el.Next == nil {
			return papers, true, nil
		}
		offset = *el.Next
	}
}

// get performs a rate-limited GET. It returns found=false on 404.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	reqURL := apiBase + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(c.http, req, 0)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return true, nil
}
