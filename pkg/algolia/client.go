// Package algolia is a client for the Hacker News search API hosted by
// Algolia.
package algolia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
)

const (
	// DefaultEndpoint is the public HN search endpoint.
	DefaultEndpoint = "https://hn.algolia.com/api/v1/search"

	// DefaultHitsPerPage matches the page size used by the web client.
	DefaultHitsPerPage = 100

	// maxBodySize caps how much of a response is read before giving up.
	maxBodySize = 16 << 20
)

// ErrFetchFailed is the only error kind surfaced by the client. Network
// failures, non-2xx statuses and malformed bodies all wrap it.
var ErrFetchFailed = errors.New("search request failed")

// Fetcher fetches one page of results for a term.
type Fetcher interface {
	FetchPage(ctx context.Context, term string, page, hitsPerPage int) (*core.ResultPage, error)
}

// Config holds client settings.
type Config struct {
	Endpoint string
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	Metrics *metrics.Metrics
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	endpoint string
	http     *http.Client
	metrics  *metrics.Metrics
	log      *log.Logger
}

// response mirrors the parts of the endpoint's JSON the client needs. Hits is
// a pointer so that a body without a "hits" array can be told apart from an
// empty result.
type response struct {
	Hits        *[]core.Hit `json:"hits"`
	Page        int         `json:"page"`
	NbHits      int         `json:"nbHits"`
	NbPages     int         `json:"nbPages"`
	HitsPerPage int         `json:"hitsPerPage"`
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must be an http or https URL", endpoint)
	}

	parent := cfg.Transport
	if parent == nil {
		parent = http.DefaultTransport
	}

	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: gzhttp.Transport(parent),
		},
		metrics: cfg.Metrics,
		log:     log.ForService("algolia"),
	}, nil
}

// BuildURL returns the request URL for term and page. hitsPerPage <= 0 falls
// back to DefaultHitsPerPage.
func (c *Client) BuildURL(term string, page, hitsPerPage int) string {
	if hitsPerPage <= 0 {
		hitsPerPage = DefaultHitsPerPage
	}
	if page < 0 {
		page = 0
	}

	// Parameters already on the endpoint, such as tags, are kept.
	u, _ := url.Parse(c.endpoint)
	q := u.Query()
	q.Set("query", term)
	q.Set("page", strconv.Itoa(page))
	q.Set("hitsPerPage", strconv.Itoa(hitsPerPage))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage issues a single GET for term at the zero-based page. It does not
// retry.
func (c *Client) FetchPage(ctx context.Context, term string, page, hitsPerPage int) (*core.ResultPage, error) {
	started := time.Now()
	result, err := c.fetch(ctx, c.BuildURL(term, page, hitsPerPage))
	if err != nil {
		c.metrics.ObserveSearch("error", started, 0)
		c.log.Warnf("fetching %q page %d: %v", term, page, err)
		return nil, err
	}

	c.metrics.ObserveSearch("ok", started, len(result.Hits))
	c.log.Debugf("fetched %q page %d: %d hits in %s", term, result.Page, len(result.Hits), time.Since(started))
	return result, nil
}

func (c *Client) fetch(ctx context.Context, u string) (*core.ResultPage, error) {
	c.log.Debugf("GET %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warnf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFetchFailed, err)
	}
	if body.Hits == nil {
		return nil, fmt.Errorf("%w: response has no hits array", ErrFetchFailed)
	}

	return &core.ResultPage{
		Hits:        *body.Hits,
		Page:        body.Page,
		NbHits:      body.NbHits,
		NbPages:     body.NbPages,
		HitsPerPage: body.HitsPerPage,
	}, nil
}
