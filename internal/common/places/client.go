// Package places is a client for the external places directory: paginated
// text search, single-page search and per-place detail lookups.
package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	commonhttp "places-workers/internal/common/http"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
)

// DetailFields is the fixed field selection for detail lookups.
const DetailFields = "name,formatted_address,formatted_phone_number,website"

type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	PageTokenDelay time.Duration
	PhotoMaxWidth  int
}

type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PhotoMaxWidth <= 0 {
		cfg.PhotoMaxWidth = 400
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg:    cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "places"}),
	}
}

// SearchAllPages runs a text search and follows next_page_token until the
// directory stops returning one. PageTokenDelay is waited before every
// cursor reuse since the directory rejects tokens presented too early.
func (c *Client) SearchAllPages(ctx context.Context, query string) ([]PlaceSummary, error) {
	var (
		all   []PlaceSummary
		token string
		page  int
	)

	for {
		params := url.Values{}
		params.Set("query", query)
		params.Set("key", c.cfg.APIKey)
		if token != "" {
			params.Set("pagetoken", token)
		}

		resp, err := c.textSearch(ctx, params)
		if err != nil {
			return nil, err
		}
		page++

		for _, r := range resp.Results {
			all = append(all, r.Summary())
		}

		c.logger.Debug("search page fetched", map[string]interface{}{
			"query":   query,
			"page":    page,
			"results": len(resp.Results),
		})

		token = resp.NextPageToken
		if token == "" {
			return all, nil
		}

		if err := sleep(ctx, c.cfg.PageTokenDelay); err != nil {
			return nil, &PlacesError{Stage: StageSearch, Err: err}
		}
	}
}

// TextSearch runs a single-page text search and returns the full results.
func (c *Client) TextSearch(ctx context.Context, query string) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.cfg.APIKey)

	resp, err := c.textSearch(ctx, params)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// FetchDetail looks up name, address, phone and website for one place.
func (c *Client) FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", DetailFields)
	params.Set("key", c.cfg.APIKey)

	var resp detailResponse
	if err := c.get(ctx, StageDetail, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(StageDetail, resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// PhotoURL builds the photo-serving URL for a photo reference.
func (c *Client) PhotoURL(reference string) string {
	return c.cfg.BaseURL + "/photo?maxwidth=" + strconv.Itoa(c.cfg.PhotoMaxWidth) +
		"&photoreference=" + url.QueryEscape(reference) +
		"&key=" + url.QueryEscape(c.cfg.APIKey)
}

func (c *Client) textSearch(ctx context.Context, params url.Values) (*textSearchResponse, error) {
	var resp textSearchResponse
	if err := c.get(ctx, StageSearch, "/textsearch/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(StageSearch, resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, stage Stage, path string, params url.Values, out interface{}) error {
	start := time.Now()
	err := c.http.GetJSON(ctx, c.cfg.BaseURL+path+"?"+params.Encode(), out)
	metrics.PlacesRequestDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PlacesRequests.WithLabelValues(string(stage), metrics.OutcomeFailure).Inc()
		pe := &PlacesError{Stage: stage, Err: err}
		var statusErr *commonhttp.StatusError
		if errors.As(err, &statusErr) {
			pe.StatusCode = statusErr.StatusCode
		}
		return pe
	}

	metrics.PlacesRequests.WithLabelValues(string(stage), metrics.OutcomeSuccess).Inc()
	return nil
}

func checkStatus(stage Stage, status, message string) error {
	if status == StatusOK || status == StatusZeroResults {
		return nil
	}
	err := ErrUpstreamStatus
	if message != "" {
		err = fmt.Errorf("%w: %s", ErrUpstreamStatus, message)
	}
	return &PlacesError{Stage: stage, StatusCode: http.StatusOK, Status: status, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
