package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"courier/internal/domain"
	"courier/internal/search"
)

type searchResponse struct {
	Results []json.RawMessage              `json:"results"`
	Total   int                            `json:"total"`
	TookMs  int64                          `json:"took_ms"`
	Facets  map[string][]domain.FacetCount `json:"facets"`
	HasMore bool                           `json:"has_more"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// APIClient talks to the platform's REST search endpoints
type APIClient struct {
	client *resty.Client
}

func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "courier")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &APIClient{client: client}
}

func (c *APIClient) Search(ctx context.Context, req search.Request) (domain.SearchPage, error) {
	params := map[string]string{
		"q":     req.Query,
		"page":  strconv.Itoa(req.Page),
		"limit": strconv.Itoa(req.PageSize),
	}
	for k, v := range req.Filters.Active() {
		params[string(k)] = v
	}

	var out searchResponse
	if err := c.get(ctx, "/search", params, &out); err != nil {
		return domain.SearchPage{}, err
	}

	results, skipped, err := domain.DecodeResults(out.Results)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("failed to decode search results: %w", err)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d result(s) of unknown type", skipped)
	}

	return domain.SearchPage{
		Results: results,
		Total:   out.Total,
		Took:    time.Duration(out.TookMs) * time.Millisecond,
		Facets:  out.Facets,
		HasMore: out.HasMore,
	}, nil
}

func (c *APIClient) Suggest(ctx context.Context, text string) ([]string, error) {
	var out suggestionsResponse
	if err := c.get(ctx, "/search/suggestions", map[string]string{"q": text}, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *APIClient) get(ctx context.Context, path string, params map[string]string, result any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 200 {
			body = body[:200]
		}
		return &APIError{StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}
