package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
	"github.com/Adda-Baaj/newsscrape/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// Package search talks to the Bing news search API.

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	defaultTimeout        = 15 * time.Second
)

// ErrMissingAPIKey is returned when a search is attempted without a credential.
var ErrMissingAPIKey = errors.New("search api key is empty")

// Searcher issues news queries.
type Searcher interface {
	Search(ctx context.Context, query, market string, count int) ([]domain.SearchResult, error)
}

// Client is a Bing news search client.
type Client struct {
	endpoint string
	apiKey   string
	client   *resty.Client
}

// NewClient builds a news search client for endpoint.
func NewClient(endpoint, apiKey string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("search endpoint is empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(apiKey),
		client:   httpclient.NewRestyHTTPClient(timeout),
	}, nil
}

type newsAnswer struct {
	Value []newsArticle `json:"value"`
}

type newsArticle struct {
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	DatePublished string         `json:"datePublished"`
	Provider      []organization `json:"provider"`
}

type organization struct {
	Name string `json:"name"`
}

// Search runs one query and returns the results in API order.
func (c *Client) Search(ctx context.Context, query, market string, count int) ([]domain.SearchResult, error) {
	params := map[string]string{"q": query}
	if market != "" {
		params["mkt"] = market
	}
	if count > 0 {
		params["count"] = strconv.Itoa(count)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(subscriptionKeyHeader, c.apiKey).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news search %q: status %d body: %s", query, resp.StatusCode(), httpclient.Snippet(resp.Body(), 512))
	}

	return decodeResults(resp.Body())
}

func decodeResults(body []byte) ([]domain.SearchResult, error) {
	var answer newsAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return nil, fmt.Errorf("decode news search response: %w", err)
	}

	out := make([]domain.SearchResult, 0, len(answer.Value))
	for _, a := range answer.Value {
		r := domain.SearchResult{
			Name:        a.Name,
			URL:         a.URL,
			PublishedAt: a.DatePublished,
		}
		if len(a.Provider) > 0 {
			r.Provider = a.Provider[0].Name
		}
		out = append(out, r)
	}
	return out, nil
}
