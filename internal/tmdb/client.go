// Package tmdb wraps the outbound search and detail calls to the
// external movie catalog (a TMDB-compatible HTTP API).
package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the external catalog client. It is safe for concurrent use.
type Client struct {
	rest         *resty.Client
	imageBaseURL string
}

// New creates a catalog client bound to the given base URL, image host
// prefix and API key. Every request carries the bounded timeout.
func New(baseURL, imageBaseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("catalog API key is required")
	}

	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetQueryParam("api_key", apiKey).
		SetQueryParam("language", "en-US")

	return &Client{
		rest:         rest,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
	}, nil
}

// Search returns one page of candidate movies matching the title.
func (c *Client) Search(ctx context.Context, title string) ([]SearchResult, error) {
	var payload searchResponse

	response, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("query", title).
		SetQueryParam("include_adult", "true").
		SetQueryParam("page", "1").
		SetResult(&payload).
		Get("/search/movie")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if response.IsError() {
		return nil, &APIError{StatusCode: response.StatusCode(), Body: response.String()}
	}

	return payload.Results, nil
}

// Details fetches the full record of a single catalog movie and shapes
// it into the fields the import flow persists.
func (c *Client) Details(ctx context.Context, externalID int64) (*MovieDetails, error) {
	var payload movieResponse

	response, err := c.rest.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(fmt.Sprintf("/movie/%d", externalID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if response.IsError() {
		return nil, &APIError{StatusCode: response.StatusCode(), Body: response.String()}
	}

	return &MovieDetails{
		Title:       payload.Title,
		Year:        yearFromReleaseDate(payload.ReleaseDate),
		Description: payload.Overview,
		PosterURL:   c.imageBaseURL + payload.PosterPath,
	}, nil
}

// yearFromReleaseDate takes the portion of the release date before the
// first separator ("2018-06-08" yields 2018). A missing or malformed
// date yields 0.
func yearFromReleaseDate(releaseDate string) int {
	yearPart, _, _ := strings.Cut(releaseDate, "-")
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0
	}

	return year
}
