// Package feed queries the USGS FDSN event service.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/5TUM8L3/quakealert/internal/httpclient"
	"github.com/5TUM8L3/quakealert/internal/quake"
)

// StartTimeLayout is the ISO-8601 UTC layout the service accepts, without
// sub-second precision.
const StartTimeLayout = "2006-01-02T15:04:05"

// Query bounds one request.
type Query struct {
	Start        time.Time
	MinMagnitude float64
}

// Values encodes q as FDSN query parameters, oldest event first.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("format", "geojson")
	v.Set("starttime", q.Start.UTC().Format(StartTimeLayout))
	v.Set("minmagnitude", strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64))
	v.Set("orderby", "time-asc")
	return v
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed http %d: %s", e.Code, e.Body)
}

// Client fetches events from a single FDSN endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: httpclient.New(timeout)}
}

// Fetch runs q and decodes the response. The client timeout bounds the whole
// request including the body read.
func (c *Client) Fetch(ctx context.Context, q Query) ([]quake.Event, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("feed url: %w", err)
	}
	params := u.Query()
	for k, vs := range q.Values() {
		params[k] = vs
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	// USGS answers 204 when nothing matches.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return quake.Decode(body)
}
