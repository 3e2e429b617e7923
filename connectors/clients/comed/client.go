// Package comed fetches ComEd hourly pricing day-ahead prices from the
// ServletFeed endpoint.
package comed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/chargewindow/connectors"
	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/infra/logger"
)

// ID identifies this connector in configuration.
const ID = "comed"

// DefaultBaseURL is the public ServletFeed endpoint.
const DefaultBaseURL = "https://hourlypricing.comed.com/rrtp/ServletFeed"

// Client implements connectors.PriceFeed.
type Client struct {
	http    *http.Client
	baseURL string
	log     logger.Logger
}

// New returns a Client configured by opts.
func New(opts ...connectors.Option) (*Client, error) {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: DefaultBaseURL,
		log:     logger.New("comed-feed"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FetchDay requests the "daynexttoday" feed for day.
func (c *Client) FetchDay(ctx context.Context, day time.Time) ([]model.RatePoint, error) {
	q := url.Values{}
	q.Set("type", "daynexttoday")
	q.Set("date", day.Format("20060102"))
	return c.fetch(ctx, q)
}

// FetchNext requests the "daynexttomorrow" feed.
func (c *Client) FetchNext(ctx context.Context) ([]model.RatePoint, error) {
	q := url.Values{}
	q.Set("type", "daynexttomorrow")
	return c.fetch(ctx, q)
}

func (c *Client) fetch(ctx context.Context, q url.Values) ([]model.RatePoint, error) {
	endpoint := c.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.TransportError{Op: "build feed request", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: "fetch feed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: "read feed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.TransportError{
			Op:  "fetch feed",
			Err: fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body),
		}
	}
	points, err := Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Encode(), err)
	}
	c.log.Debugf("fetched %d price points (%s)", len(points), q.Encode())
	return points, nil
}
