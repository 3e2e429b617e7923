package comed

import (
	"fmt"
	"net/http"

	"github.com/kilianp07/chargewindow/connectors"
)

// WithBaseURL overrides the ServletFeed endpoint.
func WithBaseURL(u string) connectors.Option {
	return func(c connectors.PriceFeed) error {
		if cl, ok := c.(*Client); ok {
			cl.baseURL = u
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithBaseURL", ID)
	}
}

// WithHTTPClient shares an existing HTTP client, and its connections, with the feed.
func WithHTTPClient(h *http.Client) connectors.Option {
	return func(c connectors.PriceFeed) error {
		if cl, ok := c.(*Client); ok {
			if h != nil {
				cl.http = h
			}
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithHTTPClient", ID)
	}
}
