// Package openevse carries RAPI frames to an OpenEVSE WiFi gateway over its
// HTTP endpoint: GET <base>/r?json=1&rapi=<frame>.
package openevse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/infra/logger"
)

// Config locates the charger.
type Config struct {
	// URL is the gateway base address, e.g. http://openevse-1234.
	URL string `json:"url"`
	// TimeoutSeconds bounds a single command exchange.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.URL == "" {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("charger url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("charger url must be http or https, got %q", c.URL)
	}
	return nil
}

// reply is the JSON body returned with json=1.
type reply struct {
	Cmd string `json:"cmd"`
	Ret string `json:"ret"`
}

// HTTPTransport implements rapi.Transport.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// NewHTTPTransport returns a transport sending commands to baseURL through client.
func NewHTTPTransport(client *http.Client, baseURL string) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     logger.New("openevse"),
	}
}

// Send issues frame and returns the framed "ret" value.
func (t *HTTPTransport) Send(ctx context.Context, frame string) (string, error) {
	q := url.Values{}
	q.Set("json", "1")
	q.Set("rapi", frame)
	endpoint := t.baseURL + "/r?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &model.TransportError{Op: "build request", Err: err}
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", &model.TransportError{Op: "send " + frame, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.TransportError{Op: "read reply", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &model.TransportError{
			Op:  "send " + frame,
			Err: fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body),
		}
	}
	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return "", &model.TransportError{Op: "decode reply", Err: err}
	}
	t.log.Debugf("rapi %s -> %s", frame, r.Ret)
	return r.Ret, nil
}
