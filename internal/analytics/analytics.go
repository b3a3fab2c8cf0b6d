// Package analytics sends product events to Mixpanel. Tracking is strictly
// fire-and-forget: delivery happens on a background goroutine and failures
// are logged, never surfaced to the request path.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// MixpanelBaseURL is the Mixpanel ingestion endpoint.
const MixpanelBaseURL = "https://api.mixpanel.com"

const (
	trackTimeout = 5 * time.Second
	appVersion   = "0.1.0"
)

// Client tracks events for one project token. A nil client or empty token
// disables tracking entirely, which is the development default.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// New creates an analytics client. An empty token returns a disabled client.
func New(token string) *Client {
	if token == "" {
		log.Printf("analytics: no token configured, tracking disabled")
	}
	return &Client{
		token:      token,
		baseURL:    MixpanelBaseURL,
		httpClient: &http.Client{Timeout: trackTimeout},
		now:        time.Now,
	}
}

// WithBaseURL overrides the ingestion endpoint (useful for testing).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Enabled reports whether events will actually be sent.
func (c *Client) Enabled() bool {
	return c != nil && c.token != ""
}

type event struct {
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties"`
}

// Track records one event with properties. The call returns immediately;
// delivery happens in the background with its own timeout. An empty userID
// tracks anonymously.
func (c *Client) Track(name string, properties map[string]interface{}, userID string) {
	if !c.Enabled() {
		return
	}

	props := make(map[string]interface{}, len(properties)+4)
	for k, v := range properties {
		props[k] = v
	}
	props["token"] = c.token
	props["time"] = c.now().Unix()
	props["app_version"] = appVersion
	if userID == "" {
		userID = "anonymous"
	}
	props["distinct_id"] = userID

	go c.deliver(event{Event: name, Properties: props})
}

func (c *Client) deliver(ev event) {
	payload, err := json.Marshal([]event{ev})
	if err != nil {
		log.Printf("analytics: marshal failed for %s: %v", ev.Event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/track", bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("analytics: delivery failed for %s: %v", ev.Event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("analytics: %s returned HTTP %d", ev.Event, resp.StatusCode)
	}
}
