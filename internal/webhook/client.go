package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cardwatch/internal/config"
	"cardwatch/internal/outbox"
)

const userAgent = "cardwatch/0.1.0"

// maxResponseBytes bounds how much of the endpoint's reply is kept as the
// delivery diagnostic persisted with the event.
const maxResponseBytes = 2048

// Client posts captured card reads to the configured webhook endpoint.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient builds a delivery client from configuration. A missing webhook
// URL yields a client whose sends fail without touching the network, so
// events keep accruing in the outbox until an endpoint is configured.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    strings.TrimSpace(cfg.Webhook.URL),
		apiKey: strings.TrimSpace(cfg.Webhook.APIKey),
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an endpoint URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	if c == nil {
		return ""
	}
	return c.url
}

type eventPayload struct {
	DeviceID  string `json:"device_id"`
	CardID    string `json:"card_id"`
	CardValue string `json:"card_value"`
}

// Send posts one event and reports the outcome. Only HTTP 200 counts as
// delivered; any other status, a transport error, or a missing endpoint is a
// failure whose detail the store persists for the next attempt's diagnostics.
func (c *Client) Send(ctx context.Context, event *outbox.Event) outbox.Outcome {
	if !c.Configured() {
		return outbox.Outcome{Detail: "no webhook URL configured"}
	}

	body, err := json.Marshal(eventPayload{
		DeviceID:  event.DeviceID,
		CardID:    event.CardID,
		CardValue: event.CardValue,
	})
	if err != nil {
		return outbox.Outcome{Detail: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return outbox.Outcome{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return outbox.Outcome{Detail: err.Error()}
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	detail := strings.TrimSpace(string(reply))

	if resp.StatusCode == http.StatusOK {
		return outbox.Outcome{Success: true, Detail: detail}
	}
	return outbox.Outcome{Detail: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, detail)}
}
