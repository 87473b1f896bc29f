package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// maxAlertLen caps how much of a chat message lands in a notification.
const maxAlertLen = 100

// Client talks to the OneSignal REST API. It is constructed once at
// startup; Ready reports whether credentials were configured instead of a
// shared module flag.
type Client struct {
	appID       string
	apiKey      string
	apiURL      string
	httpClient  *http.Client
	initialized bool
}

// NewClientFromEnv loads OneSignal config from environment.
// Required: ONESIGNAL_APP_ID, ONESIGNAL_REST_API_KEY; optional: ONESIGNAL_API_URL.
func NewClientFromEnv() *Client {
	c := &Client{
		appID:      os.Getenv("ONESIGNAL_APP_ID"),
		apiKey:     os.Getenv("ONESIGNAL_REST_API_KEY"),
		apiURL:     os.Getenv("ONESIGNAL_API_URL"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if c.apiURL == "" {
		c.apiURL = "https://onesignal.com/api/v1/notifications"
	}
	c.initialized = c.appID != "" && c.apiKey != ""
	return c
}

// Ready reports whether the client holds usable credentials.
func (c *Client) Ready() bool {
	return c.initialized
}

type notificationBody struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids,omitempty"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	URL              string            `json:"url,omitempty"`
}

type notificationResult struct {
	ID         string `json:"id"`
	Recipients int    `json:"recipients"`
}

func (c *Client) send(ctx context.Context, body notificationBody) (notificationResult, error) {
	var result notificationResult
	if !c.initialized {
		return result, fmt.Errorf("onesignal not configured: set ONESIGNAL_APP_ID and ONESIGNAL_REST_API_KEY")
	}

	body.AppID = c.appID
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(b))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMsg string
		if b, readErr := io.ReadAll(resp.Body); readErr == nil && len(b) > 0 {
			errMsg = string(b)
		}
		if errMsg != "" {
			return result, fmt.Errorf("onesignal send failed: status=%d body=%s", resp.StatusCode, errMsg)
		}
		return result, fmt.Errorf("onesignal send failed: status=%d", resp.StatusCode)
	}

	_ = json.NewDecoder(resp.Body).Decode(&result)
	return result, nil
}

// NotifyPlayers sends a chat alert to the given subscription ids. Long
// messages are truncated: a notification is a teaser, not a transcript.
func (c *Client) NotifyPlayers(ctx context.Context, playerIDs []string, heading, message string) (int, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}

	result, err := c.send(ctx, notificationBody{
		IncludePlayerIDs: playerIDs,
		Headings:         map[string]string{"en": heading},
		Contents:         map[string]string{"en": Truncate(message, maxAlertLen)},
		URL:              "/?tab=social",
	})
	if err != nil {
		return 0, err
	}
	return result.Recipients, nil
}

// BroadcastAll sends to every subscribed device.
func (c *Client) BroadcastAll(ctx context.Context, title, body string) (int, error) {
	result, err := c.send(ctx, notificationBody{
		IncludedSegments: []string{"Subscribed Users"},
		Headings:         map[string]string{"en": title, "fr": title},
		Contents:         map[string]string{"en": body, "fr": body},
		URL:              "/dashboard",
	})
	if err != nil {
		return 0, err
	}
	return result.Recipients, nil
}

// Truncate shortens s to max characters, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
