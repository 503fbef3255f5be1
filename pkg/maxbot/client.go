package maxbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIURL     = "https://platform-api.max.ru"
	DefaultAPIVersion = "1.2.5"

	PathMe            = "/me"
	PathUpdates       = "/updates"
	PathSubscriptions = "/subscriptions"

	// pollTimeoutMargin is added to the server-side wait for the client deadline.
	pollTimeoutMargin = 10 * time.Second
	controlTimeout    = 15 * time.Second
)

// Client is the Max Bot API client for one access token.
type Client struct {
	token      string
	apiURL     string
	version    string
	httpClient *http.Client
}

// NewClient creates a new Max API client with the given token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		apiURL:     DefaultAPIURL,
		version:    DefaultAPIVersion,
		httpClient: &http.Client{},
	}
}

// SetAPIURL overrides the default API URL, used by tests and self-hosted gateways.
func (c *Client) SetAPIURL(apiURL string) {
	c.apiURL = strings.TrimRight(apiURL, "/")
}

// SetAPIVersion overrides the v= query parameter.
func (c *Client) SetAPIVersion(v string) {
	if v != "" {
		c.version = v
	}
}

// GetMe validates the token and returns the bot identity.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("v", c.version)

	var info BotInfo
	if err := c.do(ctx, http.MethodGet, PathMe, q, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetUpdates long-polls for the next batch of updates.
// The request deadline is the server-side wait plus a margin.
func (c *Client) GetUpdates(ctx context.Context, p GetUpdatesParams) (*UpdateList, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.Timeout)*time.Second+pollTimeoutMargin)
	defer cancel()

	q := url.Values{}
	q.Set("v", c.version)
	q.Set("timeout", strconv.Itoa(p.Timeout))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Marker != "" {
		q.Set("marker", p.Marker)
	}
	if len(p.Types) > 0 {
		q.Set("types", strings.Join(p.Types, ","))
	}

	var list UpdateList
	if err := c.do(ctx, http.MethodGet, PathUpdates, q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateSubscription registers a webhook URL (POST /subscriptions).
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SimpleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("v", c.version)

	var res SimpleResult
	if err := c.do(ctx, http.MethodPost, PathSubscriptions, q, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteSubscription removes a webhook URL (DELETE /subscriptions?url=...).
func (c *Client) DeleteSubscription(ctx context.Context, webhookURL string) (*SimpleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("url", webhookURL)
	q.Set("v", c.version)

	var res SimpleResult
	if err := c.do(ctx, http.MethodDelete, PathSubscriptions, q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload any, out any) error {
	endpoint := c.apiURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call max %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(raw), errorBodyLimit),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode max %s %s response: %w", method, path, err)
	}
	return nil
}
