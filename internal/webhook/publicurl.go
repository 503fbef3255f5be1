package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// StaticURL resolves to a fixed base URL.
func StaticURL(base string) PublicURLResolver {
	return func(context.Context) (string, error) {
		return base, nil
	}
}

// ngrokTunnelsResponse matches the /api/tunnels response from the ngrok local API.
type ngrokTunnelsResponse struct {
	Tunnels []ngrokTunnel `json:"tunnels"`
}

type ngrokTunnel struct {
	PublicURL string `json:"public_url"`
	Proto     string `json:"proto"`
}

// NgrokURL resolves the public URL through a local ngrok agent API.
// The first HTTPS tunnel found is cached; failures are retried on the next call.
func NgrokURL(apiBase string, attempts int, interval time.Duration) PublicURLResolver {
	var (
		mu     sync.Mutex
		cached string
	)
	client := &http.Client{Timeout: 5 * time.Second}

	return func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if cached != "" {
			return cached, nil
		}
		u, err := detectNgrokURL(ctx, client, strings.TrimRight(apiBase, "/"), attempts, interval)
		if err != nil {
			return "", err
		}
		cached = u
		return u, nil
	}
}

// detectNgrokURL polls the ngrok API until an HTTPS tunnel shows up, to ride out ngrok startup.
func detectNgrokURL(ctx context.Context, client *http.Client, apiBase string, attempts int, interval time.Duration) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	url := apiBase + "/api/tunnels"

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(interval):
			}
		}

		tunnels, err := fetchTunnels(ctx, client, url)
		if err != nil {
			lastErr = err
			continue
		}
		for _, t := range tunnels.Tunnels {
			if t.Proto == "https" || strings.HasPrefix(t.PublicURL, "https://") {
				return t.PublicURL, nil
			}
		}
		// No https tunnel yet, ngrok may still be starting up
		lastErr = fmt.Errorf("%w: ngrok has no https tunnel", ErrNoPublicURL)
	}

	return "", fmt.Errorf("ngrok api after %d attempts: %w", attempts, lastErr)
}

func fetchTunnels(ctx context.Context, client *http.Client, url string) (*ngrokTunnelsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok API request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ngrok API not reachable: %w", err)
	}
	defer resp.Body.Close()

	var tunnels ngrokTunnelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tunnels); err != nil {
		return nil, fmt.Errorf("failed to decode ngrok API response: %w", err)
	}
	return &tunnels, nil
}
