package webhook

import (
	"context"

	"max-notify/internal/model"
	"max-notify/pkg/maxbot"
)

const (
	// DefaultPathPrefix is where Max delivers updates: <prefix>/<entry id>.
	DefaultPathPrefix = "/api/max_notify"

	// SecretHeader carries the subscription secret on every delivery.
	SecretHeader = "X-Max-Bot-Api-Secret"

	// minSecretLength is the shortest secret the API accepts on subscribe.
	minSecretLength = 5
)

// SecurityConfig holds webhook security settings
type SecurityConfig struct {
	AllowedIPs      []string // IP whitelist (optional)
	RateLimitPerMin int      // Max requests per minute per entry, 0 disables
}

// InstanceLookup resolves a config entry by id.
type InstanceLookup interface {
	Get(id string) (model.Instance, bool)
}

// Submitter takes updates for asynchronous processing.
type Submitter interface {
	Submit(inst model.Instance, upd model.Update)
}

// SubscriptionClient is the part of the Max API used to (un)register webhooks.
type SubscriptionClient interface {
	CreateSubscription(ctx context.Context, req maxbot.SubscriptionRequest) (*maxbot.SimpleResult, error)
	DeleteSubscription(ctx context.Context, webhookURL string) (*maxbot.SimpleResult, error)
}

// SubscriptionClientFactory builds a client for one access token.
type SubscriptionClientFactory func(token string) SubscriptionClient

// PublicURLResolver returns the externally reachable base URL of this service.
type PublicURLResolver func(ctx context.Context) (string, error)
