package webhook

import (
	"context"
	"errors"
	"strings"

	"max-notify/internal/model"
	"max-notify/pkg/maxbot"
	pkgLog "max-notify/pkg/log"
)

// Subscriptions registers and removes webhook URLs with the Max API.
type Subscriptions struct {
	newClient  SubscriptionClientFactory
	publicURL  PublicURLResolver
	pathPrefix string
	l          pkgLog.Logger
}

func NewSubscriptions(newClient SubscriptionClientFactory, publicURL PublicURLResolver, pathPrefix string, l pkgLog.Logger) *Subscriptions {
	if pathPrefix == "" {
		pathPrefix = DefaultPathPrefix
	}
	return &Subscriptions{
		newClient:  newClient,
		publicURL:  publicURL,
		pathPrefix: "/" + strings.Trim(pathPrefix, "/"),
		l:          l,
	}
}

// WebhookURL builds the delivery URL for one entry, or "" when no public base is known.
func (s *Subscriptions) WebhookURL(ctx context.Context, entryID string) string {
	if s.publicURL == nil {
		return ""
	}
	base, err := s.publicURL(ctx)
	if err != nil {
		s.l.Warnf(ctx, "webhook: public url lookup failed: %v", err)
		return ""
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	return base + s.pathPrefix + "/" + entryID
}

// Register subscribes the entry's webhook URL. It reports false on any failure; there is no retry.
func (s *Subscriptions) Register(ctx context.Context, inst model.Instance) bool {
	url := s.WebhookURL(ctx, inst.ID)
	if url == "" || !strings.HasPrefix(url, "https://") {
		if url == "" {
			url = "(empty)"
		}
		s.l.Warnf(ctx, "webhook: url not available or not HTTPS: %s", url)
		return false
	}
	if inst.AccessToken == "" {
		s.l.Warnf(ctx, "webhook: no access token for entry %s", inst.ID)
		return false
	}

	req := maxbot.SubscriptionRequest{URL: url, UpdateTypes: model.ReceivableUpdateTypes}
	if len(inst.WebhookSecret) >= minSecretLength {
		req.Secret = inst.WebhookSecret
	}

	res, err := s.newClient(inst.AccessToken).CreateSubscription(ctx, req)
	if err != nil {
		var se *maxbot.StatusError
		if errors.As(err, &se) {
			s.l.Warnf(ctx, "webhook: POST /subscriptions failed: status=%d body=%s", se.StatusCode, se.Body)
		} else {
			s.l.Warnf(ctx, "webhook: register error: %v", err)
		}
		return false
	}
	if !res.Success {
		s.l.Warnf(ctx, "webhook: POST /subscriptions rejected: %s", res.Message)
		return false
	}

	s.l.Infof(ctx, "webhook: registered for entry_id=%s url=%s", inst.ID, url)
	return true
}

// Unregister removes the entry's subscription. Failures are logged and still
// reported as true so teardown never blocks on the remote side.
func (s *Subscriptions) Unregister(ctx context.Context, inst model.Instance) bool {
	url := s.WebhookURL(ctx, inst.ID)
	if url == "" || inst.AccessToken == "" {
		return true
	}

	res, err := s.newClient(inst.AccessToken).DeleteSubscription(ctx, url)
	switch {
	case err != nil:
		s.l.Warnf(ctx, "webhook: unregister error: %v", err)
	case res.Success:
		s.l.Infof(ctx, "webhook: unregistered for entry_id=%s", inst.ID)
	default:
		s.l.Debugf(ctx, "webhook: DELETE /subscriptions not confirmed: %s", res.Message)
	}
	return true
}
