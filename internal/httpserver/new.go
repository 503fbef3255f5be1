package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"max-notify/pkg/log"
)

// WebhookHandler receives Max webhook deliveries.
type WebhookHandler interface {
	HandleMaxWebhook(c *gin.Context)
}

// EventsHandler lists recently emitted events.
type EventsHandler interface {
	List(c *gin.Context)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin         *gin.Engine
	handler     http.Handler
	l           log.Logger
	port        int
	mode        string
	environment string
	pathPrefix  string
	apiToken    string

	// Ingestion
	webhookHandler WebhookHandler

	// Event consumers
	eventsHandler EventsHandler
	streamHandler http.Handler

	// Readiness
	journal Pinger
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string
	PathPrefix  string

	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string

	WebhookHandler WebhookHandler

	// APIToken guards the event consumer routes, which are skipped when it is empty.
	APIToken string

	// Optional; routes are skipped when nil.
	EventsHandler EventsHandler
	StreamHandler http.Handler
	Journal       Pinger
}

// New creates a new HTTPServer instance.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:              logger,
		gin:            gin.New(),
		port:           cfg.Port,
		mode:           cfg.Mode,
		environment:    cfg.Environment,
		pathPrefix:     "/" + strings.Trim(cfg.PathPrefix, "/"),
		apiToken:       cfg.APIToken,
		webhookHandler: cfg.WebhookHandler,
		eventsHandler:  cfg.EventsHandler,
		streamHandler:  cfg.StreamHandler,
		journal:        cfg.Journal,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	if err := srv.gin.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	if err := srv.mapHandlers(); err != nil {
		return nil, err
	}

	return srv, nil
}

// Handler exposes the routed handler, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler {
	return srv.handler
}

func (srv *HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.pathPrefix == "/" {
		return errors.New("path prefix is required")
	}
	if srv.webhookHandler == nil {
		return errors.New("webhook handler is required")
	}
	return nil
}
