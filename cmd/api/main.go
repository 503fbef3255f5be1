package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"max-notify/config"
	_ "max-notify/docs" // Swagger docs
	"max-notify/internal/httpserver"
	"max-notify/internal/ingest"
	"max-notify/internal/instance"
	"max-notify/internal/model"
	"max-notify/internal/polling"
	"max-notify/internal/webhook"
	"max-notify/pkg/log"
	"max-notify/pkg/maxbot"
)

const (
	ngrokAttempts = 10
	ngrokInterval = 2 * time.Second
	drainTimeout  = 15 * time.Second
)

// @title       Max Notify Bridge API
// @description Receives Max chat-bot updates by long polling or webhook and re-emits them as max_notify_received events.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	// 1. Configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting Max notify bridge...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)
	logger.Infof(ctx, "Max API: %s (v%s)", cfg.Max.APIURL, cfg.Max.APIVersion)

	// 3. Event sinks
	sinks, err := newSinks(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize event sinks: ", err)
		return
	}
	defer sinks.close(logger)

	// 4. Ingestion pipeline
	ingestUC := ingest.New(sinks.bus, ingest.Config{
		CallbackWindow: cfg.Dedup.CallbackWindow,
		DefaultWindow:  cfg.Dedup.DefaultWindow,
		Workers:        cfg.Workers.Count,
		JobTimeout:     cfg.Workers.JobTimeout,
	}, logger)

	newClient := func(token string) *maxbot.Client {
		c := maxbot.NewClient(token)
		c.SetAPIURL(cfg.Max.APIURL)
		c.SetAPIVersion(cfg.Max.APIVersion)
		return c
	}

	poller := polling.New(
		func(token string) polling.UpdatesClient { return newClient(token) },
		ingestUC,
		polling.Config{
			Timeout:    cfg.Polling.Timeout,
			Limit:      cfg.Polling.Limit,
			RetryDelay: cfg.Polling.RetryDelay,
			EmptyDelay: cfg.Polling.EmptyDelay,
		},
		logger,
	)

	// 5. Webhooks: public URL from config, else auto-detect ngrok
	publicURL := webhook.StaticURL(cfg.Webhook.PublicURL)
	if cfg.Webhook.PublicURL == "" && cfg.Webhook.NgrokAPI != "" {
		logger.Infof(ctx, "webhook.public_url not set, detecting through ngrok at %s", cfg.Webhook.NgrokAPI)
		publicURL = webhook.NgrokURL(cfg.Webhook.NgrokAPI, ngrokAttempts, ngrokInterval)
	}
	subs := webhook.NewSubscriptions(
		func(token string) webhook.SubscriptionClient { return newClient(token) },
		publicURL,
		cfg.Webhook.PathPrefix,
		logger,
	)

	// 6. Config entries
	registry := instance.NewRegistry()
	manager := instance.New(registry, poller, subs, func(ctx context.Context, token string) (string, error) {
		me, err := newClient(token).GetMe(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (@%s, user_id=%d)", me.Name, me.Username, me.UserID), nil
	}, cfg.Webhook.ReloadCooldown, logger)

	webhookHandler := webhook.NewHandler(registry, ingestUC, webhook.SecurityConfig{
		AllowedIPs:      cfg.Webhook.AllowedIPs,
		RateLimitPerMin: cfg.Webhook.RateLimitPerMin,
	}, logger)

	// 7. HTTP Server
	srvCfg := httpserver.Config{
		Logger:         logger,
		Port:           cfg.HTTPServer.Port,
		Mode:           cfg.HTTPServer.Mode,
		Environment:    cfg.Environment.Name,
		PathPrefix:     cfg.Webhook.PathPrefix,
		TrustedProxies: cfg.HTTPServer.TrustedProxies,
		WebhookHandler: webhookHandler,
		APIToken:       cfg.Events.APIToken,
	}
	sinks.attach(&srvCfg, cfg, logger)

	httpServer, err := httpserver.New(logger, srvCfg)
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Run(gctx)
	})

	// 8. Start receiving once the webhook route is being served
	logger.Infof(ctx, "Loading %d config entries", len(cfg.Instances))
	manager.Apply(ctx, cfg.Instances)

	if config.Watch(func(instances []model.Instance, err error) {
		if err != nil {
			logger.Warnf(ctx, "Ignoring invalid config change: %v", err)
			return
		}
		manager.Schedule(instances)
	}) {
		logger.Info(ctx, "Watching config file for instance changes")
	}

	// 9. Run until signalled
	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
	}

	// 10. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	manager.Shutdown(shutdownCtx)
	poller.StopAll(shutdownCtx)
	if err := ingestUC.Close(shutdownCtx); err != nil {
		logger.Warnf(shutdownCtx, "Ingest pipeline did not drain: %v", err)
	}

	logger.Info(shutdownCtx, "Server stopped gracefully")
}
