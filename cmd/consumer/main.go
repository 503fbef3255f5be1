package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"max-notify/config"
	"max-notify/internal/journal"
	"max-notify/internal/model"
	"max-notify/pkg/log"
)

// main is the entry point for the event consumer.
// It tails the events the bridge publishes on NATS, logs them and, when an
// event journal is configured, appends them to it. This lets a journal live
// next to the automation consumers instead of next to the bridge.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting event consumer...")

	if cfg.Events.NATS.URL == "" {
		logger.Error(ctx, "events.nats.url is required for the consumer")
		return
	}

	// Journal (optional)
	var sink *journal.Sink
	if cfg.Events.Journal.Driver != "" {
		repo, err := journal.Open(ctx, cfg.Events.Journal.Driver, cfg.Events.Journal.DSN, logger)
		if err != nil {
			logger.Error(ctx, "Failed to open event journal: ", err)
			return
		}
		defer repo.Close()
		sink = journal.NewSink(repo, logger)
	} else {
		logger.Warn(ctx, "Event journal not configured, events are only logged")
	}

	nc, err := nats.Connect(cfg.Events.NATS.URL, nats.Name("max-notify-consumer"), nats.MaxReconnects(-1))
	if err != nil {
		logger.Error(ctx, "Failed to connect to NATS: ", err)
		return
	}
	defer nc.Drain()

	prefix := strings.Trim(cfg.Events.NATS.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "max_notify"
	}

	sub, err := nc.Subscribe(prefix+".>", func(msg *nats.Msg) {
		handleMessage(ctx, logger, sink, prefix, msg.Subject, msg.Data)
	})
	if err != nil {
		logger.Error(ctx, "Failed to subscribe: ", err)
		return
	}
	defer sub.Unsubscribe()

	logger.Infof(ctx, "Consuming %s.>", prefix)
	<-ctx.Done()
	logger.Info(context.Background(), "Consumer stopped")
}

func handleMessage(ctx context.Context, l log.Logger, sink *journal.Sink, prefix, subject string, data []byte) {
	eventType, _ := splitSubject(prefix, subject)

	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		l.Warnf(ctx, "consumer: dropping undecodable event on %s: %v", subject, err)
		return
	}

	l.Infof(ctx, "consumer: %s entry_id=%s update_type=%s event_id=%s", eventType, ev.ConfigEntryID, ev.UpdateType, ev.EventID)
	if sink == nil {
		return
	}
	if err := sink.Fire(ctx, eventType, ev); err != nil {
		l.Warnf(ctx, "consumer: journal append failed: %v", err)
	}
}

// splitSubject returns the event type and entry id of prefix.<event type>.<entry id>.
func splitSubject(prefix, subject string) (string, string) {
	rest := strings.TrimPrefix(subject, prefix+".")
	eventType, entryID, _ := strings.Cut(rest, ".")
	return eventType, entryID
}
