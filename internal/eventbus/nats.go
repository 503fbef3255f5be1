package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

// NATSConfig configures the NATS sink.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type natsPublisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATS publishes every event as JSON to <prefix>.<event type>.<config entry id>.
type NATS struct {
	conn   natsPublisher
	prefix string
	l      pkgLog.Logger
}

// NewNATS connects to the server and returns the sink.
func NewNATS(cfg NATSConfig, l pkgLog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("max-notify"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warnf(context.Background(), "eventbus: nats disconnected: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect to %s: %w", cfg.URL, err)
	}

	return newNATS(nc, cfg, l), nil
}

func newNATS(conn natsPublisher, cfg NATSConfig, l pkgLog.Logger) *NATS {
	prefix := strings.Trim(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "max_notify"
	}
	return &NATS{conn: conn, prefix: prefix, l: l}
}

func (n *NATS) subject(eventType string, data model.Event) string {
	return n.prefix + "." + topicSafe(eventType, ".*>") + "." + topicSafe(data.ConfigEntryID, ".*>")
}

func (n *NATS) Fire(ctx context.Context, eventType string, data model.Event) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject(eventType, data), payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (n *NATS) Close() {
	if err := n.conn.Drain(); err != nil {
		n.l.Warnf(context.Background(), "eventbus: nats drain: %v", err)
	}
}
