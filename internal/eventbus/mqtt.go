package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTT publishes every event as JSON to <prefix>/<event type>/<config entry id>.
type MQTT struct {
	client mqttPublisher
	prefix string
	qos    byte
	retain bool
	l      pkgLog.Logger
}

// NewMQTT connects to the broker and returns the sink.
func NewMQTT(cfg MQTTConfig, l pkgLog.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "max-notify"
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout).
		SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		l.Warnf(context.Background(), "eventbus: mqtt connection lost: %v", err)
	})

	client := paho.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return newMQTT(client, cfg, l), nil
}

func newMQTT(client mqttPublisher, cfg MQTTConfig, l pkgLog.Logger) *MQTT {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = "max_notify"
	}
	return &MQTT{client: client, prefix: prefix, qos: cfg.QoS, retain: cfg.Retain, l: l}
}

func (m *MQTT) topic(eventType string, data model.Event) string {
	return m.prefix + "/" + eventType + "/" + topicSafe(data.ConfigEntryID, "/+#")
}

func (m *MQTT) Fire(ctx context.Context, eventType string, data model.Event) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	tok := m.client.Publish(m.topic(eventType, data), m.qos, m.retain, payload)
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("mqtt publish: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish: %w", ctx.Err())
	}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

// topicSafe replaces characters with special meaning in topic or subject names.
func topicSafe(s, special string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(special, r) || r == ' ' {
			return '_'
		}
		return r
	}, s)
}
