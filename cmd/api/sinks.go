package main

import (
	"context"
	"fmt"

	"max-notify/config"
	"max-notify/internal/eventbus"
	"max-notify/internal/httpserver"
	"max-notify/internal/journal"
	journalHTTP "max-notify/internal/journal/delivery/http"
	"max-notify/pkg/log"
)

// sinks owns every consumer of max_notify_received events.
type sinks struct {
	bus     *eventbus.Multi
	local   *eventbus.Local
	mqtt    *eventbus.MQTT
	nats    *eventbus.NATS
	journal journal.Repository
}

func newSinks(ctx context.Context, cfg *config.Config, l log.Logger) (*sinks, error) {
	s := &sinks{
		bus:   eventbus.NewMulti(),
		local: eventbus.NewLocal(l),
	}
	s.bus.Add("local", s.local)

	if cfg.Events.Journal.Driver != "" {
		repo, err := journal.Open(ctx, cfg.Events.Journal.Driver, cfg.Events.Journal.DSN, l)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		s.journal = repo
		s.bus.Add("journal", journal.NewSink(repo, l))
		l.Infof(ctx, "Event journal enabled (%s)", cfg.Events.Journal.Driver)
	}

	if cfg.Events.MQTT.Broker != "" {
		m, err := eventbus.NewMQTT(eventbus.MQTTConfig{
			Broker:      cfg.Events.MQTT.Broker,
			ClientID:    cfg.Events.MQTT.ClientID,
			Username:    cfg.Events.MQTT.Username,
			Password:    cfg.Events.MQTT.Password,
			TopicPrefix: cfg.Events.MQTT.TopicPrefix,
			QoS:         byte(cfg.Events.MQTT.QoS),
			Retain:      cfg.Events.MQTT.Retain,
		}, l)
		if err != nil {
			s.close(l)
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		s.mqtt = m
		s.bus.Add("mqtt", m)
		l.Infof(ctx, "MQTT publishing enabled (%s)", cfg.Events.MQTT.Broker)
	}

	if cfg.Events.NATS.URL != "" {
		n, err := eventbus.NewNATS(eventbus.NATSConfig{
			URL:           cfg.Events.NATS.URL,
			SubjectPrefix: cfg.Events.NATS.SubjectPrefix,
		}, l)
		if err != nil {
			s.close(l)
			return nil, fmt.Errorf("nats: %w", err)
		}
		s.nats = n
		s.bus.Add("nats", n)
		l.Infof(ctx, "NATS publishing enabled (%s)", cfg.Events.NATS.URL)
	}

	return s, nil
}

// attach exposes the journal and the live stream over HTTP.
func (s *sinks) attach(srvCfg *httpserver.Config, cfg *config.Config, l log.Logger) {
	if s.journal != nil {
		srvCfg.EventsHandler = journalHTTP.New(l, s.journal)
		srvCfg.Journal = s.journal
	}
	if cfg.Events.Stream.Enabled {
		srvCfg.StreamHandler = eventbus.NewStreamHandler(s.local, cfg.Events.Stream.Buffer, cfg.Events.Stream.OriginPatterns, l)
	}
}

func (s *sinks) close(l log.Logger) {
	ctx := context.Background()
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	if s.nats != nil {
		s.nats.Close()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			l.Warnf(ctx, "Failed to close event journal: %v", err)
		}
	}
}
