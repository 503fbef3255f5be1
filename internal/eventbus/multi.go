package eventbus

import (
	"context"
	"errors"
	"fmt"

	"max-notify/internal/model"
)

// Multi fans one event out to every sink. A failing sink does not stop the others.
type Multi struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	bus  Bus
}

func NewMulti() *Multi {
	return &Multi{}
}

// Add appends a sink. Nil buses are ignored so optional sinks can be passed as-is.
func (m *Multi) Add(name string, bus Bus) *Multi {
	if bus == nil {
		return m
	}
	m.sinks = append(m.sinks, namedSink{name: name, bus: bus})
	return m
}

// Len returns the number of registered sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Fire(ctx context.Context, eventType string, data model.Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.bus.Fire(ctx, eventType, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
