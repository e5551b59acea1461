// Package publish hands decoded fixes to downstream systems.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nmea-ng/internal/nmea"
)

// Message is the envelope every sink receives.
type Message struct {
	Session     string            `json:"session"`
	Type        nmea.SentenceType `json:"type"`
	ReceivedUTC time.Time         `json:"received_utc"`
	Sentence    string            `json:"sentence,omitempty"`
	LatDeg      float64           `json:"lat_deg"`
	LonDeg      float64           `json:"lon_deg"`
	Fix         nmea.Fix          `json:"fix"`
}

// NewMessage builds a Message from the current fix.
func NewMessage(session string, typ nmea.SentenceType, sentence string, fix nmea.Fix, now time.Time) Message {
	return Message{
		Session:     session,
		Type:        typ,
		ReceivedUTC: now.UTC(),
		Sentence:    sentence,
		LatDeg:      fix.LatitudeDeg(),
		LonDeg:      fix.LongitudeDeg(),
		Fix:         fix,
	}
}

func (m Message) marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal fix message: %w", err)
	}
	return b, nil
}

type Sink interface {
	Name() string
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Multi fans a message out to every sink. A failing sink does not stop the others.
type Multi struct {
	sinks []Sink
	// Observe, when set, is called once per sink and publish.
	Observe func(sink string, err error)
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Add(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

func (m *Multi) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Publish(ctx context.Context, msg Message) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, s := range m.sinks {
		err := s.Publish(ctx, msg)
		if m.Observe != nil {
			m.Observe(s.Name(), err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
