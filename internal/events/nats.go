package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// StreamConfig describes the JetStream stream that captures change events.
// An empty Name publishes on core NATS without persistence.
type StreamConfig struct {
	Name     string
	Subjects []string
}

// NATSConfig configures a NATS publisher.
type NATSConfig struct {
	URL            string
	Name           string
	Stream         StreamConfig
	ConnectTimeout time.Duration
}

// NATSPublisher publishes events to NATS, through JetStream when a stream is
// configured.
type NATSPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATSPublisher connects to NATS and ensures the stream exists.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.Name), nats.Timeout(timeout), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	p := &NATSPublisher{conn: conn}
	if cfg.Stream.Name == "" {
		return p, nil
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	if _, err := js.StreamInfo(cfg.Stream.Name); errors.Is(err, nats.ErrStreamNotFound) {
		if _, err := js.AddStream(&nats.StreamConfig{Name: cfg.Stream.Name, Subjects: cfg.Stream.Subjects}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("creating stream %s: %w", cfg.Stream.Name, err)
		}
	} else if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading stream %s: %w", cfg.Stream.Name, err)
	}
	p.js = js
	return p, nil
}

// Publish writes event to subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if p.js != nil {
		if _, err := p.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(event.ID)); err != nil {
			return fmt.Errorf("publishing %s: %w", subject, err)
		}
		return nil
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
