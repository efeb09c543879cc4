// Package nats republishes claim events to a NATS subject tree so other
// services can follow the approval chain.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/dispatcher"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/event"
	"go.uber.org/zap"
)

// Config holds NATS settings
type Config struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

// publisher is the part of *nats.Conn the bridge uses
type publisher interface {
	Publish(subject string, data []byte) error
}

// Bridge forwards dispatcher events to NATS
type Bridge struct {
	conn   *nats.Conn
	pub    publisher
	prefix string
	logger *zap.Logger
}

// Connect dials NATS with unlimited reconnects
func Connect(cfg Config, logger *zap.Logger) (*Bridge, error) {
	name := cfg.ClientName
	if name == "" {
		name = "qlkh-claims"
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	b := newBridge(conn, cfg.SubjectPrefix, logger)
	b.conn = conn
	logger.Info("NATS connection established", zap.String("url", conn.ConnectedUrl()))
	return b, nil
}

func newBridge(pub publisher, prefix string, logger *zap.Logger) *Bridge {
	if prefix == "" {
		prefix = "claims"
	}
	return &Bridge{pub: pub, prefix: prefix, logger: logger}
}

// Register subscribes the bridge to every claim event
func (b *Bridge) Register(d dispatcher.Dispatcher) {
	d.SubscribeAll("nats-bridge", b.Handle)
}

// Subject returns the subject an event type is published on
func (b *Bridge) Subject(t event.Type) string {
	return b.prefix + "." + string(t)
}

// Handle publishes one event as JSON
func (b *Bridge) Handle(_ context.Context, evt *event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := b.Subject(evt.Type)
	if err := b.pub.Publish(subject, data); err != nil {
		b.logger.Error("Failed to publish event",
			zap.String("subject", subject),
			zap.Int64("claim_id", evt.ClaimID),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the connection
func (b *Bridge) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
