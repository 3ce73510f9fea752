// Package bus adapts the NATS client into the publish/subscribe/request
// surface the rest of this system depends on.
package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config controls connection and reconnect behavior.
type Config struct {
	Servers       string // comma-separated NATS server URLs
	Name          string // client name, shown in NATS monitoring
	ReconnectWait time.Duration
	MaxReconnects int // -1 means reconnect forever
	RequestTimeout time.Duration
}

// DefaultConfig returns sane defaults: unbounded reconnect with a fixed
// backoff, matching the coordinator's "never give up on the bus" posture.
func DefaultConfig(servers, name string) Config {
	return Config{
		Servers:        servers,
		Name:           name,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		RequestTimeout: 5 * time.Second,
	}
}

// Bus wraps a *nats.Conn with the operations this system needs: fire and
// forget publish, optionally-queue-grouped subscribe, and request/reply.
type Bus struct {
	conn   *nats.Conn
	log    *zap.Logger
	cfg    Config
}

// Connect dials the configured NATS servers and returns a ready Bus.
func Connect(cfg Config, log *zap.Logger) (*Bus, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("bus disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("bus reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Warn("bus connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.Servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect %q: %w", cfg.Servers, err)
	}

	return &Bus{conn: conn, log: log, cfg: cfg}, nil
}

// Publish fires payload at subject without waiting for acknowledgment.
func (b *Bus) Publish(subject string, payload []byte) error {
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("bus: publish %q: %w", subject, err)
	}
	return nil
}

// Handler processes one message delivered on a subscription.
type Handler func(subject string, payload []byte)

// Subscribe registers handler on subject with no queue group: every
// matching subscriber on the connection receives every message.
func (b *Bus) Subscribe(subject string, handler Handler) (*nats.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("bus: subscribe %q: %w", subject, err)
	}
	return sub, nil
}

// QueueSubscribe registers handler on subject within queue group queue, so
// only one member of the group receives each matching message.
func (b *Bus) QueueSubscribe(subject, queue string, handler Handler) (*nats.Subscription, error) {
	sub, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("bus: queue subscribe %q/%q: %w", subject, queue, err)
	}
	return sub, nil
}

// Request sends payload to subject and blocks for a single reply, bounded
// by the configured RequestTimeout.
func (b *Bus) Request(subject string, payload []byte) ([]byte, error) {
	msg, err := b.conn.Request(subject, payload, b.cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("bus: request %q: %w", subject, err)
	}
	return msg.Data, nil
}

// Close drains in-flight messages best-effort, then closes the connection.
func (b *Bus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.log.Warn("bus drain failed", zap.Error(err))
	}
	b.conn.Close()
}
