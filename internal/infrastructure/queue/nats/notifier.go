package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Notifier publishes analysis-completed announcements. Publish-only: the
// engine never consumes from the bus, downstream dashboards and alerting do.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

func New(url, subject string) (*Notifier, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Notifier, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("camsight-engine"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Notifier{conn: conn, subject: subject}, nil
}

type analysisCompletedEvent struct {
	SessionID   string    `json:"session_id"`
	JobID       string    `json:"job_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (n *Notifier) PublishAnalysisCompleted(ctx context.Context, sessionID, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(analysisCompletedEvent{
		SessionID:   sessionID,
		JobID:       jobID,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode analysis event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
