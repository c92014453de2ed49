// Package events publishes and consumes row-change notifications for the
// profiles and teams tables over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Tables that emit change events.
const (
	TableProfiles = "profiles"
	TableTeams    = "teams"
)

// Change types, named after the store's webhook payloads.
const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// SubjectPrefix prefixes every change subject: h4c.changes.<table>.
const SubjectPrefix = "h4c.changes"

// Change describes a mutation of one row.
type Change struct {
	Table    string `json:"table"`
	Type     string `json:"type"`
	RecordID string `json:"record_id"`
}

// Subject returns the NATS subject for changes to table.
func Subject(table string) string {
	return SubjectPrefix + "." + table
}

// Publisher emits change events.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// NopPublisher discards every event. Used when NATS_URL is unset.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Change) error { return nil }

// Connect dials NATS with reconnect handlers that log through slog.
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Error("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.Error("nats error", "error", err)
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return nc, nil
}

// NATSPublisher publishes change events as JSON on core NATS subjects.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher creates a publisher on an established connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Publish sends c on Subject(c.Table).
func (p *NATSPublisher) Publish(_ context.Context, c Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling change event: %w", err)
	}

	msg := &nats.Msg{
		Subject: Subject(c.Table),
		Data:    data,
		Header: nats.Header{
			"Change-Type": []string{c.Type},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing change event: %w", err)
	}

	slog.Debug("published change event", "subject", msg.Subject, "type", c.Type, "recordId", c.RecordID)
	return nil
}

// Handler processes one change event.
type Handler func(ctx context.Context, c Change) error

// Subscribe delivers every change under SubjectPrefix to h, within a queue
// group so that several workers share the load. Malformed messages and
// handler failures are logged and dropped.
func Subscribe(ctx context.Context, nc *nats.Conn, queue string, h Handler) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(SubjectPrefix+".>", queue, func(msg *nats.Msg) {
		var c Change
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			slog.Error("failed to decode change event", "subject", msg.Subject, "error", err)
			return
		}
		if err := h(ctx, c); err != nil {
			slog.Error("failed to handle change event",
				"table", c.Table, "type", c.Type, "recordId", c.RecordID, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to change events: %w", err)
	}
	return sub, nil
}

// PublishQuietly publishes c and logs, rather than returns, any failure.
// Mutations have already committed by the time events are emitted.
func PublishQuietly(ctx context.Context, p Publisher, c Change) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, c); err != nil {
		slog.Warn("failed to publish change event",
			"table", c.Table, "type", c.Type, "recordId", c.RecordID, "error", err)
	}
}
