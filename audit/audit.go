package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	l "github.com/oexza/adminfront/logging"
)

const (
	ActionLogin                  = "login"
	ActionLogout                 = "logout"
	ActionPasswordResetRequested = "password.reset_requested"
	ActionPasswordReset          = "password.reset"
	ActionUserCreated            = "user.created"
	ActionUserUpdated            = "user.updated"
	ActionUserDeleted            = "user.deleted"
)

// Event records one successful admin action.
type Event struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NatsPublisher publishes every event on <subject>.<action>.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNatsPublisher(conn *nats.Conn, subject string) *NatsPublisher {
	return &NatsPublisher{conn: conn, subject: subject}
}

func (p *NatsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		event.ID = id.String()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject+"."+event.Action, data); err != nil {
		return fmt.Errorf("failed to publish audit event %s: %w", event.Action, err)
	}
	return nil
}

// Record publishes event and only logs a failure; audit never fails the action.
func Record(ctx context.Context, publisher Publisher, logger l.Logger, event Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warnf("audit event %s not published: %v", event.Action, err)
	}
}
