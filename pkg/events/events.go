package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("styletext"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopEventBus drops every event. Used when NATS_URL is empty.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, string, interface{}) error { return nil }
func (NoopEventBus) Subscribe(string, func(msg *Message)) error         { return nil }
func (NoopEventBus) Close() error                                       { return nil }

// Event subjects
const (
	TransformationCreated = "transformation.created"
	GuestCreated          = "guest.created"
	AccountRegistered     = "account.registered"
)

// Event payloads
type TransformationCreatedEvent struct {
	TransformationID int64     `json:"transformation_id"`
	AccountID        *int64    `json:"account_id,omitempty"`
	GuestID          *string   `json:"guest_id,omitempty"`
	FromStyle        string    `json:"from_style"`
	ToStyle          string    `json:"to_style"`
	Provider         string    `json:"provider"`
	CreatedAt        time.Time `json:"created_at"`
}

type GuestCreatedEvent struct {
	GuestID   string    `json:"guest_id"`
	MaxUsage  int       `json:"max_usage"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountRegisteredEvent struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
