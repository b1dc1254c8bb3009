// Package notify publishes appointment triggers for the reminder sender.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	TypeReminder = "appointment.reminder"
	TypeCreated  = "appointment.created"
)

// Message is the trigger contract consumed by the reminder sender.
type Message struct {
	Type           string    `json:"type"`
	AppointmentID  uuid.UUID `json:"appointment_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	StartTime      time.Time `json:"start_time"`
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(url, queue string) (io.Closer, channel, error)

// AMQPPublisher publishes to a durable queue. A channel closed by the broker
// is redialed on the next publish.
type AMQPPublisher struct {
	url   string
	queue string
	dial  dialFunc

	mu   sync.Mutex
	conn io.Closer
	ch   channel
}

// NewAMQPPublisher dials the broker and declares queue as durable.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue, dial: dialAMQP}
	if err := p.redial(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(url, queue string) (io.Closer, channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return conn, ch, nil
}

// redial replaces the connection and channel. Callers hold mu, except the
// constructor.
func (p *AMQPPublisher) redial() error {
	p.closeCurrent()

	conn, ch, err := p.dial(p.url, p.queue)
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) closeCurrent() error {
	var chErr, connErr error
	if p.ch != nil {
		chErr = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		connErr = p.conn.Close()
		p.conn = nil
	}
	if connErr != nil {
		return connErr
	}
	return chErr
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	pub, err := encode(msg)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if p.dial == nil {
			return fmt.Errorf("publish %s: %w", msg.Type, amqp.ErrClosed)
		}
		if err := p.redial(); err != nil {
			return fmt.Errorf("publish %s: %w", msg.Type, err)
		}
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCurrent()
}

func encode(msg Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         msg.Type,
		Body:         body,
	}, nil
}

// Noop logs messages instead of publishing them.
type Noop struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) *Noop {
	return &Noop{log: log}
}

func (n *Noop) Publish(_ context.Context, msg Message) error {
	n.log.Debug("trigger dropped, no broker configured",
		zap.String("type", msg.Type),
		zap.String("appointment_id", msg.AppointmentID.String()))
	return nil
}

func (n *Noop) Close() error { return nil }
