// Package rabbitmq checks a RabbitMQ broker by publishing a message to a test
// queue and reading it back.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plus-monitoring/general-healthcheck/pkg/probe"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// Queue is declared on the default exchange and shared by every exporter pod.
	Queue = "SRE_TEST_QUEUE"

	// Payload is the body of every test message.
	Payload = "SRE_TEST_PAYLOAD"

	// messageTTL keeps the queue from growing when no exporter consumes it.
	messageTTL = "60000"

	pollInterval = 50 * time.Millisecond
)

// ErrNoMessage is returned when the test message is not received before the
// check deadline.
var ErrNoMessage = errors.New("test message not received")

type connection interface {
	channel() (channel, error)
	IsClosed() bool
	Close() error
}

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Close() error
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) channel() (channel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

type dialFunc func(t probe.Target) (connection, error)

func dial(t probe.Target) (connection, error) {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     t.FQDN,
		Port:     t.Port,
		Username: t.Username,
		Password: t.Password,
		Vhost:    t.VHost,
	}
	conn, err := amqp.DialConfig(uri.String(), amqp.Config{
		Vhost: t.VHost,
		Dial:  amqp.DefaultDial(t.Timeout),
		Properties: amqp.Table{
			"connection_name": "general-healthcheck/" + t.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

// Probe keeps one AMQP connection per service and opens a fresh channel for
// every check.
type Probe struct {
	target probe.Target
	dial   dialFunc
	newID  func() string

	mu   sync.Mutex
	conn connection
}

// New creates a RabbitMQ probe. The connection is opened on the first check.
func New(t probe.Target) (probe.Probe, error) {
	if t.FQDN == "" {
		return nil, errors.New("fqdn is required")
	}
	return newProbe(t, dial), nil
}

func newProbe(t probe.Target, d dialFunc) *Probe {
	return &Probe{
		target: t,
		dial:   d,
		newID:  uuid.NewString,
	}
}

// Check declares the test queue, publishes a message and waits until a test
// message is read back. Every exporter pod publishes and consumes exactly one
// message per check, so a message published by another pod is accepted as
// proof that delivery works.
func (p *Probe) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := p.target.Name

	conn, err := p.connection()
	if err != nil {
		return probe.Fail(name, probe.StageConnect, err)
	}

	ch, err := conn.channel()
	if err != nil {
		p.reset()
		return probe.Fail(name, probe.StageChannel, err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(Queue, false, false, false, false, nil); err != nil {
		return probe.Fail(name, probe.StageDeclare, err)
	}

	id := p.newID()
	err = ch.PublishWithContext(ctx, "", Queue, false, false, amqp.Publishing{
		ContentType: "text/plain",
		MessageId:   id,
		Timestamp:   time.Now(),
		Expiration:  messageTTL,
		Body:        []byte(Payload),
	})
	if err != nil {
		return probe.Fail(name, probe.StagePublish, err)
	}
	slog.Debug("sent message", "service", name, "message_id", id)

	if err := p.receive(ctx, ch, id); err != nil {
		return probe.Fail(name, probe.StageConsume, err)
	}
	return nil
}

func (p *Probe) receive(ctx context.Context, ch channel, id string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		msg, ok, err := ch.Get(Queue, true)
		if err != nil {
			return err
		}
		if ok {
			if msg.MessageId == id || string(msg.Body) == Payload {
				slog.Debug("received message", "service", p.target.Name,
					"message_id", msg.MessageId, "own", msg.MessageId == id)
				return nil
			}
			// Foreign payloads are consumed and ignored.
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNoMessage, ctx.Err())
		case <-ticker.C:
		}
	}
}

// connection returns the open connection, dialing when there is none or the
// broker closed it.
func (p *Probe) connection() (connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	conn, err := p.dial(p.target)
	if err != nil {
		p.conn = nil
		return nil, err
	}
	p.conn = conn
	slog.Info("connected to rabbitmq", "service", p.target.Name, "address", p.target.Address())
	return conn, nil
}

func (p *Probe) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close closes the AMQP connection.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		p.conn = nil
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
