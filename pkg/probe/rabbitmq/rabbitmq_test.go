package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"plus-monitoring/general-healthcheck/pkg/probe"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeBroker is an in-memory queue shared by fake connections.
type fakeBroker struct {
	mu         sync.Mutex
	queue      []amqp.Delivery
	declared   []string
	publishErr error
	dropAll    bool
}

type fakeConn struct {
	broker     *fakeBroker
	closed     bool
	channelErr error
}

func (c *fakeConn) channel() (channel, error) {
	if c.channelErr != nil {
		return nil, c.channelErr
	}
	return &fakeChannel{broker: c.broker}, nil
}
func (c *fakeConn) IsClosed() bool { return c.closed }
func (c *fakeConn) Close() error   { c.closed = true; return nil }

type fakeChannel struct {
	broker *fakeBroker
	closed bool
}

func (ch *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	ch.broker.declared = append(ch.broker.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (ch *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	if ch.broker.publishErr != nil {
		return ch.broker.publishErr
	}
	if !ch.broker.dropAll {
		ch.broker.queue = append(ch.broker.queue, amqp.Delivery{RoutingKey: key, MessageId: msg.MessageId, Body: msg.Body})
	}
	return nil
}

func (ch *fakeChannel) Get(string, bool) (amqp.Delivery, bool, error) {
	ch.broker.mu.Lock()
	defer ch.broker.mu.Unlock()
	if len(ch.broker.queue) == 0 {
		return amqp.Delivery{}, false, nil
	}
	msg := ch.broker.queue[0]
	ch.broker.queue = ch.broker.queue[1:]
	return msg, true, nil
}

func (ch *fakeChannel) Close() error { ch.closed = true; return nil }

func testTarget() probe.Target {
	return probe.Target{Name: "rabbit", Type: "rabbitmq", FQDN: "rabbitmq.svc", Port: 5672, Timeout: time.Second}
}

func TestProbe_Check(t *testing.T) {
	tests := []struct {
		name      string
		broker    *fakeBroker
		dialErr   error
		chanErr   error
		wantStage string
	}{
		{name: "round trip", broker: &fakeBroker{}},
		{name: "dial fails", broker: &fakeBroker{}, dialErr: errors.New("connection refused"), wantStage: probe.StageConnect},
		{name: "channel fails", broker: &fakeBroker{}, chanErr: errors.New("channel limit"), wantStage: probe.StageChannel},
		{name: "publish fails", broker: &fakeBroker{publishErr: errors.New("blocked")}, wantStage: probe.StagePublish},
		{name: "message lost", broker: &fakeBroker{dropAll: true}, wantStage: probe.StageConsume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProbe(testTarget(), func(probe.Target) (connection, error) {
				if tt.dialErr != nil {
					return nil, tt.dialErr
				}
				return &fakeConn{broker: tt.broker, channelErr: tt.chanErr}, nil
			})

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()

			err := p.Check(ctx)
			if got := probe.StageOf(err); got != tt.wantStage {
				t.Fatalf("Check() error = %v, stage %q, want stage %q", err, got, tt.wantStage)
			}
			if tt.wantStage == "" && len(tt.broker.declared) != 1 {
				t.Errorf("declared = %v, want [%s]", tt.broker.declared, Queue)
			}
			if tt.wantStage == probe.StageConsume && !errors.Is(err, ErrNoMessage) {
				t.Errorf("expected ErrNoMessage, got %v", err)
			}
		})
	}
}

func TestProbe_AcceptsForeignTestMessage(t *testing.T) {
	broker := &fakeBroker{queue: []amqp.Delivery{
		{MessageId: "other", Body: []byte("unrelated")},
		{MessageId: "other-pod", Body: []byte(Payload)},
	}}
	p := newProbe(testTarget(), func(probe.Target) (connection, error) {
		return &fakeConn{broker: broker}, nil
	})
	p.newID = func() string { return "mine" }

	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(broker.queue) != 1 || broker.queue[0].MessageId != "mine" {
		t.Errorf("queue after check = %+v, want only own message", broker.queue)
	}
}

func TestProbe_ReconnectsWhenClosed(t *testing.T) {
	broker := &fakeBroker{}
	var dials int
	var last *fakeConn
	p := newProbe(testTarget(), func(probe.Target) (connection, error) {
		dials++
		last = &fakeConn{broker: broker}
		return last, nil
	})

	ctx := context.Background()
	if err := p.Check(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Check(ctx); err != nil {
		t.Fatal(err)
	}
	if dials != 1 {
		t.Errorf("dials = %d, want 1 while connection is open", dials)
	}

	last.closed = true
	if err := p.Check(ctx); err != nil {
		t.Fatal(err)
	}
	if dials != 2 {
		t.Errorf("dials = %d, want 2 after broker closed the connection", dials)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !last.closed {
		t.Error("Close() did not close the connection")
	}
}

func TestNew_RequiresFQDN(t *testing.T) {
	if _, err := New(probe.Target{Name: "rabbit"}); err == nil {
		t.Error("New() without fqdn should fail")
	}
	p, err := New(testTarget())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() before first check = %v", err)
	}
}
