package jetstream

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	js "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/messaging"
)

// fakeMessage records the terminal disposition of one delivery
type fakeMessage struct {
	mu     sync.Mutex
	data   []byte
	acked  bool
	naked  bool
	termed bool
}

func (m *fakeMessage) Data() []byte                       { return m.data }
func (m *fakeMessage) Metadata() (*js.MsgMetadata, error) { return nil, nil }

func (m *fakeMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *fakeMessage) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	return nil
}

func (m *fakeMessage) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termed = true
	return nil
}

func (m *fakeMessage) state() (acked, naked, termed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.naked, m.termed
}

// fakeSubscription stands in for a JetStream consume context. Messages in
// pending are flushed through the callback when Drain is called, the way the
// real client hands over buffered deliveries before closing.
type fakeSubscription struct {
	mu      sync.Mutex
	handler adapter.MessageHandler
	pending []adapter.Message
	closed  chan struct{}
}

func newFakeSubscription(pending ...adapter.Message) *fakeSubscription {
	return &fakeSubscription{pending: pending, closed: make(chan struct{})}
}

func (s *fakeSubscription) deliver(msg adapter.Message) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	handler(msg)
}

func (s *fakeSubscription) Stop() {}

func (s *fakeSubscription) Drain() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	handler := s.handler
	s.mu.Unlock()

	for _, msg := range pending {
		handler(msg)
	}
	close(s.closed)
}

func (s *fakeSubscription) Closed() <-chan struct{} { return s.closed }

type fakeJSConsumer struct {
	sub *fakeSubscription
}

func (c *fakeJSConsumer) Consume(handler adapter.MessageHandler, _ ...js.PullConsumeOpt) (adapter.ConsumeContext, error) {
	c.sub.mu.Lock()
	c.sub.handler = handler
	c.sub.mu.Unlock()
	return c.sub, nil
}

func (c *fakeJSConsumer) Info(context.Context) (*js.ConsumerInfo, error) {
	return &js.ConsumerInfo{Name: "view-writer"}, nil
}

type fakeJetStream struct {
	consumer *fakeJSConsumer
}

func (f *fakeJetStream) Publish(context.Context, string, []byte, ...js.PublishOpt) (*js.PubAck, error) {
	return &js.PubAck{}, nil
}

func (f *fakeJetStream) CreateOrUpdateStream(context.Context, js.StreamConfig) error { return nil }

func (f *fakeJetStream) CreateOrUpdateConsumer(context.Context, string, js.ConsumerConfig) (adapter.Consumer, error) {
	return f.consumer, nil
}

type fakeNats struct {
	js *fakeJetStream
}

func (f *fakeNats) Connect(string, ...nats.Option) (adapter.NatsConn, adapter.JetStream, error) {
	return &fakeNatsConn{}, f.js, nil
}

type fakeNatsConn struct{}

func (*fakeNatsConn) Close()               {}
func (*fakeNatsConn) Drain() error         { return nil }
func (*fakeNatsConn) LastError() error     { return nil }
func (*fakeNatsConn) ConnectedUrl() string { return "nats://localhost:4222" }

func newTestConsumer(t *testing.T, sub *fakeSubscription) messaging.Consumer {
	t.Helper()
	c, err := NewConsumer(ConsumerConfig{
		Config: Config{
			URL:        "nats://localhost:4222",
			StreamName: "TRANSACTION_EVENTS",
		},
		ConsumerName:   "view-writer",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}, &fakeNats{js: &fakeJetStream{consumer: &fakeJSConsumer{sub: sub}}}, adapter.NewJSON())
	require.NoError(t, err)
	return c
}

func waitForSubscription(t *testing.T, sub *fakeSubscription) {
	t.Helper()
	require.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return sub.handler != nil
	}, time.Second, 5*time.Millisecond)
}

func eventPayload(t *testing.T) []byte {
	t.Helper()
	data, err := adapter.NewJSON().Marshal(&domain.TransactionEvent{
		ID:            uuid.New(),
		UserID:        "User_1",
		Timestamp:     time.Now().UTC(),
		AmountCents:   497,
		Category:      "misc_net",
		Merchant:      "Kirlin and Sons",
		PaymentMethod: "debit_card",
	})
	require.NoError(t, err)
	return data
}

func TestConsumeAcksHandledEvent(t *testing.T) {
	sub := newFakeSubscription()
	c := newTestConsumer(t, sub)
	defer c.Close()

	var handled atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, *domain.TransactionEvent) error {
			handled.Add(1)
			return nil
		})
	}()
	waitForSubscription(t, sub)

	msg := &fakeMessage{data: eventPayload(t)}
	sub.deliver(msg)

	require.Eventually(t, func() bool {
		acked, _, _ := msg.state()
		return acked
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, handled.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumeNaksOnHandlerError(t *testing.T) {
	sub := newFakeSubscription()
	c := newTestConsumer(t, sub)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, *domain.TransactionEvent) error {
			return assert.AnError
		})
	}()
	waitForSubscription(t, sub)

	msg := &fakeMessage{data: eventPayload(t)}
	sub.deliver(msg)

	require.Eventually(t, func() bool {
		_, naked, _ := msg.state()
		return naked
	}, time.Second, 5*time.Millisecond)
	acked, _, termed := msg.state()
	assert.False(t, acked)
	assert.False(t, termed)

	cancel()
	<-done
}

func TestConsumeTermsUndecodablePayload(t *testing.T) {
	sub := newFakeSubscription()
	c := newTestConsumer(t, sub)
	defer c.Close()

	var handled atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, *domain.TransactionEvent) error {
			handled.Add(1)
			return nil
		})
	}()
	waitForSubscription(t, sub)

	msg := &fakeMessage{data: []byte("not an event")}
	sub.deliver(msg)

	// Redelivery cannot fix an unparseable payload
	require.Eventually(t, func() bool {
		_, _, termed := msg.state()
		return termed
	}, time.Second, 5*time.Millisecond)
	acked, naked, _ := msg.state()
	assert.False(t, acked)
	assert.False(t, naked)
	assert.Zero(t, handled.Load())

	cancel()
	<-done
}

func TestConsumeNaksPendingDeliveriesOnShutdown(t *testing.T) {
	late1 := &fakeMessage{data: eventPayload(t)}
	late2 := &fakeMessage{data: eventPayload(t)}
	sub := newFakeSubscription(late1, late2)
	c := newTestConsumer(t, sub)
	defer c.Close()

	var handled atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, *domain.TransactionEvent) error {
			handled.Add(1)
			return nil
		})
	}()
	waitForSubscription(t, sub)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	// Deliveries flushed by the draining subscription go back for redelivery
	// instead of stranding the callback; none reach the handler
	for _, msg := range []*fakeMessage{late1, late2} {
		acked, naked, termed := msg.state()
		assert.True(t, naked)
		assert.False(t, acked)
		assert.False(t, termed)
	}
	assert.Zero(t, handled.Load())
}
