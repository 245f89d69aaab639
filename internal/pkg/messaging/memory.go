package messaging

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	memoryBufferSize    = 64
	memoryMaxDeliveries = 3
)

// Memory is an in-process broker for tests and single-node setups. Each
// group on a topic gets a copy of every message and its consumers compete
// for it. Consumers without a group get a private group. Messages published
// before any consumer subscribes are dropped, and a nacked message is
// redelivered up to three times in total.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]*memoryGroup

	seq    atomic.Uint64
	closed atomic.Bool
	done   chan struct{}
}

type memoryGroup struct {
	ch   chan memoryDelivery
	done chan struct{}
	refs int
}

type memoryDelivery struct {
	id      string
	msg     OutgoingMessage
	attempt int
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		topics: map[string]map[string]*memoryGroup{},
		done:   make(chan struct{}),
	}
}

// Close stops every running Consume call.
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	close(m.done)
	return nil
}

// Publish hands msg to every group subscribed to destination. It blocks
// while a group buffer is full.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if m.closed.Load() {
		return PublishResult{}, ErrClosed
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	id := strconv.FormatUint(m.seq.Inc(), 10)

	m.mu.Lock()
	groups := make([]*memoryGroup, 0, len(m.topics[destination]))
	for _, g := range m.topics[destination] {
		groups = append(groups, g)
	}
	m.mu.Unlock()

	for _, g := range groups {
		select {
		case g.ch <- memoryDelivery{id: id, msg: msg, attempt: 1}:
		case <-g.done:
		case <-m.done:
			return PublishResult{}, ErrClosed
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: time.Now()}, nil
}

// Consume runs handler for messages on source until ctx is done or the
// broker is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if m.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = "anonymous-" + strconv.FormatUint(m.seq.Inc(), 10)
	}

	g := m.join(source, group)
	defer m.leave(source, group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case <-g.done:
					return
				case d := <-g.ch:
					//nolint:errcheck // memory ack and nack never fail
					_ = dispatch(ctx, "memory", &memoryMessage{group: g, delivery: d}, handler)
				}
			}
		})
	}
	wg.Wait()

	if m.closed.Load() && ctx.Err() == nil {
		return ErrClosed
	}
	return ctx.Err()
}

func (m *Memory) join(topic, group string) *memoryGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]*memoryGroup{}
		m.topics[topic] = groups
	}

	g, ok := groups[group]
	if !ok {
		g = &memoryGroup{
			ch:   make(chan memoryDelivery, memoryBufferSize),
			done: make(chan struct{}),
		}
		groups[group] = g
	}
	g.refs++
	return g
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.topics[topic][group]
	if g == nil {
		return
	}
	g.refs--
	if g.refs > 0 {
		return
	}

	close(g.done)
	delete(m.topics[topic], group)
	if len(m.topics[topic]) == 0 {
		delete(m.topics, topic)
	}
}

type memoryMessage struct {
	group    *memoryGroup
	delivery memoryDelivery
}

func (m *memoryMessage) Body() []byte      { return m.delivery.msg.Body }
func (m *memoryMessage) Key() []byte       { return m.delivery.msg.Key }
func (m *memoryMessage) Headers() []Header { return m.delivery.msg.Headers }
func (m *memoryMessage) ID() string        { return m.delivery.id }

func (m *memoryMessage) Ack(context.Context) error { return nil }

// Nack puts the message back on the group queue unless it has used up its
// deliveries.
func (m *memoryMessage) Nack(context.Context) error {
	if m.delivery.attempt >= memoryMaxDeliveries {
		return nil
	}

	next := m.delivery
	next.attempt++

	go func() {
		select {
		case m.group.ch <- next:
		case <-m.group.done:
		}
	}()
	return nil
}
