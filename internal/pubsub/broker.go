// Package pubsub is an in-process topic broker used for realtime fan-out.
//
// Publishing never blocks: each subscriber owns a buffered channel, and a
// subscriber whose buffer is full is evicted (its channel is closed and
// Evicted reports true) rather than silently missing a message. Messages on a
// topic reach every remaining subscriber in publish order.
package pubsub

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("pubsub: broker closed")

const DefaultBuffer = 64

type Message[T any] struct {
	Topic string
	// Seq increases by one per publish on the broker.
	Seq     uint64
	Payload T
}

type Subscription[T any] struct {
	C <-chan Message[T]

	ch      chan Message[T]
	topic   string
	broker  *Broker[T]
	evicted bool
}

func (s *Subscription[T]) Topic() string { return s.topic }

// Evicted reports whether the broker dropped this subscription because it
// fell behind. Valid once C has been closed.
func (s *Subscription[T]) Evicted() bool {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return s.evicted
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.broker.remove(s, false)
}

type Broker[T any] struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription[T]]struct{}
	seq    uint64
	buffer int
	closed bool
}

// New returns a broker whose subscriptions buffer up to buffer messages.
func New[T any](buffer int) *Broker[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker[T]{
		topics: make(map[string]map[*Subscription[T]]struct{}),
		buffer: buffer,
	}
}

func (b *Broker[T]) Subscribe(topic string) (*Subscription[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan Message[T], b.buffer)
	sub := &Subscription[T]{C: ch, ch: ch, topic: topic, broker: b}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub, nil
}

// Publish delivers payload to the current subscribers of topic and returns
// how many received it.
func (b *Broker[T]) Publish(topic string, payload T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.seq++
	msg := Message[T]{Topic: topic, Seq: b.seq, Payload: payload}

	delivered := 0
	for sub := range b.topics[topic] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			b.removeLocked(sub, true)
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Broker[T]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close closes every subscription. Later Subscribe calls fail with ErrClosed.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
	}
	b.topics = nil
}

func (b *Broker[T]) remove(sub *Subscription[T], evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub, evicted)
}

func (b *Broker[T]) removeLocked(sub *Subscription[T], evicted bool) {
	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	sub.evicted = evicted
	close(sub.ch)
}
