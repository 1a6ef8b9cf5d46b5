// Package realtime fans change events out to the in-process subscribers of a collection.
//
// Every change feed adapter terminates in a Hub: the memory feed dispatches directly,
// the Postgres and Redis feeds run one listener each and dispatch what they receive.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
)

// ErrClosed is returned when subscribing to a closed hub.
var ErrClosed = errors.New("change hub closed")

// Hub is a per-collection fan-out of change events.
// Subscriber channels hold one pending event: consumers re-fetch on wake-up, so a
// pending event already covers any that arrive before it is read.
type Hub struct {
	mu     sync.Mutex
	subs   map[domain.Collection]map[*subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[domain.Collection]map[*subscription]struct{})}
}

// Subscribe registers a subscriber on collection. The subscription is closed when
// ctx is done or Close is called, whichever happens first.
func (h *Hub) Subscribe(ctx context.Context, collection domain.Collection) (domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	s := &subscription{hub: h, collection: collection, ch: make(chan domain.ChangeEvent, 1)}
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*subscription]struct{})
	}
	h.subs[collection][s] = struct{}{}
	s.stop = context.AfterFunc(ctx, func() { _ = s.Close() })
	return s, nil
}

// Publish dispatches event and never fails. It satisfies domain.ChangePublisher.
func (h *Hub) Publish(_ context.Context, event domain.ChangeEvent) error {
	h.Dispatch(event)
	return nil
}

// Dispatch delivers event to every subscriber of its collection without blocking.
func (h *Hub) Dispatch(event domain.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[event.Collection] {
		select {
		case s.ch <- event:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions on collection.
func (h *Hub) Subscribers(collection domain.Collection) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

// Close closes every open subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for collection, subs := range h.subs {
		for s := range subs {
			s.stop()
			close(s.ch)
		}
		delete(h.subs, collection)
	}
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[s.collection]
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.ch)
}

type subscription struct {
	hub        *Hub
	collection domain.Collection
	ch         chan domain.ChangeEvent
	stop       func() bool
	once       sync.Once
}

func (s *subscription) Events() <-chan domain.ChangeEvent { return s.ch }

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.stop()
		s.hub.remove(s)
	})
	return nil
}
