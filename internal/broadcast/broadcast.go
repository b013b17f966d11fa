// Package broadcast fans values out to any number of subscriber channels.
package broadcast

import (
	"context"
	"errors"
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("broadcast: streamer closed")

type subscriber[T any] struct {
	ctx context.Context
	ch  chan T
}

// Streamer delivers every published value to all live subscribers. Publish
// never blocks: a subscriber whose buffer is full misses the value.
type Streamer[T any] struct {
	mu     sync.RWMutex
	subs   map[*subscriber[T]]struct{}
	buffer int
	closed bool
	done   chan struct{}

	watchers sync.WaitGroup
}

// New creates a Streamer with the given subscriber buffer size. Non-positive
// values select DefaultBuffer.
func New[T any](buffer int) *Streamer[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Streamer[T]{
		subs:   make(map[*subscriber[T]]struct{}),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is done or the streamer shuts down.
func (s *Streamer[T]) Subscribe(ctx context.Context) (<-chan T, error) {
	sub := &subscriber[T]{ctx: ctx, ch: make(chan T, s.buffer)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.subs[sub] = struct{}{}
	s.watchers.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.watchers.Done()
		select {
		case <-ctx.Done():
			s.remove(sub)
		case <-s.done:
		}
	}()
	return sub.ch, nil
}

// Publish sends v to every subscriber without blocking.
func (s *Streamer[T]) Publish(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for sub := range s.subs {
		select {
		case sub.ch <- v:
		default:
		}
	}
}

// Len returns the number of live subscribers.
func (s *Streamer[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Shutdown closes every subscriber channel. Further publishes are dropped.
func (s *Streamer[T]) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
}

func (s *Streamer[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}
