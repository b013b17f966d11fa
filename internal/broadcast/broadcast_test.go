package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	s := New[int](4)
	ctx := t.Context()

	a, err := s.Subscribe(ctx)
	require.NoError(t, err)
	b, err := s.Subscribe(ctx)
	require.NoError(t, err)

	s.Publish(1)
	s.Publish(2)

	for _, ch := range []<-chan int{a, b} {
		require.Equal(t, 1, <-ch)
		require.Equal(t, 2, <-ch)
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	s := New[int](1)
	ch, err := s.Subscribe(t.Context())
	require.NoError(t, err)

	s.Publish(1)
	s.Publish(2) // dropped

	require.Equal(t, 1, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestCancelledSubscriberIsRemoved(t *testing.T) {
	s := New[string](0)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Subscribe(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after cancel")
	}
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	s.Publish("after") // must not panic on the closed channel
}

func TestShutdown(t *testing.T) {
	s := New[int](0)
	ch, err := s.Subscribe(t.Context())
	require.NoError(t, err)

	s.Shutdown()
	s.Shutdown()

	_, ok := <-ch
	require.False(t, ok)

	_, err = s.Subscribe(t.Context())
	require.True(t, errors.Is(err, ErrClosed))
	s.Publish(1)
}

func TestShutdownReleasesWatchers(t *testing.T) {
	s := New[int](0)
	for range 3 {
		_, err := s.Subscribe(context.Background())
		require.NoError(t, err)
	}

	s.Shutdown()

	released := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("subscriber watchers still running after Shutdown")
	}
}
