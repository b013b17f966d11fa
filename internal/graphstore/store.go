// Package graphstore owns the flow currently open for editing and keeps the
// remote copy in sync with debounced, local-first writes.
package graphstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petrijr/flowkit/internal/broadcast"
	"github.com/petrijr/flowkit/internal/debounce"
	"github.com/petrijr/flowkit/pkg/api"
)

// DefaultPersistDelay is the debounce window used when Config leaves it unset.
const DefaultPersistDelay = 2 * time.Second

// ErrDisposed is returned by operations on a disposed Store.
var ErrDisposed = errors.New("graph store disposed")

// Backend is the part of the flow storage service the store needs.
// persistence.FlowStore satisfies it.
type Backend interface {
	FetchFlow(ctx context.Context, id string) (*api.Flow, error)
	PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error)
}

// Config configures a Store.
type Config struct {
	// PersistDelay is the debounce window between the last mutation and the
	// write. Defaults to DefaultPersistDelay.
	PersistDelay time.Duration

	// Observer receives load, mutation and persistence events. Defaults to
	// api.NoopObserver.
	Observer api.Observer

	// SubscriberBuffer is the channel capacity of each Subscribe call.
	SubscriberBuffer int
}

// Store holds one flow at a time. All methods are safe for concurrent use;
// every mutation computes the next graph before installing it under a
// single lock, so readers never see a partial update.
type Store struct {
	backend Backend
	obs     api.Observer
	timer   *debounce.Timer
	stream  *broadcast.Streamer[api.Snapshot]

	mu sync.Mutex

	flow         *api.Flow
	rev          uint64
	persistedRev uint64
	err          error
	loading      bool
	disposed     bool

	// gen changes on every Load and on Dispose; write results carrying an
	// older generation are discarded.
	gen uint64

	inFlight    bool
	dirty       bool
	cancelWrite context.CancelFunc
	writeDone   chan struct{}
}

// New creates an empty Store writing through backend.
func New(backend Backend, cfg Config) *Store {
	if cfg.PersistDelay <= 0 {
		cfg.PersistDelay = DefaultPersistDelay
	}
	if cfg.Observer == nil {
		cfg.Observer = api.NoopObserver{}
	}
	s := &Store{
		backend: backend,
		obs:     cfg.Observer,
		stream:  broadcast.New[api.Snapshot](cfg.SubscriberBuffer),
	}
	s.timer = debounce.New(cfg.PersistDelay, s.persist)
	return s
}

// Load fetches flowID and makes it the current flow. Any pending write of
// the previous flow is dropped and an in-flight one is cancelled. On
// failure the store has no current flow and Err reports the cause.
func (s *Store) Load(ctx context.Context, flowID string) (*api.Flow, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	s.resetLocked()
	s.flow = nil
	s.err = nil
	s.loading = true
	gen := s.gen
	s.publishLocked(api.ChangeCleared)
	s.mu.Unlock()

	f, err := s.backend.FetchFlow(ctx, flowID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, fmt.Errorf("load flow %q: %w", flowID, context.Canceled)
	}
	s.loading = false
	if err == nil && f == nil {
		err = api.ErrNotFound
	}
	if err != nil {
		s.err = fmt.Errorf("load flow %q: %w", flowID, err)
		loadErr := s.err
		s.publishLocked(api.ChangeFailed)
		s.mu.Unlock()
		s.obs.OnLoadFailed(ctx, flowID, err)
		return nil, loadErr
	}
	s.flow = f.Clone()
	s.rev++
	s.persistedRev = s.rev
	out := s.flow.Clone()
	s.publishLocked(api.ChangeLoaded)
	s.mu.Unlock()

	s.obs.OnFlowLoaded(ctx, out)
	return out, nil
}

// Dispose cancels pending and in-flight writes and closes every subscriber
// channel. Unsaved changes are dropped; call Flush first to keep them.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.resetLocked()
	s.mu.Unlock()

	s.stream.Shutdown()
}

// Unload closes the current flow without writing pending changes. The
// store stays usable for the next Load.
func (s *Store) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || (s.flow == nil && !s.loading && s.err == nil) {
		return
	}
	s.resetLocked()
	s.flow = nil
	s.err = nil
	s.loading = false
	s.publishLocked(api.ChangeCleared)
}

// resetLocked forgets everything tied to the current generation.
func (s *Store) resetLocked() {
	s.gen++
	s.timer.Cancel()
	if s.cancelWrite != nil {
		s.cancelWrite()
	}
	s.cancelWrite = nil
	s.writeDone = nil
	s.inFlight = false
	s.dirty = false
}

// Current returns a copy of the current flow, or nil.
func (s *Store) Current() *api.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Clone()
}

// FlowID returns the id of the current flow, or "".
func (s *Store) FlowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return ""
	}
	return s.flow.ID
}

// Nodes returns a copy of the current nodes in insertion order.
func (s *Store) Nodes() []api.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return nil
	}
	return s.flow.Data.Clone().Nodes
}

// Edges returns a copy of the current edges in insertion order.
func (s *Store) Edges() []api.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return nil
	}
	return s.flow.Data.Clone().Edges
}

// Graph returns a copy of the current nodes and edges.
func (s *Store) Graph() (api.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return api.Graph{}, api.ErrNoFlow
	}
	return s.flow.Data.Clone(), nil
}

// Revision increases with every installed change.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Err returns the last load or persistence error. It is cleared by the next
// successful load or write.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether a Load is in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Pending reports whether local changes have not been written yet.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow != nil && (s.rev != s.persistedRev || s.inFlight)
}

// ReplaceNodes installs nodes as the full node list.
func (s *Store) ReplaceNodes(nodes []api.Node) error {
	return s.update(api.ChangeNodes, func(g api.Graph) (api.Graph, error) {
		g.Nodes = api.Graph{Nodes: nodes}.Clone().Nodes
		return g, nil
	})
}

// ReplaceEdges installs edges as the full edge list.
func (s *Store) ReplaceEdges(edges []api.Edge) error {
	return s.update(api.ChangeEdges, func(g api.Graph) (api.Graph, error) {
		g.Edges = api.Graph{Edges: edges}.Clone().Edges
		return g, nil
	})
}

// Replace installs nodes and edges together, so no reader observes one
// without the other.
func (s *Store) Replace(nodes []api.Node, edges []api.Edge) error {
	return s.update(api.ChangeGraph, func(api.Graph) (api.Graph, error) {
		return api.Graph{Nodes: nodes, Edges: edges}.Clone(), nil
	})
}

// Apply runs fn on a copy of the current graph and installs the result.
// fn runs under the store lock and must not call back into the Store. If fn
// returns an error nothing is installed.
func (s *Store) Apply(fn func(api.Graph) (api.Graph, error)) error {
	return s.update(api.ChangeGraph, fn)
}

// CommitFlow replaces the whole graph after validating every node and edge.
// On failure it returns an *api.DocumentError naming the offending element
// and leaves the store untouched. Committing the current graph is a no-op.
func (s *Store) CommitFlow(g api.Graph) error {
	if err := api.ValidateGraph(g); err != nil {
		return err
	}
	return s.update(api.ChangeCommitted, func(cur api.Graph) (api.Graph, error) {
		next := g.Clone()
		if next.Equal(cur) {
			return cur, errUnchanged
		}
		return next, nil
	})
}

// UpdateMeta changes the flow name, status and published flag. The change
// is persisted like any graph mutation.
func (s *Store) UpdateMeta(name string, status api.Status, published bool) error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if name == "" {
		name = s.flow.Name
	}
	if status == "" {
		status = s.flow.Status
	}
	s.flow.Name = name
	s.flow.Status = status
	s.flow.Published = published
	s.rev++
	id, rev := s.flow.ID, s.rev
	s.publishLocked(api.ChangeMeta)
	s.timer.Trigger()
	s.mu.Unlock()

	s.obs.OnGraphChanged(context.Background(), id, api.ChangeMeta, rev)
	return nil
}

// SchedulePersist arms the debounce timer. Every mutating method calls it;
// callers only need it to force a write of unchanged state.
func (s *Store) SchedulePersist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil || s.disposed {
		return
	}
	s.timer.Trigger()
}

func (s *Store) writableLocked() error {
	if s.disposed {
		return ErrDisposed
	}
	if s.flow == nil {
		return api.ErrNoFlow
	}
	return nil
}

// errUnchanged aborts an update that would install an identical graph.
var errUnchanged = errors.New("graph unchanged")

func (s *Store) update(change api.ChangeType, fn func(api.Graph) (api.Graph, error)) error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	next, err := fn(s.flow.Data.Clone())
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	s.flow.Data = next.Clone()
	s.rev++
	id, rev := s.flow.ID, s.rev
	s.publishLocked(change)
	s.timer.Trigger()
	s.mu.Unlock()

	s.obs.OnGraphChanged(context.Background(), id, change, rev)
	return nil
}

// Flush writes pending changes now instead of waiting for the debounce
// window, and waits for the write to finish. It returns the write error.
func (s *Store) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if err := s.writableLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
		if s.inFlight {
			done := s.writeDone
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		clean := s.rev == s.persistedRev && !s.timer.Pending()
		err := s.err
		s.mu.Unlock()

		if clean {
			return err
		}
		if !s.timer.Flush() {
			s.persist()
		}

		s.mu.Lock()
		if !s.inFlight && s.rev == s.persistedRev {
			err := s.err
			s.mu.Unlock()
			return err
		}
		if !s.inFlight && s.err != nil {
			err := s.err
			s.mu.Unlock()
			return err
		}
		s.mu.Unlock()
	}
}

// persist sends the latest full snapshot. It runs on the debounce timer
// goroutine or inside Flush. A call while a write is in flight only marks
// the store dirty; the write re-arms the timer when it settles.
func (s *Store) persist() {
	s.mu.Lock()
	if s.flow == nil || s.disposed {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.dirty = true
		s.mu.Unlock()
		return
	}

	id, rev, gen := s.flow.ID, s.rev, s.gen
	attrs := s.flow.Attributes()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.inFlight = true
	s.cancelWrite = cancel
	s.writeDone = done
	s.mu.Unlock()

	s.obs.OnPersistStart(ctx, id, rev)
	start := time.Now()
	stored, err := s.backend.PersistFlow(ctx, id, attrs)
	elapsed := time.Since(start)
	cancel()
	s.obs.OnPersistCompleted(context.Background(), id, rev, err, elapsed)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(done)

	if gen != s.gen {
		return
	}
	s.inFlight = false
	s.cancelWrite = nil
	s.writeDone = nil

	if err != nil {
		s.err = fmt.Errorf("persist flow %q: %w", id, err)
		s.publishLocked(api.ChangeFailed)
	} else {
		s.err = nil
		s.persistedRev = rev
		// Local-first: only server-owned metadata is taken from the response.
		if stored != nil {
			s.flow.UpdatedAt = stored.UpdatedAt
			if !stored.CreatedAt.IsZero() {
				s.flow.CreatedAt = stored.CreatedAt
			}
		}
		s.publishLocked(api.ChangePersisted)
	}

	if s.dirty {
		s.dirty = false
		if s.rev != s.persistedRev {
			s.timer.Trigger()
		}
	}
}

// Subscribe returns a channel receiving a Snapshot after every state
// change. The channel is closed when ctx is done or the store is disposed.
// Slow receivers miss snapshots rather than block the store.
func (s *Store) Subscribe(ctx context.Context) (<-chan api.Snapshot, error) {
	ch, err := s.stream.Subscribe(ctx)
	if errors.Is(err, broadcast.ErrClosed) {
		return nil, ErrDisposed
	}
	return ch, err
}

func (s *Store) publishLocked(change api.ChangeType) {
	snap := api.Snapshot{
		Revision: s.rev,
		Change:   change,
		Err:      s.err,
	}
	if s.flow != nil {
		snap.FlowID = s.flow.ID
		snap.Graph = s.flow.Data.Clone()
	}
	s.stream.Publish(snap)
}
