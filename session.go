package flowkit

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/flowkit/internal/editor"
	"github.com/petrijr/flowkit/internal/graphstore"
	"github.com/petrijr/flowkit/internal/mutation"
	"github.com/petrijr/flowkit/internal/wizard"
	"github.com/petrijr/flowkit/pkg/api"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// PersistDelay is the debounce window between the last edit and the
	// write to the FlowStore. Defaults to 2s.
	PersistDelay time.Duration

	// Observer receives lifecycle, edit and persistence events.
	Observer Observer
}

// Session bundles the editing components around one FlowStore: the graph
// store holding the open flow, the mutation operations, and the edit
// dialog controller.
//
// Typical usage:
//
//	s := flowkit.NewSession(flowkit.NewInMemoryStore(), flowkit.SessionConfig{})
//	defer s.Close(ctx)
//
//	flow, _ := s.Create(ctx, "Onboarding")
//	w := s.NewWizard()
//	_, _ = w.Select(flowkit.KindTrigger)
//	_ = w.Choose("init")
//	id, _ := w.Submit()
type Session struct {
	// Flows is the storage service the session reads and writes.
	Flows FlowStore

	// Store holds the open flow.
	Store *graphstore.Store

	// Ops applies graph edits to Store.
	Ops *mutation.Ops

	// Editor is the node edit dialog.
	Editor *editor.Controller
}

// NewSession wires a Session around flows. No flow is open until Open or
// Create is called.
func NewSession(flows FlowStore, cfg SessionConfig) *Session {
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
	store := graphstore.New(flows, graphstore.Config{
		PersistDelay: cfg.PersistDelay,
		Observer:     cfg.Observer,
	})
	ops := mutation.New(store, mutation.Options{Observer: cfg.Observer})

	return &Session{
		Flows:  flows,
		Store:  store,
		Ops:    ops,
		Editor: editor.New(store, ops),
	}
}

// List returns every flow known to the storage service.
func (s *Session) List(ctx context.Context) ([]*Flow, error) {
	return s.Flows.ListFlows(ctx)
}

// Open loads flowID, dropping the previously open flow and any edit of it
// that was not yet written.
func (s *Session) Open(ctx context.Context, flowID string) (*Flow, error) {
	s.Editor.Cancel()
	return s.Store.Load(ctx, flowID)
}

// Create creates an empty draft flow and opens it.
func (s *Session) Create(ctx context.Context, name string) (*Flow, error) {
	f, err := s.Flows.CreateFlow(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, f.ID)
}

// Delete removes a flow from the storage service. Deleting the open flow
// closes it first so no pending write recreates it.
func (s *Session) Delete(ctx context.Context, flowID string) error {
	if s.Store.FlowID() == flowID {
		s.Editor.Cancel()
		s.Store.Unload()
	}
	return s.Flows.DeleteFlow(ctx, flowID)
}

// NewWizard starts a node configuration wizard that creates its node in
// the open flow.
func (s *Session) NewWizard() *Wizard {
	return wizard.New(s.Ops)
}

// Import replaces the open graph with a pasted JSON or YAML document.
func (s *Session) Import(data []byte) error {
	g, err := api.DecodeDocument(data)
	if err != nil {
		return err
	}
	return s.Store.CommitFlow(g)
}

// Subscribe streams snapshots of the open flow until ctx is done.
func (s *Session) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	return s.Store.Subscribe(ctx)
}

// Close writes any pending edit and releases the session.
func (s *Session) Close(ctx context.Context) error {
	err := s.Store.Flush(ctx)
	if errors.Is(err, api.ErrNoFlow) || errors.Is(err, graphstore.ErrDisposed) {
		err = nil
	}
	s.Store.Dispose()
	return err
}
