// Package mutation implements the graph edits a user can make: creating,
// updating, moving and deleting nodes, and connecting them. Every operation
// computes the next graph from the current one and installs it in a single
// store update.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/petrijr/flowkit/pkg/api"
)

// Store is the part of the graph store the operations need.
// *graphstore.Store satisfies it.
type Store interface {
	FlowID() string
	Graph() (api.Graph, error)
	Apply(fn func(api.Graph) (api.Graph, error)) error
}

// Options configures Ops.
type Options struct {
	// Observer is told about refused mutations. Defaults to api.NoopObserver.
	Observer api.Observer

	// Now is the clock used for node and edge ids. Defaults to time.Now.
	Now func() time.Time
}

// Ops applies user edits to a Store.
type Ops struct {
	store Store
	obs   api.Observer
	now   func() time.Time
}

// New returns Ops bound to store.
func New(store Store, opts Options) *Ops {
	if opts.Observer == nil {
		opts.Observer = api.NoopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ops{store: store, obs: opts.Observer, now: opts.Now}
}

// NodePatch is a partial update of a node's data. Nil fields are kept.
type NodePatch struct {
	Label   *string
	Subtype *string
	Config  api.NodeConfig
}

// CreateNode adds a node described by spec and returns its id. The id is
// kind-componentID-unixmillis, bumped until unique in the flow. Missing
// fields are filled in: position (100,100), label via api.LabelFor, and
// the default config for delay and webhook nodes.
func (o *Ops) CreateNode(spec api.NodeSpec) (string, error) {
	if !spec.Kind.Valid() {
		return "", o.reject(&api.InvalidNodeError{Reason: api.NodeUnknownKind})
	}

	cfg := spec.Config
	if cfg == nil {
		def, ok := api.DefaultConfig(spec.Kind)
		if !ok {
			return "", o.reject(&api.InvalidNodeError{Reason: api.NodeMissingConfig})
		}
		cfg = def
	}

	componentID := spec.ComponentID
	if componentID == "" {
		componentID = string(spec.Kind)
	}
	label := spec.Label
	if label == "" {
		label = api.LabelFor(spec.Kind, spec.Subtype, cfg)
	}
	pos := api.DefaultPosition
	if spec.Position != nil {
		pos = *spec.Position
	}

	node := api.Node{
		Kind:     spec.Kind,
		Position: pos,
		Data: api.NodeData{
			Label:   label,
			Subtype: spec.Subtype,
			Config:  api.CloneConfig(cfg),
		},
	}

	err := o.store.Apply(func(g api.Graph) (api.Graph, error) {
		node.ID = uniqueNodeID(g, spec.Kind, componentID, o.now().UnixMilli())
		if err := api.ValidateNode(node); err != nil {
			return g, api.MutationError(err)
		}
		g.Nodes = append(g.Nodes, node)
		return g, nil
	})
	if err != nil {
		return "", o.reported(err)
	}
	return node.ID, nil
}

func uniqueNodeID(g api.Graph, kind api.NodeKind, componentID string, millis int64) string {
	for {
		id := fmt.Sprintf("%s-%s-%d", kind, componentID, millis)
		if _, taken := g.Node(id); !taken {
			return id
		}
		millis++
	}
}

// DeleteNode removes a node together with every edge touching it, in one
// update.
func (o *Ops) DeleteNode(id string) error {
	return o.store.Apply(func(g api.Graph) (api.Graph, error) {
		if _, ok := g.Node(id); !ok {
			return g, fmt.Errorf("node %q: %w", id, api.ErrNotFound)
		}
		g.Nodes = slices.DeleteFunc(g.Nodes, func(n api.Node) bool { return n.ID == id })
		g.Edges = slices.DeleteFunc(g.Edges, func(e api.Edge) bool { return e.Source == id || e.Target == id })
		return g, nil
	})
}

// UpdateNode merges patch into the node's data. The config must belong to
// the node's kind, and the edges touching the node must stay valid (a
// trigger cannot switch direction while connected).
func (o *Ops) UpdateNode(id string, patch NodePatch) error {
	err := o.store.Apply(func(g api.Graph) (api.Graph, error) {
		i := slices.IndexFunc(g.Nodes, func(n api.Node) bool { return n.ID == id })
		if i < 0 {
			return g, fmt.Errorf("node %q: %w", id, api.ErrNotFound)
		}

		n := g.Nodes[i]
		if patch.Label != nil {
			n.Data.Label = *patch.Label
		}
		if patch.Subtype != nil {
			n.Data.Subtype = *patch.Subtype
		}
		if patch.Config != nil {
			n.Data.Config = api.CloneConfig(patch.Config)
		}
		if err := api.ValidateNode(n); err != nil {
			return g, api.MutationError(err)
		}
		g.Nodes[i] = n

		for _, e := range g.Edges {
			if e.Source != id && e.Target != id {
				continue
			}
			if err := api.ValidateEdge(e, g.Nodes); err != nil {
				return g, api.MutationError(err)
			}
		}
		return g, nil
	})
	return o.reported(err)
}

// MoveNode sets the canvas position of a node.
func (o *Ops) MoveNode(id string, pos api.Position) error {
	return o.store.Apply(func(g api.Graph) (api.Graph, error) {
		i := slices.IndexFunc(g.Nodes, func(n api.Node) bool { return n.ID == id })
		if i < 0 {
			return g, fmt.Errorf("node %q: %w", id, api.ErrNotFound)
		}
		g.Nodes[i].Position = pos
		return g, nil
	})
}

// Connect adds an edge from source to target leaving through handle and
// returns its id. The condition tag is derived from the source node. A
// connection that would be invalid, or that already exists, is refused
// with api.ErrInvalidMutation and nothing changes.
func (o *Ops) Connect(source, target, handle string) (string, error) {
	var edge api.Edge
	err := o.store.Apply(func(g api.Graph) (api.Graph, error) {
		src, _ := g.Node(source)
		edge = api.Edge{
			ID:           o.newEdgeID(),
			Source:       source,
			Target:       target,
			SourceHandle: handle,
			Data:         api.DeriveEdgeData(src, handle),
		}
		if err := api.ValidateEdge(edge, g.Nodes); err != nil {
			return g, api.MutationError(err)
		}
		if api.DuplicateConnection(g.Edges, edge) {
			return g, api.MutationError(&api.InvalidEdgeError{EdgeID: edge.ID, Reason: api.EdgeDuplicate})
		}
		g.Edges = append(g.Edges, edge)
		return g, nil
	})
	if err != nil {
		return "", o.reported(err)
	}
	return edge.ID, nil
}

func (o *Ops) newEdgeID() string {
	return "edge-" + ulid.MustNew(ulid.Timestamp(o.now()), ulid.DefaultEntropy()).String()
}

// DeleteEdge removes one edge.
func (o *Ops) DeleteEdge(id string) error {
	return o.store.Apply(func(g api.Graph) (api.Graph, error) {
		n := len(g.Edges)
		g.Edges = slices.DeleteFunc(g.Edges, func(e api.Edge) bool { return e.ID == id })
		if len(g.Edges) == n {
			return g, fmt.Errorf("edge %q: %w", id, api.ErrNotFound)
		}
		return g, nil
	})
}

// FindIncoming returns the node at the other end of the first edge whose
// target is id. Nodes with several incoming edges report only the first.
func (o *Ops) FindIncoming(id string) (api.Node, bool) {
	g, err := o.store.Graph()
	if err != nil {
		return api.Node{}, false
	}
	for _, e := range g.Edges {
		if e.Target == id {
			return g.Node(e.Source)
		}
	}
	return api.Node{}, false
}

func (o *Ops) reject(err error) error {
	return o.reported(api.MutationError(err))
}

// reported forwards validation refusals to the observer.
func (o *Ops) reported(err error) error {
	if err != nil && errors.Is(err, api.ErrInvalidMutation) {
		o.obs.OnMutationRejected(context.Background(), o.store.FlowID(), err)
	}
	return err
}
