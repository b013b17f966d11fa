package api

import (
	"reflect"
	"time"
)

// Status represents the lifecycle state of a flow document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Graph is the node/edge payload of a flow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of g. Nil slices become empty slices so that a
// cloned graph always serializes as {"nodes":[],"edges":[]}.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, e.Clone())
	}
	return out
}

// Equal reports whether g and other hold the same nodes and edges in the
// same order.
func (g Graph) Equal(other Graph) bool {
	if len(g.Nodes) != len(other.Nodes) || len(g.Edges) != len(other.Edges) {
		return false
	}
	for i := range g.Nodes {
		if !reflect.DeepEqual(g.Nodes[i], other.Nodes[i]) {
			return false
		}
	}
	for i := range g.Edges {
		if !reflect.DeepEqual(g.Edges[i], other.Edges[i]) {
			return false
		}
	}
	return true
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Flow is a persisted workflow document.
type Flow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      Graph     `json:"data"`
}

// Clone returns a deep copy of f.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Data = f.Data.Clone()
	return &cp
}

// Attributes returns the writable part of f as sent by a whole-document
// persist.
func (f *Flow) Attributes() FlowAttributes {
	return FlowAttributes{
		Name:      f.Name,
		Status:    f.Status,
		Published: f.Published,
		Data:      f.Data.Clone(),
	}
}

// FlowAttributes is the whole-attributes payload written to storage.
type FlowAttributes struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Published bool   `json:"published"`
	Data      Graph  `json:"data"`
}
