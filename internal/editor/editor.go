// Package editor implements the node edit dialog. The dialog works on a
// scratch copy of the node's data; the graph only changes on Save.
package editor

import (
	"errors"
	"fmt"

	"github.com/petrijr/flowkit/internal/mutation"
	"github.com/petrijr/flowkit/pkg/api"
)

// ErrNotOpen is returned when the dialog has no node loaded.
var ErrNotOpen = errors.New("edit dialog is not open")

// GraphReader gives read access to the current graph.
type GraphReader interface {
	Graph() (api.Graph, error)
}

// NodeUpdater applies saved edits. *mutation.Ops satisfies it.
type NodeUpdater interface {
	UpdateNode(id string, patch mutation.NodePatch) error
	FindIncoming(id string) (api.Node, bool)
}

// Form is the dialog-local state of the node being edited.
type Form struct {
	NodeID  string
	Kind    api.NodeKind
	Label   string
	Subtype string
	Config  api.NodeConfig
}

// Controller opens one node at a time for editing.
type Controller struct {
	graph GraphReader
	ops   NodeUpdater

	form *Form
}

// New returns a closed controller.
func New(graph GraphReader, ops NodeUpdater) *Controller {
	return &Controller{graph: graph, ops: ops}
}

// Open loads node id into the dialog, discarding any unsaved form.
func (c *Controller) Open(id string) (Form, error) {
	g, err := c.graph.Graph()
	if err != nil {
		return Form{}, err
	}
	n, ok := g.Node(id)
	if !ok {
		return Form{}, fmt.Errorf("node %q: %w", id, api.ErrNotFound)
	}

	c.form = &Form{
		NodeID:  n.ID,
		Kind:    n.Kind,
		Label:   n.Data.Label,
		Subtype: n.Data.Subtype,
		Config:  api.CloneConfig(n.Data.Config),
	}
	return c.Form()
}

// IsOpen reports whether a node is loaded.
func (c *Controller) IsOpen() bool { return c.form != nil }

// Form returns a copy of the current form.
func (c *Controller) Form() (Form, error) {
	if c.form == nil {
		return Form{}, ErrNotOpen
	}
	f := *c.form
	f.Config = api.CloneConfig(f.Config)
	return f, nil
}

// SetLabel changes the staged label.
func (c *Controller) SetLabel(label string) error {
	return c.Edit(func(f *Form) { f.Label = label })
}

// SetConfig stages a new config. It must belong to the node's kind.
func (c *Controller) SetConfig(cfg api.NodeConfig) error {
	if c.form == nil {
		return ErrNotOpen
	}
	if cfg == nil || cfg.ConfigKind() != c.form.Kind {
		return api.MutationError(&api.InvalidNodeError{NodeID: c.form.NodeID, Reason: api.NodeConfigMismatch})
	}
	c.form.Config = api.CloneConfig(cfg)
	return nil
}

// Edit runs fn on the staged form. NodeID and Kind cannot be changed.
func (c *Controller) Edit(fn func(*Form)) error {
	if c.form == nil {
		return ErrNotOpen
	}
	id, kind := c.form.NodeID, c.form.Kind
	fn(c.form)
	c.form.NodeID, c.form.Kind = id, kind
	return nil
}

// Upstream returns the node feeding into the one being edited.
func (c *Controller) Upstream() (api.Node, bool) {
	if c.form == nil {
		return api.Node{}, false
	}
	return c.ops.FindIncoming(c.form.NodeID)
}

// Save writes the staged form to the graph and closes the dialog. On
// failure the dialog stays open with the form intact.
func (c *Controller) Save() error {
	if c.form == nil {
		return ErrNotOpen
	}
	f := c.form
	err := c.ops.UpdateNode(f.NodeID, mutation.NodePatch{
		Label:   &f.Label,
		Subtype: &f.Subtype,
		Config:  f.Config,
	})
	if err != nil {
		return err
	}
	c.form = nil
	return nil
}

// Cancel closes the dialog and drops the staged form.
func (c *Controller) Cancel() {
	c.form = nil
}
