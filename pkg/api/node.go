package api

import (
	"bytes"

	"github.com/goccy/go-json"
)

// NodeKind determines handle cardinality and config shape of a node.
type NodeKind string

const (
	KindTrigger   NodeKind = "trigger"
	KindAction    NodeKind = "action"
	KindCondition NodeKind = "condition"
	KindDelay     NodeKind = "delay"
	KindWebhook   NodeKind = "webhook"
)

// Kinds lists every node kind in catalog order.
var Kinds = []NodeKind{KindTrigger, KindAction, KindCondition, KindDelay, KindWebhook}

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindTrigger, KindAction, KindCondition, KindDelay, KindWebhook:
		return true
	}
	return false
}

// Handle is a named connection point on a node.
type Handle string

const (
	HandleSource Handle = "source"
	HandleTarget Handle = "target"
	HandleTrue   Handle = "true"
	HandleFalse  Handle = "false"
)

// DefaultPosition is used for nodes created without an explicit position.
var DefaultPosition = Position{X: 100, Y: 100}

// Position is the canvas location of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the user-visible payload of a node.
type NodeData struct {
	Label   string     `json:"label"`
	Subtype string     `json:"type,omitempty"`
	Config  NodeConfig `json:"config"`
}

// Node is a vertex of the flow graph. The JSON shape follows the document
// format of the storage service: the kind is stored under "type".
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Data.Config = CloneConfig(n.Data.Config)
	return n
}

type nodeWire struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     struct {
		Label   string          `json:"label"`
		Subtype string          `json:"type,omitempty"`
		Config  json.RawMessage `json:"config"`
	} `json:"data"`
}

// UnmarshalJSON decodes the config variant selected by the node kind.
// Unknown kinds decode without a config and are rejected by ValidateNode.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*n = Node{
		ID:       w.ID,
		Kind:     w.Kind,
		Position: w.Position,
		Data: NodeData{
			Label:   w.Data.Label,
			Subtype: w.Data.Subtype,
		},
	}

	raw := bytes.TrimSpace(w.Data.Config)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	cfg := emptyConfig(w.Kind)
	if cfg == nil {
		return nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return err
	}
	n.Data.Config = derefConfig(cfg)
	return nil
}

// Handles returns the connection points of n. A trigger exposes exactly one
// handle chosen by its trigger type; a trigger with an unknown type exposes
// none and fails validation.
func Handles(n Node) []Handle {
	switch n.Kind {
	case KindTrigger:
		cfg, _ := n.Data.Config.(TriggerConfig)
		switch cfg.TriggerType {
		case TriggerInit:
			return []Handle{HandleSource}
		case TriggerEnd:
			return []Handle{HandleTarget}
		}
		return nil
	case KindCondition:
		return []Handle{HandleTarget, HandleTrue, HandleFalse}
	case KindAction, KindDelay, KindWebhook:
		return []Handle{HandleTarget, HandleSource}
	}
	return nil
}

// OutgoingHandles returns the handles edges may originate from.
func OutgoingHandles(n Node) []Handle {
	var out []Handle
	for _, h := range Handles(n) {
		if h != HandleTarget {
			out = append(out, h)
		}
	}
	return out
}

// HasIncoming reports whether n accepts incoming edges.
func HasIncoming(n Node) bool {
	for _, h := range Handles(n) {
		if h == HandleTarget {
			return true
		}
	}
	return false
}

// NodeSpec describes a node to create. Zero fields are filled in by the
// mutation layer: ID, Label (via LabelFor) and Position (DefaultPosition).
type NodeSpec struct {
	Kind        NodeKind
	ComponentID string
	Subtype     string
	Config      NodeConfig
	Label       string
	Position    *Position
}
