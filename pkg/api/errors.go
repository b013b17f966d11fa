package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a flow, node, or edge does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned when a call to the flow storage backend failed.
	ErrNetwork = errors.New("network error")

	// ErrInvalidDocument is returned when a bulk commit fails validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidMutation is returned when a mutation would violate a graph invariant.
	ErrInvalidMutation = errors.New("invalid mutation")

	// ErrEmptyInput is returned when a required user input is blank
	// (flow name, condition expression).
	ErrEmptyInput = errors.New("empty input")

	// ErrNoFlow is returned by store operations while no flow is loaded.
	ErrNoFlow = fmt.Errorf("no flow loaded: %w", ErrNotFound)
)

// InvalidNodeReason describes why a node failed validation.
type InvalidNodeReason string

const (
	NodeMissingID        InvalidNodeReason = "missing id"
	NodeUnknownKind      InvalidNodeReason = "unknown kind"
	NodeMissingConfig    InvalidNodeReason = "missing config"
	NodeConfigMismatch   InvalidNodeReason = "config does not match node kind"
	NodeInvalidTrigger   InvalidNodeReason = "trigger must have exactly one handle (triggerType init or end)"
	NodeUnknownSubtype   InvalidNodeReason = "unknown action subtype"
	NodeInvalidOperator  InvalidNodeReason = "unknown condition operator"
	NodeNegativeDelay    InvalidNodeReason = "delay seconds must not be negative"
	NodeDuplicateID      InvalidNodeReason = "duplicate node id"
	NodeUnexpectedAction InvalidNodeReason = "action does not belong to subtype"
)

// InvalidNodeError reports a node that violates the model invariants.
type InvalidNodeError struct {
	NodeID string
	Reason InvalidNodeReason
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid node %q: %s", e.NodeID, e.Reason)
}

// InvalidEdgeReason describes why an edge failed validation.
type InvalidEdgeReason string

const (
	EdgeMissingID         InvalidEdgeReason = "missing id"
	EdgeUnknownSource     InvalidEdgeReason = "source node does not exist"
	EdgeUnknownTarget     InvalidEdgeReason = "target node does not exist"
	EdgeSelfLoop          InvalidEdgeReason = "source and target are the same node"
	EdgeNoSourceHandle    InvalidEdgeReason = "source node has no outgoing handle"
	EdgeNoTargetHandle    InvalidEdgeReason = "target node has no incoming handle"
	EdgeInvalidHandle     InvalidEdgeReason = "source handle does not exist on source node"
	EdgeMissingCondition  InvalidEdgeReason = "edge from a condition node must carry a condition tag"
	EdgeConditionMismatch InvalidEdgeReason = "condition tag does not match source handle"
	EdgeUnexpectedTag     InvalidEdgeReason = "condition tag on an edge whose source is not a condition node"
	EdgeDuplicate         InvalidEdgeReason = "an identical connection already exists"
	EdgeDuplicateID       InvalidEdgeReason = "duplicate edge id"
)

// InvalidEdgeError reports an edge that violates the model invariants.
type InvalidEdgeError struct {
	EdgeID string
	Reason InvalidEdgeReason
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge %q: %s", e.EdgeID, e.Reason)
}

// DocumentError is returned by ValidateGraph and CommitFlow. Element is
// "node" or "edge" and Index the position of the offending element.
type DocumentError struct {
	Element string
	Index   int
	Err     error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s %d: %v", ErrInvalidDocument, e.Element, e.Index, e.Err)
}

func (e *DocumentError) Unwrap() []error {
	return []error{ErrInvalidDocument, e.Err}
}

// MutationError wraps a validation failure refused by a mutation.
func MutationError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidMutation, err)
}
