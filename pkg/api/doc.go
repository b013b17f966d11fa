// Package api contains the data model of the flowkit graph engine: flows,
// nodes, edges, the kind-specific node configurations, and the pure
// validators that keep a graph consistent.
//
// Most users interact with the higher-level flowkit package, which re-exports
// selected types and helpers from this package. The api package is intended
// for integrations that need the model without the store, such as a storage
// backend or a renderer.
//
// # Nodes
//
// A node has a kind (trigger, action, condition, delay, webhook), a canvas
// position and a data payload holding its label, an optional subtype and a
// config. The config is a sum type: each kind has exactly one NodeConfig
// implementation, and a node whose config belongs to another kind is
// rejected by ValidateNode.
//
// Handles are derived from the kind:
//
//   - trigger: "source" when triggerType is init, "target" when it is end
//   - condition: "target" plus the outgoing "true" and "false" handles
//   - action, delay, webhook: "target" and "source"
//
// # Edges
//
// Edges leaving a condition node carry data.condition equal to the handle
// they leave through; all other edges carry no tag. DeriveEdgeData is the
// only function that decides the tag and is used by every connect.
//
// # Validation
//
// ValidateNode, ValidateEdge and ValidateGraph never panic and never mutate
// their input. They return *InvalidNodeError, *InvalidEdgeError and
// *DocumentError values that match the package sentinels through errors.Is.
//
// # Observability
//
// The Observer interface receives store and persistence lifecycle events.
// LoggingObserver writes them with log/slog, BasicMetrics counts them, and
// NewCompositeObserver fans out to several observers.
package api
