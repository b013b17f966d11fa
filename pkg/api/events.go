package api

// ChangeType identifies what produced a graph snapshot.
type ChangeType string

const (
	ChangeLoaded    ChangeType = "flow.loaded"
	ChangeCleared   ChangeType = "flow.cleared"
	ChangeNodes     ChangeType = "graph.nodes"
	ChangeEdges     ChangeType = "graph.edges"
	ChangeGraph     ChangeType = "graph.replaced"
	ChangeCommitted ChangeType = "graph.committed"
	ChangeMeta      ChangeType = "flow.meta"
	ChangePersisted ChangeType = "flow.persisted"
	ChangeFailed    ChangeType = "flow.failed"
)

// Snapshot is published to store subscribers after every state change. The
// graph is a private copy; receivers may keep it.
type Snapshot struct {
	FlowID   string
	Revision uint64
	Change   ChangeType
	Graph    Graph

	// Err is the current storage error, if any (load or persist failure).
	Err error
}
