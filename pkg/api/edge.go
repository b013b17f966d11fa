package api

// EdgeData carries the branch tag of edges leaving a condition node.
type EdgeData struct {
	Condition string `json:"condition,omitempty"`
}

// Edge connects two nodes of a flow.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
}

// Condition returns the branch tag of e, or "" when absent.
func (e Edge) Condition() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Condition
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	if e.Data != nil {
		d := *e.Data
		e.Data = &d
	}
	return e
}

// DeriveEdgeData computes the data of an edge leaving source through
// sourceHandle. It is the only place edge tags are decided: edges from a
// condition node are tagged with the handle, all others carry no tag.
func DeriveEdgeData(source Node, sourceHandle string) *EdgeData {
	if source.Kind != KindCondition {
		return nil
	}
	return &EdgeData{Condition: sourceHandle}
}
