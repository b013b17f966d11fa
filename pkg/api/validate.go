package api

import "slices"

// ValidateNode checks the invariants of a single node: known kind, a config
// of the matching variant, and the handle cardinality of its kind.
func ValidateNode(n Node) error {
	fail := func(r InvalidNodeReason) error {
		return &InvalidNodeError{NodeID: n.ID, Reason: r}
	}

	if n.ID == "" {
		return fail(NodeMissingID)
	}
	if !n.Kind.Valid() {
		return fail(NodeUnknownKind)
	}
	if n.Data.Config == nil {
		return fail(NodeMissingConfig)
	}
	if n.Data.Config.ConfigKind() != n.Kind {
		return fail(NodeConfigMismatch)
	}

	switch cfg := n.Data.Config.(type) {
	case TriggerConfig:
		if len(Handles(n)) != 1 {
			return fail(NodeInvalidTrigger)
		}
	case ActionConfig:
		switch n.Data.Subtype {
		case SubtypeWhatsApp:
			if cfg.Action != "" && cfg.Action != ActionReceiveMessage && cfg.Action != ActionSendMessage {
				return fail(NodeUnexpectedAction)
			}
		case SubtypeOpenAI:
			if cfg.Action != "" && !slices.Contains(OpenAIActions, cfg.Action) {
				return fail(NodeUnexpectedAction)
			}
		default:
			return fail(NodeUnknownSubtype)
		}
	case ConditionConfig:
		if cfg.Operator != "" && !slices.Contains(ConditionOperators, cfg.Operator) {
			return fail(NodeInvalidOperator)
		}
	case DelayConfig:
		if cfg.Seconds < 0 {
			return fail(NodeNegativeDelay)
		}
	case WebhookConfig:
	default:
		return fail(NodeConfigMismatch)
	}
	return nil
}

// OpenAIActions lists the actions an openai action node may carry.
var OpenAIActions = []string{ActionResponseWithText, ActionResponseWithAudio, ActionResponseWithImage}

// ValidateEdge checks that e references existing nodes through handles they
// expose and that its condition tag is consistent with its source.
func ValidateEdge(e Edge, nodes []Node) error {
	fail := func(r InvalidEdgeReason) error {
		return &InvalidEdgeError{EdgeID: e.ID, Reason: r}
	}

	if e.ID == "" {
		return fail(EdgeMissingID)
	}
	source, ok := findNode(nodes, e.Source)
	if !ok {
		return fail(EdgeUnknownSource)
	}
	target, ok := findNode(nodes, e.Target)
	if !ok {
		return fail(EdgeUnknownTarget)
	}
	if e.Source == e.Target {
		return fail(EdgeSelfLoop)
	}

	out := OutgoingHandles(source)
	if len(out) == 0 {
		return fail(EdgeNoSourceHandle)
	}
	if !HasIncoming(target) {
		return fail(EdgeNoTargetHandle)
	}

	if source.Kind == KindCondition {
		if !slices.Contains(out, Handle(e.SourceHandle)) {
			return fail(EdgeInvalidHandle)
		}
		if e.Condition() == "" {
			return fail(EdgeMissingCondition)
		}
		if e.Condition() != e.SourceHandle {
			return fail(EdgeConditionMismatch)
		}
		return nil
	}

	if e.SourceHandle != "" && e.SourceHandle != string(HandleSource) {
		return fail(EdgeInvalidHandle)
	}
	if e.Data != nil && e.Data.Condition != "" {
		return fail(EdgeUnexpectedTag)
	}
	return nil
}

// ValidateGraph validates every node and edge of g, including id uniqueness
// and duplicate connections. The first failure is returned as a
// *DocumentError carrying the offending index.
func ValidateGraph(g Graph) error {
	nodeIDs := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if err := ValidateNode(n); err != nil {
			return &DocumentError{Element: "node", Index: i, Err: err}
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return &DocumentError{Element: "node", Index: i, Err: &InvalidNodeError{NodeID: n.ID, Reason: NodeDuplicateID}}
		}
		nodeIDs[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for i, e := range g.Edges {
		if err := ValidateEdge(e, g.Nodes); err != nil {
			return &DocumentError{Element: "edge", Index: i, Err: err}
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return &DocumentError{Element: "edge", Index: i, Err: &InvalidEdgeError{EdgeID: e.ID, Reason: EdgeDuplicateID}}
		}
		edgeIDs[e.ID] = struct{}{}
		if DuplicateConnection(g.Edges[:i], e) {
			return &DocumentError{Element: "edge", Index: i, Err: &InvalidEdgeError{EdgeID: e.ID, Reason: EdgeDuplicate}}
		}
	}
	return nil
}

// DuplicateConnection reports whether edges already holds a connection with
// the same source, source handle and target as e.
func DuplicateConnection(edges []Edge, e Edge) bool {
	for _, other := range edges {
		if other.Source == e.Source && other.Target == e.Target && normalizeHandle(other.SourceHandle) == normalizeHandle(e.SourceHandle) {
			return true
		}
	}
	return false
}

func normalizeHandle(h string) string {
	if h == string(HandleSource) {
		return ""
	}
	return h
}

func findNode(nodes []Node, id string) (Node, bool) {
	return Graph{Nodes: nodes}.Node(id)
}
