package mutation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/flowkit/internal/graphstore"
	"github.com/petrijr/flowkit/internal/persistence"
	"github.com/petrijr/flowkit/pkg/api"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newOps(t *testing.T, g api.Graph) (*Ops, *graphstore.Store, *api.BasicMetrics) {
	t.Helper()
	backing := persistence.NewInMemoryFlowStore()
	backing.Put(&api.Flow{ID: "f1", Name: "Test", Status: api.StatusDraft, Data: g})

	metrics := &api.BasicMetrics{}
	store := graphstore.New(backing, graphstore.Config{PersistDelay: time.Hour})
	t.Cleanup(store.Dispose)
	_, err := store.Load(context.Background(), "f1")
	require.NoError(t, err)

	ops := New(store, Options{Observer: metrics, Now: func() time.Time { return fixedNow }})
	return ops, store, metrics
}

func trigger(id string, tt api.TriggerType) api.Node {
	return api.Node{ID: id, Kind: api.KindTrigger, Data: api.NodeData{Label: "t", Config: api.TriggerConfig{TriggerType: tt}}}
}

func condition(id string) api.Node {
	return api.Node{ID: id, Kind: api.KindCondition, Data: api.NodeData{Label: "c", Config: api.ConditionConfig{Expression: "x > 1"}}}
}

func delay(id string) api.Node {
	return api.Node{ID: id, Kind: api.KindDelay, Data: api.NodeData{Label: "d", Config: api.DelayConfig{}}}
}

func TestCreateNode_Defaults(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{})

	id, err := ops.CreateNode(api.NodeSpec{Kind: api.KindDelay, ComponentID: "delay"})
	require.NoError(t, err)
	require.Equal(t, "delay-delay-1700000000000", id)

	n, ok := store.Current().Data.Node(id)
	require.True(t, ok)
	require.Equal(t, api.DefaultPosition, n.Position)
	require.Equal(t, "Atraso", n.Data.Label)
	require.Equal(t, api.DelayConfig{Seconds: 0}, n.Data.Config)
	require.True(t, store.Pending())
}

func TestCreateNode_IDsStayUnique(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{})

	first, err := ops.CreateNode(api.NodeSpec{Kind: api.KindWebhook, ComponentID: "webhook"})
	require.NoError(t, err)
	second, err := ops.CreateNode(api.NodeSpec{Kind: api.KindWebhook, ComponentID: "webhook"})
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, store.Nodes(), 2)
}

func TestCreateNode_Rejections(t *testing.T) {
	ops, store, metrics := newOps(t, api.Graph{})

	_, err := ops.CreateNode(api.NodeSpec{Kind: "bogus"})
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	_, err = ops.CreateNode(api.NodeSpec{Kind: api.KindCondition})
	require.ErrorIs(t, err, api.ErrInvalidMutation, "condition nodes need a config")

	_, err = ops.CreateNode(api.NodeSpec{Kind: api.KindAction, Subtype: "telegram", Config: api.ActionConfig{}})
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	require.Empty(t, store.Nodes())
	require.Equal(t, int64(3), metrics.Snapshot().RejectedMutations)
}

func TestCreateNode_LabelFromConfig(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{})

	id, err := ops.CreateNode(api.NodeSpec{
		Kind:        api.KindAction,
		ComponentID: "action",
		Subtype:     api.SubtypeWhatsApp,
		Config:      api.ActionConfig{Action: api.ActionSendMessage},
	})
	require.NoError(t, err)

	n, _ := store.Current().Data.Node(id)
	require.Equal(t, "Enviar Mensagem", n.Data.Label)
	require.Equal(t, api.SubtypeWhatsApp, n.Data.Subtype)
}

func TestDeleteNode_RemovesTouchingEdges(t *testing.T) {
	g := api.Graph{
		Nodes: []api.Node{trigger("a", api.TriggerInit), delay("b"), delay("c"), trigger("z", api.TriggerEnd)},
		Edges: []api.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
			{ID: "e3", Source: "c", Target: "z"},
		},
	}
	ops, store, _ := newOps(t, g)
	rev := store.Revision()

	require.NoError(t, ops.DeleteNode("b"))
	require.Equal(t, rev+1, store.Revision(), "cascade must be a single update")

	cur := store.Current().Data
	require.Len(t, cur.Nodes, 3)
	require.Len(t, cur.Edges, 1)
	require.Equal(t, "e3", cur.Edges[0].ID)
	for _, e := range cur.Edges {
		require.NotEqual(t, "b", e.Source)
		require.NotEqual(t, "b", e.Target)
	}
	require.NoError(t, api.ValidateGraph(cur))

	require.ErrorIs(t, ops.DeleteNode("b"), api.ErrNotFound)
}

func TestUpdateNode_MergesPatch(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{Nodes: []api.Node{condition("c")}})

	label := "Idade"
	require.NoError(t, ops.UpdateNode("c", NodePatch{
		Label:  &label,
		Config: api.ConditionConfig{Expression: "x > 1", FirstValue: "age", Operator: ">=", SecondValue: "18"},
	}))

	n, _ := store.Current().Data.Node("c")
	require.Equal(t, "Idade", n.Data.Label)
	require.Equal(t, ">=", n.Data.Config.(api.ConditionConfig).Operator)

	err := ops.UpdateNode("c", NodePatch{Config: api.DelayConfig{}})
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	err = ops.UpdateNode("c", NodePatch{Config: api.ConditionConfig{Operator: "~="}})
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	require.ErrorIs(t, ops.UpdateNode("missing", NodePatch{Label: &label}), api.ErrNotFound)
}

func TestUpdateNode_TriggerCannotFlipWhileConnected(t *testing.T) {
	g := api.Graph{
		Nodes: []api.Node{trigger("t", api.TriggerInit), delay("d")},
		Edges: []api.Edge{{ID: "e1", Source: "t", Target: "d"}},
	}
	ops, store, _ := newOps(t, g)

	err := ops.UpdateNode("t", NodePatch{Config: api.TriggerConfig{TriggerType: api.TriggerEnd}})
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	n, _ := store.Current().Data.Node("t")
	require.Equal(t, api.TriggerInit, n.Data.Config.(api.TriggerConfig).TriggerType)
}

func TestConnect_ConditionBranches(t *testing.T) {
	g := api.Graph{Nodes: []api.Node{condition("C"), delay("D"), delay("E")}}
	ops, store, _ := newOps(t, g)

	yes, err := ops.Connect("C", "D", "true")
	require.NoError(t, err)
	no, err := ops.Connect("C", "E", "false")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(yes, "edge-"))
	require.NotEqual(t, yes, no)

	edges := store.Edges()
	require.Len(t, edges, 2)
	require.Equal(t, "true", edges[0].Condition())
	require.Equal(t, "false", edges[1].Condition())

	_, err = ops.Connect("C", "D", "maybe")
	require.ErrorIs(t, err, api.ErrInvalidMutation)
	_, err = ops.Connect("C", "D", "")
	require.ErrorIs(t, err, api.ErrInvalidMutation)
	require.Len(t, store.Edges(), 2)
}

func TestConnect_TriggerHandles(t *testing.T) {
	g := api.Graph{Nodes: []api.Node{trigger("start", api.TriggerInit), delay("d"), trigger("end", api.TriggerEnd)}}
	ops, store, _ := newOps(t, g)

	_, err := ops.Connect("start", "d", "")
	require.NoError(t, err)
	_, err = ops.Connect("d", "end", "source")
	require.NoError(t, err)

	_, err = ops.Connect("d", "start", "")
	require.ErrorIs(t, err, api.ErrInvalidMutation, "init trigger has no incoming handle")
	_, err = ops.Connect("end", "d", "")
	require.ErrorIs(t, err, api.ErrInvalidMutation, "end trigger has no outgoing handle")

	require.Len(t, store.Edges(), 2)
}

func TestConnect_RefusesDuplicatesAndSelfLoops(t *testing.T) {
	ops, store, metrics := newOps(t, api.Graph{Nodes: []api.Node{delay("a"), delay("b")}})

	_, err := ops.Connect("a", "b", "")
	require.NoError(t, err)
	_, err = ops.Connect("a", "b", "source")
	require.ErrorIs(t, err, api.ErrInvalidMutation)
	_, err = ops.Connect("a", "a", "")
	require.ErrorIs(t, err, api.ErrInvalidMutation)
	_, err = ops.Connect("a", "ghost", "")
	require.ErrorIs(t, err, api.ErrInvalidMutation)

	require.Len(t, store.Edges(), 1)
	require.Equal(t, int64(3), metrics.Snapshot().RejectedMutations)
}

func TestDeleteEdgeAndMove(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{Nodes: []api.Node{delay("a"), delay("b")}})

	id, err := ops.Connect("a", "b", "")
	require.NoError(t, err)
	require.NoError(t, ops.DeleteEdge(id))
	require.Empty(t, store.Edges())
	require.ErrorIs(t, ops.DeleteEdge(id), api.ErrNotFound)

	require.NoError(t, ops.MoveNode("a", api.Position{X: 10, Y: 20}))
	n, _ := store.Current().Data.Node("a")
	require.Equal(t, api.Position{X: 10, Y: 20}, n.Position)
	require.ErrorIs(t, ops.MoveNode("ghost", api.Position{}), api.ErrNotFound)
}

func TestFindIncoming_ReturnsFirstSource(t *testing.T) {
	g := api.Graph{
		Nodes: []api.Node{delay("a"), delay("b"), delay("c")},
		Edges: []api.Edge{
			{ID: "e1", Source: "a", Target: "c"},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}
	ops, _, _ := newOps(t, g)

	n, ok := ops.FindIncoming("c")
	require.True(t, ok)
	require.Equal(t, "a", n.ID)

	_, ok = ops.FindIncoming("a")
	require.False(t, ok)
}

// A new flow gets a start trigger, a delay and an end trigger wired in
// sequence, and the resulting graph persists as a valid document.
func TestBuildFlowEndToEnd(t *testing.T) {
	ops, store, _ := newOps(t, api.Graph{})

	start, err := ops.CreateNode(api.NodeSpec{Kind: api.KindTrigger, ComponentID: "trigger", Config: api.TriggerConfig{TriggerType: api.TriggerInit}})
	require.NoError(t, err)
	wait, err := ops.CreateNode(api.NodeSpec{Kind: api.KindDelay, ComponentID: "delay"})
	require.NoError(t, err)
	end, err := ops.CreateNode(api.NodeSpec{Kind: api.KindTrigger, ComponentID: "trigger", Config: api.TriggerConfig{TriggerType: api.TriggerEnd}})
	require.NoError(t, err)

	_, err = ops.Connect(start, wait, "")
	require.NoError(t, err)
	_, err = ops.Connect(wait, end, "")
	require.NoError(t, err)

	require.NoError(t, store.Flush(context.Background()))
	require.False(t, store.Pending())

	g, err := store.Graph()
	require.NoError(t, err)
	require.NoError(t, api.ValidateGraph(g))

	startNode, _ := g.Node(start)
	require.Equal(t, "Início", startNode.Data.Label)
	endNode, _ := g.Node(end)
	require.Equal(t, "Fim", endNode.Data.Label)
}
