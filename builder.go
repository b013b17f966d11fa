package flowkit

import (
	"fmt"

	"github.com/petrijr/flowkit/pkg/api"
)

// GraphBuilder provides a fluent API for assembling a graph in code, for
// seeding flows, fixtures and imports:
//
//	g, err := flowkit.NewGraph().
//	    Start("start").
//	    WhatsApp("greet", flowkit.ActionConfig{Action: "send_message"}).
//	    Condition("adult", "idade >= 18").
//	    Delay("wait", 30).
//	    End("end").
//	    Connect("start", "greet").
//	    Connect("greet", "adult").
//	    Branch("adult", true, "wait").
//	    Branch("adult", false, "end").
//	    Connect("wait", "end").
//	    Build()
//
// Labels default to api.LabelFor and positions are laid out left to right.
// Build validates the result.
type GraphBuilder struct {
	g     api.Graph
	edges int
}

// NewGraph starts an empty graph.
func NewGraph() *GraphBuilder {
	return &GraphBuilder{g: api.Graph{Nodes: []api.Node{}, Edges: []api.Edge{}}}
}

// Node appends a node of any kind.
func (b *GraphBuilder) Node(id string, kind NodeKind, subtype string, cfg NodeConfig) *GraphBuilder {
	if id == "" {
		panic("flowkit: node id must not be empty")
	}
	if cfg == nil {
		panic(fmt.Sprintf("flowkit: node %q has nil config", id))
	}

	b.g.Nodes = append(b.g.Nodes, api.Node{
		ID:       id,
		Kind:     kind,
		Position: api.Position{X: api.DefaultPosition.X + float64(len(b.g.Nodes))*250, Y: api.DefaultPosition.Y},
		Data: api.NodeData{
			Label:   api.LabelFor(kind, subtype, cfg),
			Subtype: subtype,
			Config:  api.CloneConfig(cfg),
		},
	})
	return b
}

// Start appends an init trigger.
func (b *GraphBuilder) Start(id string) *GraphBuilder {
	return b.Node(id, api.KindTrigger, "", api.TriggerConfig{TriggerType: api.TriggerInit})
}

// End appends an end trigger.
func (b *GraphBuilder) End(id string) *GraphBuilder {
	return b.Node(id, api.KindTrigger, "", api.TriggerConfig{TriggerType: api.TriggerEnd})
}

// WhatsApp appends a whatsapp action.
func (b *GraphBuilder) WhatsApp(id string, cfg ActionConfig) *GraphBuilder {
	return b.Node(id, api.KindAction, api.SubtypeWhatsApp, cfg)
}

// OpenAI appends an openai action.
func (b *GraphBuilder) OpenAI(id string, cfg ActionConfig) *GraphBuilder {
	return b.Node(id, api.KindAction, api.SubtypeOpenAI, cfg)
}

// Condition appends a condition node.
func (b *GraphBuilder) Condition(id, expression string) *GraphBuilder {
	return b.Node(id, api.KindCondition, "", api.ConditionConfig{Expression: expression})
}

// Delay appends a delay node.
func (b *GraphBuilder) Delay(id string, seconds int) *GraphBuilder {
	return b.Node(id, api.KindDelay, "", api.DelayConfig{Seconds: seconds})
}

// Webhook appends a webhook node.
func (b *GraphBuilder) Webhook(id, method, url string) *GraphBuilder {
	return b.Node(id, api.KindWebhook, "", api.WebhookConfig{Method: method, URL: url})
}

// Label overrides the label of node id.
func (b *GraphBuilder) Label(id, label string) *GraphBuilder {
	for i := range b.g.Nodes {
		if b.g.Nodes[i].ID == id {
			b.g.Nodes[i].Data.Label = label
			return b
		}
	}
	panic(fmt.Sprintf("flowkit: label for unknown node %q", id))
}

// Connect links the default outgoing handle of source to target.
func (b *GraphBuilder) Connect(source, target string) *GraphBuilder {
	return b.edge(source, target, "")
}

// Branch links the true or false handle of condition node source to target.
func (b *GraphBuilder) Branch(source string, outcome bool, target string) *GraphBuilder {
	handle := api.HandleFalse
	if outcome {
		handle = api.HandleTrue
	}
	return b.edge(source, target, string(handle))
}

func (b *GraphBuilder) edge(source, target, handle string) *GraphBuilder {
	src, _ := b.g.Node(source)
	b.edges++
	b.g.Edges = append(b.g.Edges, api.Edge{
		ID:           fmt.Sprintf("e%d-%s-%s", b.edges, source, target),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
		Data:         api.DeriveEdgeData(src, handle),
	})
	return b
}

// Build validates and returns the graph.
func (b *GraphBuilder) Build() (Graph, error) {
	g := b.g.Clone()
	if err := api.ValidateGraph(g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// MustBuild is like Build but panics on error.
// Useful for fixtures and package-level seeds.
func (b *GraphBuilder) MustBuild() Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
