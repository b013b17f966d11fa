package flowkit

import (
	"errors"
	"testing"

	"github.com/petrijr/flowkit/pkg/api"
)

func TestGraphBuilder_BuildsValidGraph(t *testing.T) {
	g, err := NewGraph().
		Start("start").
		WhatsApp("greet", ActionConfig{Action: api.ActionSendMessage, Response: "Olá"}).
		Condition("adult", "idade >= 18").
		OpenAI("answer", ActionConfig{Action: api.ActionResponseWithText, Model: "gpt-4", Database: "redis"}).
		End("end").
		Label("end", "Tchau").
		Connect("start", "greet").
		Connect("greet", "adult").
		Branch("adult", true, "answer").
		Branch("adult", false, "end").
		Connect("answer", "end").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(g.Nodes) != 5 || len(g.Edges) != 5 {
		t.Fatalf("got %d nodes / %d edges", len(g.Nodes), len(g.Edges))
	}
	greet, _ := g.Node("greet")
	if greet.Data.Label != "Enviar Mensagem" {
		t.Fatalf("greet label = %q", greet.Data.Label)
	}
	end, _ := g.Node("end")
	if end.Data.Label != "Tchau" {
		t.Fatalf("end label = %q", end.Data.Label)
	}
	if g.Nodes[1].Position.X <= g.Nodes[0].Position.X {
		t.Fatalf("nodes should be laid out left to right: %+v", g.Nodes)
	}

	for _, e := range g.Edges {
		switch e.Source {
		case "adult":
			if e.Condition() != e.SourceHandle {
				t.Fatalf("edge %s: condition %q, handle %q", e.ID, e.Condition(), e.SourceHandle)
			}
		default:
			if e.Data != nil {
				t.Fatalf("edge %s from %s should carry no data", e.ID, e.Source)
			}
		}
	}
}

func TestGraphBuilder_BuildReportsOffendingEdge(t *testing.T) {
	_, err := NewGraph().
		Start("start").
		End("end").
		Connect("start", "end").
		Connect("end", "start").
		Build()

	var docErr *api.DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("expected *api.DocumentError, got %v", err)
	}
	if docErr.Element != "edge" || docErr.Index != 1 {
		t.Fatalf("offending element = %s[%d]", docErr.Element, docErr.Index)
	}
}

func TestGraphBuilder_PanicsOnMisuse(t *testing.T) {
	cases := map[string]func(){
		"empty id":      func() { NewGraph().Delay("", 1) },
		"nil config":    func() { NewGraph().Node("x", KindDelay, "", nil) },
		"unknown label": func() { NewGraph().Label("ghost", "x") },
		"invalid graph": func() { NewGraph().Connect("a", "b").MustBuild() },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			fn()
		})
	}
}
