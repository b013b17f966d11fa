package flowkit_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/petrijr/flowkit"
)

// Example_wizard creates a flow and adds nodes through the configuration
// wizard, the way an editor sidebar does.
func Example_wizard() {
	ctx := context.Background()

	s := flowkit.NewSession(flowkit.NewInMemoryStore(), flowkit.SessionConfig{PersistDelay: 10 * time.Millisecond})
	defer s.Close(ctx)

	if _, err := s.Create(ctx, "Atendimento"); err != nil {
		log.Fatal(err)
	}

	w := s.NewWizard()
	if _, err := w.Select(flowkit.KindAction); err != nil {
		log.Fatal(err)
	}
	for _, choice := range []string{"openai", "gpt-4", "mysql", "text"} {
		p, _ := w.Prompt()
		fmt.Printf("step %d: %s -> %s\n", p.Step, p.Title, choice)
		if err := w.Choose(choice); err != nil {
			log.Fatal(err)
		}
	}
	id, err := w.Submit()
	if err != nil {
		log.Fatal(err)
	}

	n, _ := s.Store.Current().Data.Node(id)
	fmt.Println(n.Data.Label)

	// Output:
	// step 1: Tipo de Ação -> openai
	// step 2: Modelo -> gpt-4
	// step 3: Banco de Dados -> mysql
	// step 4: Tipo de Resposta -> text
	// Responder com Texto
}

// Example_graphBuilder seeds a flow from code and exports it as YAML.
func Example_graphBuilder() {
	g := flowkit.NewGraph().
		Start("start").
		Delay("wait", 30).
		End("end").
		Connect("start", "wait").
		Connect("wait", "end").
		MustBuild()

	doc, err := flowkit.EncodeYAML(g)
	if err != nil {
		log.Fatal(err)
	}
	back, err := flowkit.DecodeDocument(doc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(back.Nodes), len(back.Edges), back.Equal(g))

	// Output:
	// 3 2 true
}
