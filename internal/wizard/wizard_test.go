package wizard

import (
	"errors"
	"reflect"
	"testing"

	"github.com/petrijr/flowkit/pkg/api"
)

type recordingCreator struct {
	specs []api.NodeSpec
	err   error
}

func (c *recordingCreator) CreateNode(spec api.NodeSpec) (string, error) {
	c.specs = append(c.specs, spec)
	if c.err != nil {
		return "", c.err
	}
	return "node-1", nil
}

func mustChoose(t *testing.T, w *Wizard, values ...string) {
	t.Helper()
	for _, v := range values {
		if err := w.Choose(v); err != nil {
			t.Fatalf("Choose(%q) at step %d: %v", v, w.Step(), err)
		}
	}
}

func TestOpenAIActionWalksFourSteps(t *testing.T) {
	c := &recordingCreator{}
	w := New(c)

	if _, err := w.Select(api.KindAction); err != nil {
		t.Fatalf("Select: %v", err)
	}
	wantTitles := []string{"Tipo de Ação", "Modelo", "Banco de Dados", "Tipo de Resposta"}
	for i, v := range []string{"openai", "gpt-4", "mysql", "text"} {
		p, ok := w.Prompt()
		if !ok {
			t.Fatalf("no prompt at step %d", i+1)
		}
		if p.Step != i+1 || p.Title != wantTitles[i] {
			t.Fatalf("step %d prompt = %+v", i+1, p)
		}
		mustChoose(t, w, v)
	}
	if w.State() != StateReady {
		t.Fatalf("state = %v, want ready", w.State())
	}

	id, err := w.Submit()
	if err != nil || id != "node-1" {
		t.Fatalf("Submit = %q, %v", id, err)
	}
	if len(c.specs) != 1 {
		t.Fatalf("creator called %d times", len(c.specs))
	}
	got := c.specs[0]
	if got.Kind != api.KindAction || got.Subtype != api.SubtypeOpenAI || got.ComponentID != "action" {
		t.Fatalf("spec = %+v", got)
	}
	want := api.ActionConfig{Action: api.ActionResponseWithText, Model: "gpt-4", Database: "mysql"}
	if got.Config != want {
		t.Fatalf("config = %+v, want %+v", got.Config, want)
	}
	if w.State() != StateSubmitted {
		t.Fatalf("state = %v, want submitted", w.State())
	}
}

func TestWhatsAppActionWalksTwoSteps(t *testing.T) {
	c := &recordingCreator{}
	w := New(c)

	if _, err := w.Select(api.KindAction); err != nil {
		t.Fatal(err)
	}
	mustChoose(t, w, "whatsapp", "send_message")
	if _, err := w.Submit(); err != nil {
		t.Fatal(err)
	}

	got := c.specs[0]
	if got.Subtype != api.SubtypeWhatsApp || got.Config != (api.ActionConfig{Action: api.ActionSendMessage}) {
		t.Fatalf("spec = %+v", got)
	}
}

func TestDelayAndWebhookSubmitOnSelect(t *testing.T) {
	for _, kind := range []api.NodeKind{api.KindDelay, api.KindWebhook} {
		c := &recordingCreator{}
		w := New(c)

		id, err := w.Select(kind)
		if err != nil || id == "" {
			t.Fatalf("%s: Select = %q, %v", kind, id, err)
		}
		if w.State() != StateSubmitted {
			t.Fatalf("%s: state = %v", kind, w.State())
		}
		def, _ := api.DefaultConfig(kind)
		if len(c.specs) != 1 || !reflect.DeepEqual(c.specs[0].Config, def) {
			t.Fatalf("%s: specs = %+v", kind, c.specs)
		}
	}
}

func TestTriggerSingleStep(t *testing.T) {
	c := &recordingCreator{}
	w := New(c).At(api.Position{X: 5, Y: 6})

	if _, err := w.SelectComponent("trigger"); err != nil {
		t.Fatal(err)
	}
	if err := w.Choose("middle"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Choose(middle) = %v, want ErrInvalidOption", err)
	}
	mustChoose(t, w, "end")
	if _, err := w.Submit(); err != nil {
		t.Fatal(err)
	}

	got := c.specs[0]
	if got.Config != (api.TriggerConfig{TriggerType: api.TriggerEnd}) {
		t.Fatalf("config = %+v", got.Config)
	}
	if got.Position == nil || *got.Position != (api.Position{X: 5, Y: 6}) {
		t.Fatalf("position = %v", got.Position)
	}
}

func TestConditionRequiresExpression(t *testing.T) {
	c := &recordingCreator{}
	w := New(c)

	if _, err := w.Select(api.KindCondition); err != nil {
		t.Fatal(err)
	}
	p, _ := w.Prompt()
	if !p.FreeText {
		t.Fatal("condition step should take free text")
	}
	if _, err := w.Submit(); !errors.Is(err, api.ErrEmptyInput) {
		t.Fatalf("Submit without expression = %v, want ErrEmptyInput", err)
	}
	if err := w.Choose("   "); !errors.Is(err, api.ErrEmptyInput) {
		t.Fatalf("Choose(blank) = %v, want ErrEmptyInput", err)
	}
	if len(c.specs) != 0 {
		t.Fatal("nothing must be created before a valid expression")
	}

	mustChoose(t, w, "  idade >= 18 ")
	if _, err := w.Submit(); err != nil {
		t.Fatal(err)
	}
	if c.specs[0].Config != (api.ConditionConfig{Expression: "idade >= 18"}) {
		t.Fatalf("config = %+v", c.specs[0].Config)
	}
}

func TestBackRevisitsAndCancelsAtFirstStep(t *testing.T) {
	c := &recordingCreator{}
	w := New(c)

	if _, err := w.Select(api.KindAction); err != nil {
		t.Fatal(err)
	}
	mustChoose(t, w, "openai", "gpt-4")
	if w.Step() != 3 {
		t.Fatalf("step = %d, want 3", w.Step())
	}

	if err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if w.Step() != 2 {
		t.Fatalf("step after Back = %d, want 2", w.Step())
	}
	if err := w.Back(); err != nil {
		t.Fatal(err)
	}

	// Switching branch at step 1 changes the remaining sequence.
	mustChoose(t, w, "whatsapp")
	p, _ := w.Prompt()
	if p.Title != "Ação do WhatsApp" {
		t.Fatalf("prompt after branch switch = %+v", p)
	}
	mustChoose(t, w, "receive_message")

	if err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateStep || w.Step() != 2 {
		t.Fatalf("Back from ready: state %v step %d", w.State(), w.Step())
	}
	if err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateCancelled {
		t.Fatalf("state = %v, want cancelled", w.State())
	}
	if len(c.specs) != 0 {
		t.Fatal("cancel must not create a node")
	}
	if err := w.Choose("openai"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Choose after cancel = %v, want ErrClosed", err)
	}
}

func TestSubmitClosesEvenWhenCreationFails(t *testing.T) {
	boom := errors.New("boom")
	c := &recordingCreator{err: boom}
	w := New(c)

	if _, err := w.Select(api.KindTrigger); err != nil {
		t.Fatal(err)
	}
	mustChoose(t, w, "init")
	if _, err := w.Submit(); !errors.Is(err, boom) {
		t.Fatalf("Submit = %v, want boom", err)
	}
	if w.State() != StateSubmitted {
		t.Fatalf("state = %v, want submitted", w.State())
	}
	if _, err := w.Submit(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Submit = %v, want ErrClosed", err)
	}
}

func TestIncompleteAndUnexpected(t *testing.T) {
	w := New(&recordingCreator{})

	if err := w.Choose("x"); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("Choose before Select = %v", err)
	}
	if _, err := w.Select("robot"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("Select(robot) = %v", err)
	}
	if _, err := w.SelectComponent("robot"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("SelectComponent(robot) = %v", err)
	}

	if _, err := w.Select(api.KindAction); err != nil {
		t.Fatal(err)
	}
	mustChoose(t, w, "openai", "gpt-4")
	if _, err := w.Submit(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Submit mid-way = %v, want ErrIncomplete", err)
	}
	if _, err := w.Select(api.KindDelay); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("second Select = %v", err)
	}
}
