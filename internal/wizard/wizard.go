// Package wizard drives the dialog that configures a node before it is
// created. A Wizard walks the steps of the selected node kind, collects one
// choice per step and hands the finished payload to a NodeCreator.
//
// Delay and webhook nodes have no steps: selecting them creates the node
// straight away with its default config.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petrijr/flowkit/pkg/api"
)

var (
	// ErrClosed is returned by every operation once the wizard has been
	// submitted or cancelled.
	ErrClosed = errors.New("wizard closed")

	// ErrInvalidOption is returned when a choice is not offered by the
	// current step.
	ErrInvalidOption = errors.New("option not offered by this step")

	// ErrIncomplete is returned by Submit before every step is answered.
	ErrIncomplete = errors.New("wizard has unanswered steps")

	// ErrUnexpectedState is returned for operations not valid in the
	// current state, such as Choose before Select.
	ErrUnexpectedState = errors.New("operation not valid in current wizard state")
)

// State is the position of a Wizard in its lifecycle.
type State int

const (
	StateSelectComponent State = iota
	StateStep
	StateReady
	StateSubmitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSelectComponent:
		return "select-component"
	case StateStep:
		return "step"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// NodeCreator receives the payload of a finished wizard.
// *mutation.Ops satisfies it.
type NodeCreator interface {
	CreateNode(spec api.NodeSpec) (string, error)
}

// Wizard is a single-use configuration session. It is not safe for
// concurrent use; a dialog owns it from Select to Submit or Cancel.
type Wizard struct {
	creator NodeCreator

	state       State
	kind        api.NodeKind
	componentID string
	step        int // 1-based while in StateStep
	choices     []string
	position    *api.Position
}

// New returns a wizard waiting for a component selection.
func New(creator NodeCreator) *Wizard {
	return &Wizard{creator: creator}
}

// At places the created node at pos instead of the default position.
func (w *Wizard) At(pos api.Position) *Wizard {
	w.position = &pos
	return w
}

// State returns the current state.
func (w *Wizard) State() State { return w.state }

// Kind returns the selected node kind, or "" before Select.
func (w *Wizard) Kind() api.NodeKind { return w.kind }

// Step returns the 1-based current step, or 0 outside StateStep.
func (w *Wizard) Step() int {
	if w.state != StateStep {
		return 0
	}
	return w.step
}

// SelectComponent selects a palette entry by its id.
func (w *Wizard) SelectComponent(componentID string) (string, error) {
	c, ok := api.ComponentByID(componentID)
	if !ok {
		return "", fmt.Errorf("component %q: %w", componentID, api.ErrNotFound)
	}
	return w.selectKind(c.Kind, c.ID)
}

// Select picks the node kind. For delay and webhook the node is created
// immediately with the default config and its id is returned; other kinds
// move to step 1 and return "".
func (w *Wizard) Select(kind api.NodeKind) (string, error) {
	componentID := string(kind)
	if c, ok := api.ComponentFor(kind); ok {
		componentID = c.ID
	}
	return w.selectKind(kind, componentID)
}

func (w *Wizard) selectKind(kind api.NodeKind, componentID string) (string, error) {
	if err := w.open(); err != nil {
		return "", err
	}
	if w.state != StateSelectComponent {
		return "", ErrUnexpectedState
	}
	if !kind.Valid() {
		return "", fmt.Errorf("node kind %q: %w", kind, api.ErrNotFound)
	}

	w.kind = kind
	w.componentID = componentID

	if cfg, ok := api.DefaultConfig(kind); ok {
		return w.create("", cfg)
	}
	w.state = StateStep
	w.step = 1
	return "", nil
}

// Prompt describes the current step. ok is false outside StateStep.
func (w *Wizard) Prompt() (Prompt, bool) {
	if w.state != StateStep {
		return Prompt{}, false
	}
	def := w.current()
	return Prompt{
		Kind:        w.kind,
		Step:        w.step,
		Title:       def.title,
		Description: def.description,
		Placeholder: def.placeholder,
		Options:     append([]Option(nil), def.options...),
		FreeText:    def.freeText,
	}, true
}

func (w *Wizard) current() stepDef {
	return stepsFor(w.kind, w.choices)[w.step-1]
}

// Choose answers the current step and advances. Free-text steps take the
// trimmed input and reject a blank one with api.ErrEmptyInput.
func (w *Wizard) Choose(value string) error {
	if err := w.open(); err != nil {
		return err
	}
	if w.state != StateStep {
		return ErrUnexpectedState
	}

	def := w.current()
	if def.freeText {
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("%s: %w", def.title, api.ErrEmptyInput)
		}
	} else if !def.accepts(value) {
		return fmt.Errorf("%q at step %d: %w", value, w.step, ErrInvalidOption)
	}

	w.choices = append(w.choices[:w.step-1], value)
	if w.step < len(stepsFor(w.kind, w.choices)) {
		w.step++
		return nil
	}
	w.state = StateReady
	return nil
}

// Back returns to the previous step and forgets its answer. Back from
// Ready reopens the last step; Back at step 1 cancels the wizard.
func (w *Wizard) Back() error {
	if err := w.open(); err != nil {
		return err
	}
	switch w.state {
	case StateReady:
		w.state = StateStep
		w.step = len(w.choices)
		w.choices = w.choices[:w.step-1]
		return nil
	case StateStep:
		if w.step == 1 {
			w.Cancel()
			return nil
		}
		w.step--
		w.choices = w.choices[:w.step-1]
		return nil
	}
	return ErrUnexpectedState
}

// Cancel closes the wizard without creating anything.
func (w *Wizard) Cancel() {
	if w.state == StateSubmitted {
		return
	}
	w.state = StateCancelled
	w.choices = nil
}

// Submit hands the collected payload to the NodeCreator and closes the
// wizard, whether or not the creation succeeds.
func (w *Wizard) Submit() (string, error) {
	if err := w.open(); err != nil {
		return "", err
	}
	switch w.state {
	case StateReady:
	case StateStep:
		if w.current().freeText {
			return "", fmt.Errorf("%s: %w", w.current().title, api.ErrEmptyInput)
		}
		return "", ErrIncomplete
	default:
		return "", ErrUnexpectedState
	}

	subtype, cfg := build(w.kind, w.choices)
	return w.create(subtype, cfg)
}

func (w *Wizard) create(subtype string, cfg api.NodeConfig) (string, error) {
	w.state = StateSubmitted
	w.choices = nil
	return w.creator.CreateNode(api.NodeSpec{
		Kind:        w.kind,
		ComponentID: w.componentID,
		Subtype:     subtype,
		Config:      cfg,
		Position:    w.position,
	})
}

func (w *Wizard) open() error {
	if w.state == StateSubmitted || w.state == StateCancelled {
		return ErrClosed
	}
	return nil
}
