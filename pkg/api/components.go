package api

// Component is an entry of the palette a user picks node kinds from.
type Component struct {
	ID          string
	Name        string
	Description string
	Kind        NodeKind
}

var components = []Component{
	{ID: "trigger", Name: "Gatilho", Description: "Inicia o fluxo quando uma condição é atendida", Kind: KindTrigger},
	{ID: "action", Name: "Ação", Description: "Executa uma ação específica", Kind: KindAction},
	{ID: "condition", Name: "Condição", Description: "Define uma condição para o fluxo", Kind: KindCondition},
	{ID: "delay", Name: "Atraso", Description: "Adiciona um atraso no fluxo", Kind: KindDelay},
	{ID: "webhook", Name: "Webhook", Description: "Integra com serviços externos", Kind: KindWebhook},
}

// Components returns the component palette.
func Components() []Component {
	return append([]Component(nil), components...)
}

// ComponentByID looks up a palette entry.
func ComponentByID(id string) (Component, bool) {
	for _, c := range components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// ComponentFor returns the palette entry of a node kind.
func ComponentFor(kind NodeKind) (Component, bool) {
	for _, c := range components {
		if c.Kind == kind {
			return c, true
		}
	}
	return Component{}, false
}
