package wizard

import "github.com/petrijr/flowkit/pkg/api"

// Option is one choice offered by a step.
type Option struct {
	Value string
	Label string
}

// Prompt describes the current step to a dialog.
type Prompt struct {
	Kind        api.NodeKind
	Step        int // 1-based
	Title       string
	Description string
	Placeholder string
	Options     []Option
	// FreeText is set when the step takes typed input instead of an option.
	FreeText bool
}

type stepKey int

const (
	stepTriggerType stepKey = iota
	stepSubtype
	stepWhatsAppAction
	stepModel
	stepDatabase
	stepModality
	stepExpression
)

type stepDef struct {
	key         stepKey
	title       string
	description string
	placeholder string
	options     []Option
	freeText    bool
}

func (d stepDef) accepts(v string) bool {
	for _, o := range d.options {
		if o.Value == v {
			return true
		}
	}
	return false
}

var (
	triggerTypeStep = stepDef{
		key:         stepTriggerType,
		title:       "Tipo de Gatilho",
		description: "Escolha se o gatilho inicia ou encerra o fluxo",
		placeholder: "Selecione o tipo",
		options: []Option{
			{Value: string(api.TriggerInit), Label: "Início"},
			{Value: string(api.TriggerEnd), Label: "Fim"},
		},
	}
	subtypeStep = stepDef{
		key:         stepSubtype,
		title:       "Tipo de Ação",
		description: "Escolha o serviço que executa a ação",
		placeholder: "Selecione o tipo",
		options: []Option{
			{Value: api.SubtypeWhatsApp, Label: "WhatsApp"},
			{Value: api.SubtypeOpenAI, Label: "OpenAI"},
		},
	}
	whatsAppActionStep = stepDef{
		key:         stepWhatsAppAction,
		title:       "Ação do WhatsApp",
		placeholder: "Selecione a ação",
		options: []Option{
			{Value: api.ActionReceiveMessage, Label: "Receber Mensagem"},
			{Value: api.ActionSendMessage, Label: "Enviar Mensagem"},
		},
	}
	modelStep = stepDef{
		key:         stepModel,
		title:       "Modelo",
		placeholder: "Selecione o modelo",
		options: []Option{
			{Value: "gpt-4", Label: "GPT-4"},
			{Value: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo"},
			{Value: "gpt-3.5-turbo-16k", Label: "GPT-3.5 Turbo 16k"},
		},
	}
	databaseStep = stepDef{
		key:         stepDatabase,
		title:       "Banco de Dados",
		placeholder: "Selecione o banco",
		options: []Option{
			{Value: "mysql", Label: "MySQL"},
			{Value: "redis", Label: "Redis"},
		},
	}
	modalityStep = stepDef{
		key:         stepModality,
		title:       "Tipo de Resposta",
		placeholder: "Selecione a resposta",
		options: []Option{
			{Value: "text", Label: "Responder com Texto"},
			{Value: "audio", Label: "Responder com Áudio"},
			{Value: "image", Label: "Responder com Imagem"},
		},
	}
	expressionStep = stepDef{
		key:         stepExpression,
		title:       "Condição",
		description: "Expressão avaliada para escolher o caminho verdadeiro ou falso",
		placeholder: "Digite a condição",
		freeText:    true,
	}
)

var modalityActions = map[string]string{
	"text":  api.ActionResponseWithText,
	"audio": api.ActionResponseWithAudio,
	"image": api.ActionResponseWithImage,
}

// stepsFor returns the step sequence of kind given the choices made so far.
// Action sequences branch on the subtype picked at step 1, so the result
// grows once that choice is known.
func stepsFor(kind api.NodeKind, choices []string) []stepDef {
	switch kind {
	case api.KindTrigger:
		return []stepDef{triggerTypeStep}
	case api.KindCondition:
		return []stepDef{expressionStep}
	case api.KindAction:
		if len(choices) == 0 {
			return []stepDef{subtypeStep}
		}
		switch choices[0] {
		case api.SubtypeWhatsApp:
			return []stepDef{subtypeStep, whatsAppActionStep}
		case api.SubtypeOpenAI:
			return []stepDef{subtypeStep, modelStep, databaseStep, modalityStep}
		}
		return []stepDef{subtypeStep}
	}
	return nil
}

// build turns the completed choices into the node payload.
func build(kind api.NodeKind, choices []string) (subtype string, cfg api.NodeConfig) {
	switch kind {
	case api.KindTrigger:
		return "", api.TriggerConfig{TriggerType: api.TriggerType(choices[0])}
	case api.KindCondition:
		return "", api.ConditionConfig{Expression: choices[0]}
	case api.KindAction:
		subtype = choices[0]
		if subtype == api.SubtypeWhatsApp {
			return subtype, api.ActionConfig{Action: choices[1]}
		}
		return subtype, api.ActionConfig{
			Model:    choices[1],
			Database: choices[2],
			Action:   modalityActions[choices[3]],
		}
	}
	return "", nil
}
