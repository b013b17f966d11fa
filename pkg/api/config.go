package api

// NodeConfig is the kind-specific configuration of a node. Each node kind has
// exactly one implementation; a node whose config kind differs from its own
// kind is invalid.
type NodeConfig interface {
	ConfigKind() NodeKind
}

// TriggerType selects the single handle of a trigger node.
type TriggerType string

const (
	TriggerInit TriggerType = "init"
	TriggerEnd  TriggerType = "end"
)

// Action subtypes (stored in NodeData.Subtype).
const (
	SubtypeWhatsApp = "whatsapp"
	SubtypeOpenAI   = "openai"
)

// WhatsApp actions.
const (
	ActionReceiveMessage = "receive_message"
	ActionSendMessage    = "send_message"
)

// OpenAI actions, one per response modality.
const (
	ActionResponseWithText  = "response_with_text"
	ActionResponseWithAudio = "response_with_audio"
	ActionResponseWithImage = "response_with_image"
)

// TriggerConfig configures a trigger node.
type TriggerConfig struct {
	TriggerType TriggerType `json:"triggerType"`
}

func (TriggerConfig) ConfigKind() NodeKind { return KindTrigger }

// ActionConfig configures an action node. Credentials and BaseScript are
// always serialized so the persisted shape stays stable across edits.
type ActionConfig struct {
	Action      string `json:"action,omitempty"`
	Model       string `json:"model,omitempty"`
	Database    string `json:"database,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Response    string `json:"response,omitempty"`
	Credentials string `json:"credentials"`
	BaseScript  string `json:"baseScript"`
}

func (ActionConfig) ConfigKind() NodeKind { return KindAction }

// ConditionConfig configures a condition node. Expression is collected by
// the creation wizard; the operand fields are edited afterwards.
type ConditionConfig struct {
	Expression  string `json:"condition,omitempty"`
	FirstValue  string `json:"firstValue,omitempty"`
	Operator    string `json:"operator,omitempty"`
	SecondValue string `json:"secondValue,omitempty"`
}

func (ConditionConfig) ConfigKind() NodeKind { return KindCondition }

// Operators accepted by ConditionConfig.Operator.
var ConditionOperators = []string{"==", "!=", ">", "<", ">=", "<="}

// DelayConfig configures a delay node.
type DelayConfig struct {
	Seconds int `json:"seconds"`
}

func (DelayConfig) ConfigKind() NodeKind { return KindDelay }

// KeyValue is a webhook parameter.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WebhookConfig configures a webhook node.
type WebhookConfig struct {
	Method string     `json:"method"`
	URL    string     `json:"url,omitempty"`
	Params []KeyValue `json:"params,omitempty"`
}

func (WebhookConfig) ConfigKind() NodeKind { return KindWebhook }

// DefaultConfig returns the config synthesized for kinds that are created
// without a dialog. ok is false for kinds that need user input.
func DefaultConfig(kind NodeKind) (NodeConfig, bool) {
	switch kind {
	case KindDelay:
		return DelayConfig{Seconds: 0}, true
	case KindWebhook:
		return WebhookConfig{Method: "GET"}, true
	default:
		return nil, false
	}
}

// emptyConfig returns the zero config for kind, used when decoding a node
// whose config is missing from the document.
func emptyConfig(kind NodeKind) NodeConfig {
	switch kind {
	case KindTrigger:
		return &TriggerConfig{}
	case KindAction:
		return &ActionConfig{}
	case KindCondition:
		return &ConditionConfig{}
	case KindDelay:
		return &DelayConfig{}
	case KindWebhook:
		return &WebhookConfig{}
	default:
		return nil
	}
}

func derefConfig(c NodeConfig) NodeConfig {
	switch v := c.(type) {
	case *TriggerConfig:
		return *v
	case *ActionConfig:
		return *v
	case *ConditionConfig:
		return *v
	case *DelayConfig:
		return *v
	case *WebhookConfig:
		cp := *v
		cp.Params = append([]KeyValue(nil), v.Params...)
		return cp
	default:
		return c
	}
}

// CloneConfig returns a copy of c that shares no mutable state with it.
func CloneConfig(c NodeConfig) NodeConfig {
	if w, ok := c.(WebhookConfig); ok {
		w.Params = append([]KeyValue(nil), w.Params...)
		return w
	}
	return derefConfig(c)
}
