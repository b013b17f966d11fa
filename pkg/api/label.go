package api

// LabelFor returns the default display label of a node. It is a pure
// function of kind, subtype and config.
func LabelFor(kind NodeKind, subtype string, config NodeConfig) string {
	switch kind {
	case KindTrigger:
		if cfg, ok := config.(TriggerConfig); ok && cfg.TriggerType == TriggerInit {
			return "Início"
		}
		return "Fim"
	case KindAction:
		cfg, _ := config.(ActionConfig)
		if label, ok := actionLabels[cfg.Action]; ok {
			return label
		}
		if subtype != "" {
			return subtype
		}
		return "Ação"
	case KindCondition:
		return "Condição"
	case KindDelay:
		return "Atraso"
	case KindWebhook:
		return "Webhook"
	default:
		return "Nó"
	}
}

var actionLabels = map[string]string{
	ActionReceiveMessage:    "Receber Mensagem",
	ActionSendMessage:       "Enviar Mensagem",
	ActionResponseWithText:  "Responder com Texto",
	ActionResponseWithAudio: "Responder com Áudio",
	ActionResponseWithImage: "Responder com Imagem",
}
