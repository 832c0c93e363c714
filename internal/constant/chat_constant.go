package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// Websocket chat frame types.
const (
	ChatFrameThinking = "thinking"
	ChatFrameResult   = "result"
	ChatFrameError    = "error"
	ChatFrameCleared  = "cleared"
	ChatFrameHistory  = "history"
)
