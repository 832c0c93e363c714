package dto

// ChatInbound is a client frame on the chat websocket. A frame that is not
// valid JSON is treated as a plain query.
type ChatInbound struct {
	Type  string `json:"type"` // "query" | "clear" | "history"
	Query string `json:"query"`
}

type ChatOutbound struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
