package ws

const (
	// server - client; orchestrator events carry their own type
	MsgReady  = "ready"
	MsgStatus = "status"
)

// Envelope wraps server messages that are not orchestrator events.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
