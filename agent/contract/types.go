package contract

// AgentType identifies which agent a model handle or prompt belongs to.
type AgentType string

const (
	AgentTypeOrchestrator AgentType = "orchestrator"
	AgentTypeAddress      AgentType = "address"
	AgentTypeDamage       AgentType = "damage"
	AgentTypeEcho         AgentType = "echo"
)

// Role tags one persisted conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystemContext carries background injected by an upstream system
	// rather than something the customer typed. The target models have no
	// separate channel for mid-conversation system turns, so these turns
	// are folded into user-role text with an explicit marker.
	RoleSystemContext Role = "system_context"
)

// ConversationTurn is one stored turn of a session, oldest first.
// History is immutable within a request; new turns are only appended
// after a response has been produced.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Attachment is one request-scoped file. Data is base64 with any
// data-URI prefix already stripped by the transport layer. Attachments
// are never persisted.
type Attachment struct {
	Data     string `json:"base64"`
	Mimetype string `json:"mimetype"`
}

// ToolResult is the outcome of one domain-tool execution. A failing
// tool populates Error and returns a nil Go error: tool faults are data
// for the calling model, not faults of the serving process.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ToolOutcome pairs one delegation-round specialist result with the
// tool call that requested it. Exactly one of Content and Err is set;
// either way the text is returned to the top-level model under CallID.
type ToolOutcome struct {
	CallID  string
	Tool    string
	Content string
	Err     string
}

// Text returns the model-visible response body for the outcome.
func (o ToolOutcome) Text() string {
	if o.Err != "" {
		return "error: " + o.Err
	}
	return o.Content
}
