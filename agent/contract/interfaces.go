package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// SpecialistTool is a bounded, domain-scoped agent exposed to the
// orchestrator as a callable tool. Implementations are immutable after
// construction and safe for concurrent invocation.
type SpecialistTool interface {
	// Spec describes the specialist to the orchestrator's model. The
	// description text drives routing: the model consults it to decide
	// when to delegate, so it is a behavioral contract, not documentation.
	Spec() *schema.ToolInfo

	// Invoke runs the specialist's own agent over the structured
	// arguments extracted by the orchestrator's model. argsJSON is the
	// raw tool-call argument payload. The returned text is handed back
	// to the orchestrator's model verbatim.
	Invoke(ctx context.Context, argsJSON string) (string, error)
}

// HistoryStore owns persisted conversation history per session.
type HistoryStore interface {
	// Get returns the session's turns oldest first, empty for an
	// unknown session.
	Get(ctx context.Context, sessionID string) ([]ConversationTurn, error)
	// Append adds turns to the end of the session's history.
	Append(ctx context.Context, sessionID string, turns []ConversationTurn) error
}
