package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/orchestrator.txt
	orchestratorRaw string

	//go:embed template/address.txt
	addressRaw string

	//go:embed template/damage.txt
	damageRaw string

	//go:embed template/echo.txt
	echoRaw string
)

// PromptSet holds the agent preambles.
type PromptSet struct {
	Orchestrator string
	Address      string
	Damage       string
	Echo         string
}

// LoadPromptSet returns the embedded preambles, trimmed. Safe to call
// concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Orchestrator: strings.TrimSpace(orchestratorRaw),
		Address:      strings.TrimSpace(addressRaw),
		Damage:       strings.TrimSpace(damageRaw),
		Echo:         strings.TrimSpace(echoRaw),
	}
}
