package specialist

import (
	"context"
	"fmt"

	contractx "github.com/svergara/concierge/agent/contract"
	llmx "github.com/svergara/concierge/agent/llm"
	promptx "github.com/svergara/concierge/agent/prompt"
	toolx "github.com/svergara/concierge/agent/tool"
)

// NewRegistry builds every registered specialist, one chat model each,
// from the shared LLM configuration. Configuration problems surface
// here, at startup, never at request time.
func NewRegistry(ctx context.Context, cfg llmx.Config, catalog *toolx.Catalog) ([]contractx.SpecialistTool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	addressModelCfg := cfg.OpenRouterFor(contractx.AgentTypeAddress)
	addressModel, err := addressModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create address model: %v", contractx.ErrModelInvoke, err)
	}
	damageModelCfg := cfg.OpenRouterFor(contractx.AgentTypeDamage)
	damageModel, err := damageModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create damage model: %v", contractx.ErrModelInvoke, err)
	}
	echoModelCfg := cfg.OpenRouterFor(contractx.AgentTypeEcho)
	echoModel, err := echoModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create echo model: %v", contractx.ErrModelInvoke, err)
	}

	address, err := NewAddress(addressModel, prompts.Address, catalog)
	if err != nil {
		return nil, err
	}
	damage, err := NewDamage(damageModel, prompts.Damage, catalog)
	if err != nil {
		return nil, err
	}
	echo, err := NewEcho(echoModel, prompts.Echo, catalog)
	if err != nil {
		return nil, err
	}

	return []contractx.SpecialistTool{address, damage, echo}, nil
}
