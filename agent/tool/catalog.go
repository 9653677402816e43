package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/svergara/concierge/agent/contract"
)

// Executor runs one domain tool. Tool faults are reported inside the
// ToolResult; a non-nil error is reserved for faults of the executor
// itself and the specialists treat it the same way.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Catalog holds the domain tools available to the specialists. Each
// specialist sees only its own tools; the orchestrator sees none.
type Catalog struct {
	geocoder *Geocoder
}

func NewCatalog(geocoder *Geocoder) *Catalog {
	return &Catalog{geocoder: geocoder}
}

// BuildForAgent returns the tool specs and executor for one specialist.
func (c *Catalog) BuildForAgent(agentType contractx.AgentType) ([]*schema.ToolInfo, Executor) {
	return infosForAgent(agentType), c.newExecutor(agentType)
}

func (c *Catalog) newExecutor(agentType contractx.AgentType) Executor {
	fallback := unavailableExecutor(agentType)
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolGeocodeLookup:
			return c.geocoder.execute(ctx, tool, args)
		case ToolCostLookup:
			return executeCostLookup(tool, args)
		case ToolTextReverse:
			return executeTextReverse(tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func unavailableExecutor(agentType contractx.AgentType) Executor {
	return func(_ context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func infosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeAddress:
		return []*schema.ToolInfo{
			{
				Name: ToolGeocodeLookup,
				Desc: "Resolve a postal address to its canonical form and coordinates. Use it to verify a new delivery address exists before confirming the change.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "Free-form address to resolve", Required: true},
				}),
			},
		}
	case contractx.AgentTypeDamage:
		return []*schema.ToolInfo{
			{
				Name: ToolCostLookup,
				Desc: "Look up the replacement and repair cost of a catalog item. Use it to estimate whether repair or replacement is cheaper.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"item_name": {Type: schema.String, Desc: "Name of the damaged item", Required: true},
				}),
			},
		}
	case contractx.AgentTypeEcho:
		return []*schema.ToolInfo{
			{
				Name: ToolTextReverse,
				Desc: "Reverse a piece of text. Diagnostic tool for end-to-end checks.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"message": {Type: schema.String, Desc: "Text to reverse", Required: true},
				}),
			},
		}
	default:
		return nil
	}
}

func stringArg(args map[string]any, key string) (string, string) {
	raw, ok := args[key]
	if !ok {
		return "", key + " is required"
	}
	value, ok := raw.(string)
	if !ok {
		return "", key + " must be a string"
	}
	return value, ""
}
