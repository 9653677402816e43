package specialist

import (
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/svergara/concierge/agent/contract"
	toolx "github.com/svergara/concierge/agent/tool"
)

// Tool names under which the specialists are registered with the
// orchestrator. The descriptions attached to them drive routing and
// should be changed with the same care as a schema.
const (
	NameAddress = "address_specialist"
	NameDamage  = "damage_specialist"
	NameEcho    = "echo_specialist"
)

// NewAddress builds the delivery-address specialist.
func NewAddress(chatModel einomodel.ToolCallingChatModel, preamble string, catalog *toolx.Catalog) (*Specialist, error) {
	spec := &schema.ToolInfo{
		Name: NameAddress,
		Desc: "Use this agent when the user wants to change their delivery address or modify shipping details.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {
				Type:     schema.String,
				Desc:     "Identifier of the customer requesting the change",
				Required: true,
			},
			"new_address": {
				Type:     schema.String,
				Desc:     "The new delivery address exactly as the user stated it",
				Required: true,
			},
			"reason": {
				Type:     schema.String,
				Desc:     "Why the user wants the address changed",
				Required: true,
			},
		}),
	}

	buildPrompt := func(args map[string]any) (string, error) {
		customerID, err := requiredString(NameAddress, args, "customer_id")
		if err != nil {
			return "", err
		}
		newAddress, err := requiredString(NameAddress, args, "new_address")
		if err != nil {
			return "", err
		}
		reason, err := requiredString(NameAddress, args, "reason")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Process an address change for customer %s. New address: %s. Reason: %s.",
			customerID, newAddress, reason,
		), nil
	}

	return newSpecialist(contractx.AgentTypeAddress, chatModel, preamble, spec, buildPrompt, catalog)
}

// NewDamage builds the damage-report specialist.
func NewDamage(chatModel einomodel.ToolCallingChatModel, preamble string, catalog *toolx.Catalog) (*Specialist, error) {
	spec := &schema.ToolInfo{
		Name: NameDamage,
		Desc: "Use this agent when the user reports a damaged, broken or defective item.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"item_name": {
				Type:     schema.String,
				Desc:     "Name or identifier of the damaged item",
				Required: true,
			},
			"description_of_damage": {
				Type:     schema.String,
				Desc:     "Detailed description of the damage the user observed",
				Required: true,
			},
		}),
	}

	buildPrompt := func(args map[string]any) (string, error) {
		itemName, err := requiredString(NameDamage, args, "item_name")
		if err != nil {
			return "", err
		}
		description, err := requiredString(NameDamage, args, "description_of_damage")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Damage report for item %q. Description of the damage: %s.",
			itemName, description,
		), nil
	}

	return newSpecialist(contractx.AgentTypeDamage, chatModel, preamble, spec, buildPrompt, catalog)
}

var echoDetailLevels = map[string]bool{
	"brief":    true,
	"normal":   true,
	"detailed": true,
}

// NewEcho builds the diagnostic specialist used to verify delegation
// end to end.
func NewEcho(chatModel einomodel.ToolCallingChatModel, preamble string, catalog *toolx.Catalog) (*Specialist, error) {
	spec := &schema.ToolInfo{
		Name: NameEcho,
		Desc: "A test agent for verifying the system. Use it when the user wants to test the system, says 'ping' or 'test', or asks for a demonstration.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"message": {
				Type:     schema.String,
				Desc:     "The message to process",
				Required: true,
			},
			"detail_level": {
				Type: schema.String,
				Desc: "Level of detail in the response: \"brief\", \"normal\" or \"detailed\". Defaults to \"normal\".",
			},
		}),
	}

	buildPrompt := func(args map[string]any) (string, error) {
		message, err := requiredString(NameEcho, args, "message")
		if err != nil {
			return "", err
		}

		detailLevel := "normal"
		if raw, ok := args["detail_level"]; ok {
			level, ok := raw.(string)
			if !ok {
				return "", fmt.Errorf("%w: %s: detail_level must be a string", contractx.ErrSchemaViolation, NameEcho)
			}
			if level = strings.TrimSpace(level); level != "" {
				if !echoDetailLevels[level] {
					return "", fmt.Errorf("%w: %s: invalid detail_level %q", contractx.ErrSchemaViolation, NameEcho, level)
				}
				detailLevel = level
			}
		}

		return fmt.Sprintf("Process the following message with detail level '%s':\n\n%s", detailLevel, message), nil
	}

	return newSpecialist(contractx.AgentTypeEcho, chatModel, preamble, spec, buildPrompt, catalog)
}

func requiredString(specialist string, args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s: missing argument %q", contractx.ErrSchemaViolation, specialist, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: argument %q must be a string", contractx.ErrSchemaViolation, specialist, key)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s: argument %q is empty", contractx.ErrSchemaViolation, specialist, key)
	}
	return value, nil
}
