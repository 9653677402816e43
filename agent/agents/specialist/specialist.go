package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/svergara/concierge/agent/contract"
	toolx "github.com/svergara/concierge/agent/tool"
)

// maxToolRounds bounds a specialist's internal tool loop so a model
// that keeps requesting tools cannot stall a request forever.
const maxToolRounds = 8

// Specialist is one bounded domain agent. It is exposed to the
// orchestrator as a callable tool: the orchestrator's model extracts
// structured arguments, Invoke interpolates them into the domain's
// prompt template and runs the specialist's own model, which may call
// its domain tools before producing the final text.
//
// All fields are fixed at construction; a Specialist is safe for
// concurrent use and never delegates to another specialist.
type Specialist struct {
	agentType   contractx.AgentType
	spec        *schema.ToolInfo
	preamble    string
	buildPrompt func(args map[string]any) (string, error)

	model     einomodel.ToolCallingChatModel
	toolNames map[string]struct{}
	exec      toolx.Executor
}

var _ contractx.SpecialistTool = (*Specialist)(nil)

func newSpecialist(
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	preamble string,
	spec *schema.ToolInfo,
	buildPrompt func(args map[string]any) (string, error),
	catalog *toolx.Catalog,
) (*Specialist, error) {
	if spec == nil || strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: specialist tool spec is incomplete", contractx.ErrValidation)
	}
	if buildPrompt == nil {
		return nil, fmt.Errorf("%w: specialist %s has no prompt template", contractx.ErrValidation, spec.Name)
	}

	infos, exec := catalog.BuildForAgent(agentType)

	bound := chatModel
	if len(infos) > 0 {
		var err error
		bound, err = chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, spec.Name, err)
		}
	}

	toolNames := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		toolNames[info.Name] = struct{}{}
	}

	return &Specialist{
		agentType:   agentType,
		spec:        spec,
		preamble:    preamble,
		buildPrompt: buildPrompt,
		model:       bound,
		toolNames:   toolNames,
		exec:        exec,
	}, nil
}

// Spec describes this specialist to the orchestrator's model.
func (s *Specialist) Spec() *schema.ToolInfo {
	return s.spec
}

// Invoke decodes the orchestrator-extracted arguments, runs the
// specialist's agent loop and returns its final text. Failures are
// returned as errors; the orchestrator folds them into the tool result
// so the top-level model can react.
func (s *Specialist) Invoke(ctx context.Context, argsJSON string) (string, error) {
	args := map[string]any{}
	if trimmed := strings.TrimSpace(argsJSON); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return "", fmt.Errorf("%w: decode args for %s: %v", contractx.ErrSchemaViolation, s.spec.Name, err)
		}
	}

	prompt, err := s.buildPrompt(args)
	if err != nil {
		return "", err
	}

	msgs := []*schema.Message{
		schema.SystemMessage(s.preamble),
		schema.UserMessage(prompt),
	}

	for round := 0; round < maxToolRounds; round++ {
		reply, err := s.model.Generate(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("%w: specialist %s invoke: %v", contractx.ErrModelInvoke, s.spec.Name, err)
		}
		if reply == nil {
			return "", fmt.Errorf("%w: specialist %s returned no message", contractx.ErrSchemaViolation, s.spec.Name)
		}

		if len(reply.ToolCalls) == 0 {
			text := strings.TrimSpace(reply.Content)
			if text == "" {
				return "", fmt.Errorf("%w: specialist %s returned an empty reply", contractx.ErrSchemaViolation, s.spec.Name)
			}
			return text, nil
		}

		msgs = append(msgs, reply)
		for _, call := range reply.ToolCalls {
			msgs = append(msgs, schema.ToolMessage(s.runTool(ctx, call), call.ID))
		}
	}

	return "", fmt.Errorf("%w: specialist %s exceeded %d tool rounds", contractx.ErrModelInvoke, s.spec.Name, maxToolRounds)
}

// runTool executes one domain-tool call. Every failure becomes result
// text for the specialist's model; tools never abort the loop.
func (s *Specialist) runTool(ctx context.Context, call schema.ToolCall) string {
	name := strings.TrimSpace(call.Function.Name)
	if _, ok := s.toolNames[name]; !ok {
		log.Warn().
			Str("specialist", s.spec.Name).
			Str("tool", name).
			Msg("model requested a tool outside its catalog")
		return fmt.Sprintf("error: tool %q is not available", name)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("error: invalid arguments for tool %q: %v", name, err)
		}
	}

	result, err := s.exec(ctx, name, args)
	if err != nil {
		return fmt.Sprintf("error: %s: %v", name, err)
	}
	if result.Error != "" {
		return fmt.Sprintf("error: %s: %s", name, result.Error)
	}

	payload, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Sprintf("error: %s: encode result: %v", name, err)
	}
	return string(payload)
}
