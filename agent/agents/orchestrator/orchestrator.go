package orchestrator

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contentx "github.com/svergara/concierge/agent/content"
	contractx "github.com/svergara/concierge/agent/contract"
)

// FallbackMessage is the only thing a caller sees when the top-level
// model itself fails. Fault detail stays in the logs.
const FallbackMessage = "Sorry, something went wrong while processing your request. Please try again in a moment."

// maxDelegationRounds bounds the delegation loop. A run that still
// wants tools after this many rounds is treated like a top-level fault.
const maxDelegationRounds = 8

// Orchestrator drives one top-level agent whose tools are the
// registered specialists. Constructed once per process and shared
// read-only across requests.
type Orchestrator struct {
	model       einomodel.ToolCallingChatModel
	preamble    string
	specialists map[string]contractx.SpecialistTool
}

// New binds the specialists' tool specs to the top-level model.
// Specialist names must be unique; a collision would make tool-call
// routing ambiguous.
func New(chatModel einomodel.ToolCallingChatModel, preamble string, specialists ...contractx.SpecialistTool) (*Orchestrator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if len(specialists) == 0 {
		return nil, fmt.Errorf("%w: at least one specialist is required", contractx.ErrValidation)
	}

	byName := make(map[string]contractx.SpecialistTool, len(specialists))
	specs := make([]*schema.ToolInfo, 0, len(specialists))
	for _, sp := range specialists {
		info := sp.Spec()
		if info == nil || strings.TrimSpace(info.Name) == "" {
			return nil, fmt.Errorf("%w: specialist with empty tool spec", contractx.ErrValidation)
		}
		if _, exists := byName[info.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate specialist name %q", contractx.ErrValidation, info.Name)
		}
		byName[info.Name] = sp
		specs = append(specs, info)
	}

	bound, err := chatModel.WithTools(specs)
	if err != nil {
		return nil, fmt.Errorf("%w: bind specialist tools: %v", contractx.ErrModelInvoke, err)
	}

	return &Orchestrator{
		model:       bound,
		preamble:    preamble,
		specialists: byName,
	}, nil
}

// Chat answers one user turn. It assembles the normalized message from
// prompt and attachments behind the prior history, then runs delegation
// rounds until the model answers without tool calls. Chat never fails:
// a top-level model fault or round-cap exhaustion yields the fixed
// fallback message. History is read-only here; persisting the new turns
// is the transport's job after the response exists.
func (o *Orchestrator) Chat(ctx context.Context, prompt string, history []contractx.ConversationTurn, attachments []contractx.Attachment) string {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(o.preamble))
	msgs = append(msgs, contentx.NormalizeHistory(history)...)
	msgs = append(msgs, contentx.Render(contentx.BuildMessage(prompt, attachments)))

	for round := 0; round < maxDelegationRounds; round++ {
		reply, err := o.model.Generate(ctx, msgs)
		if err != nil {
			log.Error().Err(err).Int("round", round).Msg("top-level model call failed")
			return FallbackMessage
		}
		if reply == nil {
			log.Error().Int("round", round).Msg("top-level model returned no message")
			return FallbackMessage
		}

		if len(reply.ToolCalls) == 0 {
			answer := strings.TrimSpace(reply.Content)
			if answer == "" {
				log.Error().Int("round", round).Msg("top-level model returned an empty answer")
				return FallbackMessage
			}
			return answer
		}

		msgs = append(msgs, reply)
		for _, outcome := range o.dispatch(ctx, reply.ToolCalls) {
			msgs = append(msgs, schema.ToolMessage(outcome.Text(), outcome.CallID))
		}
	}

	log.Error().Int("rounds", maxDelegationRounds).Msg("delegation did not converge")
	return FallbackMessage
}

// dispatch runs every tool call of one round. Calls target distinct
// specialists with disjoint arguments, so they run concurrently; each
// outcome lands at its call's index, which keeps the call-id pairing
// independent of completion order.
func (o *Orchestrator) dispatch(ctx context.Context, calls []schema.ToolCall) []contractx.ToolOutcome {
	outcomes := make([]contractx.ToolOutcome, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			outcomes[i] = o.invokeSpecialist(gctx, call)
			return nil
		})
	}
	// Specialist faults are data, never group errors.
	_ = g.Wait()

	return outcomes
}

func (o *Orchestrator) invokeSpecialist(ctx context.Context, call schema.ToolCall) contractx.ToolOutcome {
	name := strings.TrimSpace(call.Function.Name)
	outcome := contractx.ToolOutcome{CallID: call.ID, Tool: name}

	sp, ok := o.specialists[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("model requested an unregistered specialist")
		outcome.Err = fmt.Sprintf("unknown specialist %q", name)
		return outcome
	}

	text, err := sp.Invoke(ctx, call.Function.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("specialist", name).Msg("specialist invocation failed")
		outcome.Err = err.Error()
		return outcome
	}

	outcome.Content = text
	return outcome
}
