package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/svergara/concierge/agent/contract"
	specialistx "github.com/svergara/concierge/agent/agents/specialist"
	toolx "github.com/svergara/concierge/agent/tool"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	seen      [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.seen = append(f.seen, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

type fakeSpecialist struct {
	name   string
	invoke func(ctx context.Context, argsJSON string) (string, error)
}

func (f *fakeSpecialist) Spec() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: f.name,
		Desc: "fake specialist " + f.name,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"message": {Type: schema.String, Desc: "message", Required: true},
		}),
	}
}

func (f *fakeSpecialist) Invoke(ctx context.Context, argsJSON string) (string, error) {
	return f.invoke(ctx, argsJSON)
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func testCatalog(t *testing.T) *toolx.Catalog {
	t.Helper()

	geocoder, err := toolx.NewGeocoder(toolx.GeocoderConfig{BaseURL: "http://geocoder.invalid"})
	if err != nil {
		t.Fatalf("NewGeocoder() error = %v", err)
	}
	return toolx.NewCatalog(geocoder)
}

func TestChatAddressDelegation(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					toolCall("call_1", "address_specialist",
						`{"customer_id":"C-7","new_address":"Gran Via 10, Madrid","reason":"moved"}`),
				},
			},
			{Role: schema.Assistant, Content: "Done: your delivery address is now Gran Via 10, Madrid."},
		},
	}

	addressModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "Address change recorded for customer C-7."},
		},
	}
	address, err := specialistx.NewAddress(addressModel, "address prompt", testCatalog(t))
	if err != nil {
		t.Fatalf("NewAddress() error = %v", err)
	}

	orch, err := New(topModel, "router prompt", address)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer := orch.Chat(context.Background(), "I need to change my delivery address", nil, nil)
	if !strings.Contains(answer, "Gran Via 10") {
		t.Fatalf("unexpected answer: %q", answer)
	}

	// Round 2 input must pair the specialist's text with its call id.
	if len(topModel.seen) != 2 {
		t.Fatalf("expected 2 delegation rounds, got %d", len(topModel.seen))
	}
	second := topModel.seen[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call_1" {
		t.Fatalf("expected tool message for call_1, got %#v", last)
	}
	if !strings.Contains(last.Content, "Address change recorded") {
		t.Fatalf("tool message missing specialist output: %q", last.Content)
	}

	// The specialist's own model must have received the interpolated args.
	prompt := addressModel.seen[0][1].Content
	for _, want := range []string{"C-7", "Gran Via 10, Madrid", "moved"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("specialist prompt %q missing %q", prompt, want)
		}
	}
}

func TestChatEchoPingScenario(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					toolCall("call_1", "echo_specialist", `{"message":"ping"}`),
				},
			},
			{Role: schema.Assistant, Content: "System check passed: pong."},
		},
	}

	echoModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "pong"},
		},
	}
	echo, err := specialistx.NewEcho(echoModel, "echo prompt", testCatalog(t))
	if err != nil {
		t.Fatalf("NewEcho() error = %v", err)
	}

	orch, err := New(topModel, "router prompt", echo)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer := orch.Chat(context.Background(), "ping", nil, nil)
	if answer != "System check passed: pong." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if len(topModel.seen) != 2 {
		t.Fatalf("expected exactly one delegation round before the answer, got %d model calls", len(topModel.seen))
	}
}

func TestChatSpecialistFaultCompletesRound(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					toolCall("call_1", "broken_specialist", `{"message":"x"}`),
				},
			},
			{Role: schema.Assistant, Content: "I could not reach that service, sorry."},
		},
	}

	broken := &fakeSpecialist{
		name: "broken_specialist",
		invoke: func(context.Context, string) (string, error) {
			return "", errors.New("model invoke failed: upstream 500")
		},
	}

	orch, err := New(topModel, "router prompt", broken)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer := orch.Chat(context.Background(), "do the thing", nil, nil)
	if answer != "I could not reach that service, sorry." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	second := topModel.seen[1]
	last := second[len(second)-1]
	if last.ToolCallID != "call_1" {
		t.Fatalf("expected tool result for call_1, got %#v", last)
	}
	if !strings.HasPrefix(last.Content, "error:") || len(last.Content) <= len("error:") {
		t.Fatalf("expected non-empty error text, got %q", last.Content)
	}
}

func TestChatUnknownSpecialistBecomesErrorText(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					toolCall("call_1", "refund_specialist", `{}`),
				},
			},
			{Role: schema.Assistant, Content: "I cannot help with refunds yet."},
		},
	}

	orch, err := New(topModel, "router prompt", &fakeSpecialist{
		name:   "echo_specialist",
		invoke: func(context.Context, string) (string, error) { return "pong", nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer := orch.Chat(context.Background(), "refund me", nil, nil)
	if answer == FallbackMessage {
		t.Fatal("unknown specialist must not trigger the fallback")
	}

	second := topModel.seen[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "unknown specialist") {
		t.Fatalf("expected unknown-specialist error text, got %q", last.Content)
	}
}

func TestChatTopLevelFaultReturnsFallback(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{err: errors.New("401 unauthorized")}

	orch, err := New(topModel, "router prompt", &fakeSpecialist{
		name:   "echo_specialist",
		invoke: func(context.Context, string) (string, error) { return "pong", nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	answer := orch.Chat(context.Background(), "hello", nil, nil)
	if answer != FallbackMessage {
		t.Fatalf("expected fallback message, got %q", answer)
	}
}

func TestChatConcurrentCallsPairByID(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					toolCall("call_slow", "slow_specialist", `{"message":"a"}`),
					toolCall("call_fast", "fast_specialist", `{"message":"b"}`),
				},
			},
			{Role: schema.Assistant, Content: "combined"},
		},
	}

	slow := &fakeSpecialist{
		name: "slow_specialist",
		invoke: func(ctx context.Context, _ string) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return "slow result", nil
		},
	}
	fast := &fakeSpecialist{
		name: "fast_specialist",
		invoke: func(context.Context, string) (string, error) {
			return "fast result", nil
		},
	}

	orch, err := New(topModel, "router prompt", slow, fast)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if answer := orch.Chat(context.Background(), "both please", nil, nil); answer != "combined" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	second := topModel.seen[1]
	results := map[string]string{}
	for _, msg := range second {
		if msg.Role == schema.Tool {
			results[msg.ToolCallID] = msg.Content
		}
	}
	if results["call_slow"] != "slow result" {
		t.Fatalf("call_slow paired with %q", results["call_slow"])
	}
	if results["call_fast"] != "fast result" {
		t.Fatalf("call_fast paired with %q", results["call_fast"])
	}
}

func TestChatIncludesHistoryAndSystemContext(t *testing.T) {
	t.Parallel()

	topModel := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "answer"},
		},
	}

	orch, err := New(topModel, "router prompt", &fakeSpecialist{
		name:   "echo_specialist",
		invoke: func(context.Context, string) (string, error) { return "pong", nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	history := []contractx.ConversationTurn{
		{Role: contractx.RoleUser, Content: "earlier question"},
		{Role: contractx.RoleAssistant, Content: "earlier answer"},
		{Role: contractx.RoleSystemContext, Content: "order #19 delayed"},
	}
	orch.Chat(context.Background(), "and now?", history, nil)

	input := topModel.seen[0]
	if input[0].Role != schema.System || input[0].Content != "router prompt" {
		t.Fatalf("first message must be the preamble, got %#v", input[0])
	}
	if input[1].Content != "earlier question" || input[2].Content != "earlier answer" {
		t.Fatalf("history order not preserved: %#v", input[1:3])
	}
	if !strings.HasPrefix(input[3].Content, "[System Context]: ") {
		t.Fatalf("system context turn missing marker: %q", input[3].Content)
	}
	if input[4].Content != "and now?" {
		t.Fatalf("new prompt must come last, got %q", input[4].Content)
	}
}

func TestNewRejectsDuplicateSpecialistNames(t *testing.T) {
	t.Parallel()

	dup := func() *fakeSpecialist {
		return &fakeSpecialist{
			name:   "echo_specialist",
			invoke: func(context.Context, string) (string, error) { return "", nil },
		}
	}

	_, err := New(&fakeToolCallingModel{}, "router prompt", dup(), dup())
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
