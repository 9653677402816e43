package tool

import (
	"strings"

	contractx "github.com/svergara/concierge/agent/contract"
)

const ToolTextReverse = "text.reverse"

// ReverseOutput is the tool result payload for text.reverse.
type ReverseOutput struct {
	Original string `json:"original"`
	Reversed string `json:"reversed"`
}

func executeTextReverse(tool string, args map[string]any) (contractx.ToolResult, error) {
	message, problem := stringArg(args, "message")
	if problem == "" && strings.TrimSpace(message) == "" {
		problem = "message is empty"
	}
	if problem != "" {
		return contractx.ToolResult{Tool: tool, Error: problem}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: ReverseOutput{
			Original: message,
			Reversed: reverseRunes(message),
		},
	}, nil
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
