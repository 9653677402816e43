package tool

import (
	"fmt"
	"strings"

	contractx "github.com/svergara/concierge/agent/contract"
)

const ToolCostLookup = "cost_db.lookup"

// CostEntry holds catalog pricing for one item.
type CostEntry struct {
	Item            string  `json:"item"`
	ReplacementCost float64 `json:"replacement_cost"`
	RepairCost      float64 `json:"repair_cost"`
	Currency        string  `json:"currency"`
}

// costCatalog is a fixed in-process table. A production deployment
// would back this with the billing service; the damage specialist only
// needs ballpark figures to recommend repair versus replacement.
var costCatalog = []CostEntry{
	{Item: "coffee machine", ReplacementCost: 89.99, RepairCost: 35.00, Currency: "EUR"},
	{Item: "espresso machine", ReplacementCost: 249.00, RepairCost: 80.00, Currency: "EUR"},
	{Item: "desk lamp", ReplacementCost: 24.50, RepairCost: 12.00, Currency: "EUR"},
	{Item: "office chair", ReplacementCost: 189.00, RepairCost: 45.00, Currency: "EUR"},
	{Item: "standing desk", ReplacementCost: 399.00, RepairCost: 95.00, Currency: "EUR"},
	{Item: "monitor", ReplacementCost: 219.00, RepairCost: 60.00, Currency: "EUR"},
	{Item: "keyboard", ReplacementCost: 49.90, RepairCost: 15.00, Currency: "EUR"},
	{Item: "headphones", ReplacementCost: 79.00, RepairCost: 25.00, Currency: "EUR"},
	{Item: "toaster", ReplacementCost: 32.00, RepairCost: 14.00, Currency: "EUR"},
	{Item: "vacuum cleaner", ReplacementCost: 159.00, RepairCost: 55.00, Currency: "EUR"},
}

func executeCostLookup(tool string, args map[string]any) (contractx.ToolResult, error) {
	itemName, problem := stringArg(args, "item_name")
	if problem == "" && strings.TrimSpace(itemName) == "" {
		problem = "item_name is empty"
	}
	if problem != "" {
		return contractx.ToolResult{Tool: tool, Error: problem}, nil
	}

	entry, ok := lookupCost(itemName)
	if !ok {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("item %q is not in the cost catalog", itemName),
		}, nil
	}

	return contractx.ToolResult{Tool: tool, Result: entry}, nil
}

// lookupCost matches case-insensitively and tolerates the model sending
// a longer phrase than the catalog key ("my broken coffee machine").
func lookupCost(itemName string) (CostEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(itemName))
	for _, entry := range costCatalog {
		if entry.Item == needle || strings.Contains(needle, entry.Item) {
			return entry, true
		}
	}
	return CostEntry{}, false
}
