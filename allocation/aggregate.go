/*
aggregate.go - Revenue aggregator

PURPOSE:
  Folds the allocator's annotated entries into one project-level
  Summary. Remaining budget is always measured against the project's
  contracted budget (total − prior-year consumption − recognized),
  whichever strategy produced the entries: under Line-Max the summary
  can report a negative remainder even though no single line overran
  its own ledger, and that is the number the dashboard wants.
*/
package allocation

import "sort"

// Aggregate sums annotated entries into a Summary.
//
// Over-budget line attribution follows the strategy that produced the
// results: Line-Max flags the line whose own ledger was exhausted,
// Project-Max flags every line touched by a shortfall month (which is
// approximate for unassigned entries, so those contribute no id).
func Aggregate(p *Project, strategy Strategy, results []Result) Summary {
	total := ZeroMoney()
	seen := make(map[LineID]bool)
	var overIDs []LineID

	for _, r := range results {
		total = total.Add(r.RecognizedRevenue)

		flagged := r.OverBudget
		if strategy == StrategyLineMax {
			flagged = r.LineOverBudget
		}
		if !flagged || r.Entry.LineID == nil {
			continue
		}
		if id := *r.Entry.LineID; !seen[id] {
			seen[id] = true
			overIDs = append(overIDs, id)
		}
	}

	sort.Slice(overIDs, func(i, j int) bool { return overIDs[i] < overIDs[j] })

	remaining := p.TotalBudget.Sub(p.PriorYearConsumed).Sub(total)
	return Summary{
		ProjectID:         p.ID,
		Strategy:          strategy,
		TotalRecognized:   total,
		RemainingBudget:   remaining,
		OverBudget:        remaining.IsNegative(),
		OverBudgetLineIDs: overIDs,
	}
}
