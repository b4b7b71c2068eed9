/*
engine.go - Project-type gate and strategy dispatch

PURPOSE:
  The single entry point of the engine. Shared preconditions (input
  sanitation, classification, the project-type gate) run here exactly
  once per call, so the two strategies differ only in how they deplete
  budget, never in how entries are classified or gated.

THE GATE:
  Evaluated once per project, before any ledger exists:
    Internal                    → every entry recognizes zero
    HourlyRate, Contract, Quote → every entry recognizes nominal value
    FixedPrice                  → the selected strategy runs
  Non-billable lines recognize zero in every branch; the classifier
  outranks the gate. Quote projects are never budget-capped.

  A fixed-price project whose prior years already consumed the whole
  budget short-circuits both strategies: its fixed-price entries
  recognize zero before any ledger is built.

OUTPUT ORDER:
  One Result per input entry, month order then bucket order, exactly
  the flattened input order.
*/
package allocation

import "fmt"

// Strategy selects how a fixed-price project's budget is depleted.
// The caller chooses; the engine has no default.
type Strategy string

const (
	// StrategyProjectMax depletes one shared ledger for the whole
	// project, with fallback-rate revaluation on shortfall months.
	StrategyProjectMax Strategy = "project-max"

	// StrategyLineMax gives every fixed-price line its own ledger
	// funded by that line's budgeted hours × rate.
	StrategyLineMax Strategy = "line-max"
)

// ParseStrategy validates a caller-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyProjectMax, StrategyLineMax:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// allocator is the strategy contract. It only ever runs for
// fixed-price projects, after the gate, over prepared entries, and
// writes into the pre-sized results slice at each entry's idx.
type allocator interface {
	allocate(p *Project, entries []workEntry, results []Result)
}

// Allocate runs one full allocation for a project under the selected
// strategy. It is pure: identical input yields identical output, and
// nothing outside the returned Output is mutated.
func Allocate(p *Project, strategy Strategy) (*Output, error) {
	if p == nil {
		return nil, ErrNilProject
	}

	var impl allocator
	switch strategy {
	case StrategyProjectMax:
		impl = projectMax{}
	case StrategyLineMax:
		impl = lineMax{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	entries := flatten(p)
	results := make([]Result, len(entries))
	for _, we := range entries {
		results[we.idx] = Result{
			Entry:             we.entry,
			Basis:             we.basis,
			RecognizedRevenue: ZeroMoney(),
		}
	}

	switch p.Type {
	case TypeInternal:
		// Internal work never generates revenue. Ledger untouched.

	case TypeHourlyRate, TypeContract, TypeQuote:
		// Uncapped project types bill every entry at nominal value.
		// Non-billable lines still recognize zero.
		for _, we := range entries {
			if we.basis == BasisNonBillable {
				continue
			}
			results[we.idx].RecognizedRevenue = we.nominal
		}

	default:
		// Fixed-price, and conservatively any unknown project type:
		// subject to budget capping under the selected strategy.
		if p.TotalBudget.Sub(p.PriorYearConsumed).FloorZero().IsZero() {
			allocateExhausted(entries, results)
		} else {
			impl.allocate(p, entries, results)
		}
	}

	return &Output{
		Results: results,
		Summary: Aggregate(p, strategy, results),
	}, nil
}

// allocateExhausted handles a project whose prior years already
// consumed the whole budget. This is a shared precondition, not a
// strategy concern: no ledger opens, so every fixed-price entry
// recognizes zero whichever strategy was selected, while uncapped
// classes still bill. LineOverBudget stays false because no individual
// line's ledger was the cause.
func allocateExhausted(entries []workEntry, results []Result) {
	for _, we := range entries {
		switch we.basis {
		case BasisHourlyRate, BasisSubscription:
			results[we.idx].RecognizedRevenue = we.nominal
		case BasisNonBillable:
			// stays zero, unflagged
		default:
			results[we.idx].OverBudget = true
			results[we.idx].CappedByBudget = true
		}
	}
}
