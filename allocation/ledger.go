/*
ledger.go - Budget ledger

PURPOSE:
  Tracks the budget available to one allocation run and the amount
  consumed so far. This is the only mutable state in the engine, and it
  is scoped to a single call: Project-Max builds one ledger for the
  whole project, Line-Max builds one per fixed-price line.

INVARIANTS:
  - Available budget floors at zero (a prior year may already have
    consumed more than the total budget).
  - Charge never drives consumption above the available budget; it
    returns the amount actually charged so callers can split an entry
    at the point of exhaustion.
*/
package allocation

// Ledger tracks available budget and running consumption for one
// allocation run. Not safe for concurrent use; it never needs to be.
type Ledger struct {
	available Money
	consumed  Money
}

// NewLedger builds a project-wide ledger:
// available = max(0, totalBudget − priorYearConsumed).
func NewLedger(totalBudget, priorYearConsumed Money) *Ledger {
	return &Ledger{
		available: totalBudget.Sub(priorYearConsumed).FloorZero(),
		consumed:  ZeroMoney(),
	}
}

// NewLineLedger builds a ledger for a single line, funded by the
// line's own budget (budgeted hours × hourly rate).
func NewLineLedger(line ProjectLine) *Ledger {
	return &Ledger{
		available: line.BudgetValue(),
		consumed:  ZeroMoney(),
	}
}

// Remaining returns the budget still available to this run.
func (l *Ledger) Remaining() Money {
	return l.available.Sub(l.consumed)
}

// Exhausted reports whether nothing remains to charge.
func (l *Ledger) Exhausted() bool {
	return !l.Remaining().IsPositive()
}

// Charge debits up to amount and returns the amount actually charged,
// clamped to [0, Remaining()].
func (l *Ledger) Charge(amount Money) Money {
	granted := amount.FloorZero().Min(l.Remaining())
	l.consumed = l.consumed.Add(granted)
	return granted
}
