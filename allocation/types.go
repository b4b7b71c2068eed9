/*
Package allocation implements the revenue allocation engine.

PURPOSE:
  Given a project's yearly budget, the budget already consumed in prior
  years, and the year's time entries bucketed by month, decide how much
  of each entry's nominal value (hours × hourly rate) may be recognized
  as revenue this year. Fixed-price projects can never recognize more
  than their remaining budget; the engine depletes that budget
  chronologically across months and across competing project lines.

KEY CONCEPTS IN THIS FILE (types.go):
  - InvoiceBasis: A line's billing class (fixed-price, hourly, ...)
  - ProjectType:  The project-level billing class (drives the gate)
  - ProjectLine:  A budget/rate bucket time entries are attributed to
  - TimeEntry:    The unit the allocator consumes
  - Project:      The full input snapshot (lines + twelve month buckets)
  - Result:       One annotated entry with its recognized revenue
  - Summary:      Project-level totals produced by the aggregator

DESIGN PRINCIPLES:
  1. Purity: One allocation call reads its input snapshot and returns a
     complete output. Nothing is shared or mutated across calls.
  2. Precision: Uses decimal.Decimal for all money and hour math.
  3. Closed classification: magic invoice-basis values are resolved once
     by the classifier into InvoiceBasis; nothing downstream re-matches
     raw identifiers.

USAGE:
  out, err := allocation.Allocate(project, allocation.StrategyProjectMax)
  for _, r := range out.Results {
      fmt.Println(r.Entry.ID, r.RecognizedRevenue)
  }

SEE ALSO:
  - classify.go:   Invoice-basis classifier and input sanitation
  - ledger.go:     The budget ledger (the engine's only mutable state)
  - engine.go:     Project-type gate and strategy dispatch
  - projectmax.go: Shared project-wide budget strategy
  - linemax.go:    Per-line budget strategy
  - aggregate.go:  Folds annotated entries into a Summary
*/
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BILLING CLASSIFICATION
// =============================================================================

// InvoiceBasis is the billing class of a project line.
type InvoiceBasis string

const (
	BasisFixedPrice   InvoiceBasis = "fixed_price"
	BasisHourlyRate   InvoiceBasis = "hourly_rate"
	BasisSubscription InvoiceBasis = "subscription"
	BasisNonBillable  InvoiceBasis = "non_billable"
)

// ProjectType is the project-level billing class. Only fixed-price
// projects are subject to budget capping; see the gate in engine.go.
type ProjectType string

const (
	TypeFixedPrice ProjectType = "fixed_price"
	TypeHourlyRate ProjectType = "hourly_rate"
	TypeInternal   ProjectType = "internal"
	TypeContract   ProjectType = "contract"
	TypeQuote      ProjectType = "quote"
)

// =============================================================================
// INPUT MODEL
// =============================================================================

// LineID identifies a project line within its project.
type LineID int64

// ProjectLine is a budget/rate bucket within a project.
type ProjectLine struct {
	ID            LineID
	Description   string
	BudgetedHours decimal.Decimal
	HoursWritten  decimal.Decimal // informational, not used by the allocator
	HourlyRate    Money
	InvoiceBasis  InvoiceBasis
}

// BudgetValue is the line's own budget: budgeted hours × hourly rate.
// Negative inputs floor at zero.
func (l ProjectLine) BudgetValue() Money {
	if l.BudgetedHours.IsNegative() || l.HourlyRate.IsNegative() {
		return ZeroMoney()
	}
	return l.HourlyRate.MulDecimal(l.BudgetedHours)
}

// TimeEntry is the unit the allocator consumes. LineID is nil for
// entries not attributed to any project line.
type TimeEntry struct {
	ID         int64
	ProjectID  int64
	LineID     *LineID
	Month      time.Month
	Hours      decimal.Decimal
	HourlyRate Money

	// Pass-through identification; the engine does not interpret these.
	EmployeeID  int64
	Employee    string
	Description string
}

// Nominal is the entry's uncapped value: hours × hourly rate.
func (e TimeEntry) Nominal() Money {
	return e.HourlyRate.MulDecimal(e.Hours)
}

// MonthCount is the number of month buckets in a project year.
const MonthCount = 12

// Project is the input snapshot for one allocation call.
//
// Months holds the year's time entries bucketed by month:
// Months[0] is January, Months[11] is December. Bucket order is the
// entry order preserved in the output.
type Project struct {
	ID                int64
	Name              string
	Type              ProjectType
	TotalBudget       Money
	PriorYearConsumed Money
	Lines             []ProjectLine
	Months            [MonthCount][]TimeEntry
}

// Line returns the line with the given id, or nil.
func (p *Project) Line(id LineID) *ProjectLine {
	for i := range p.Lines {
		if p.Lines[i].ID == id {
			return &p.Lines[i]
		}
	}
	return nil
}

// EntryCount returns the total number of time entries across all months.
func (p *Project) EntryCount() int {
	n := 0
	for _, bucket := range p.Months {
		n += len(bucket)
	}
	return n
}

// AddEntry buckets an entry under its month. Entries with a month
// outside 1..12 are dropped; the mirror never produces them.
func (p *Project) AddEntry(e TimeEntry) {
	if e.Month < time.January || e.Month > time.December {
		return
	}
	p.Months[e.Month-1] = append(p.Months[e.Month-1], e)
}

// =============================================================================
// OUTPUT MODEL
// =============================================================================

// Result is one input entry annotated with its recognized revenue.
type Result struct {
	Entry TimeEntry
	Basis InvoiceBasis

	// RecognizedRevenue is in [0, Entry.Nominal()].
	RecognizedRevenue Money

	// OverBudget: a budget ran out on this entry's allocation path.
	// Under the shared ledger this flags every entry of a shortfall
	// month, including the ones that still recognized in full.
	OverBudget bool

	// LineOverBudget: specifically the entry's own line exhausted its
	// line-level budget (Line-Max).
	LineOverBudget bool

	// CappedByBudget marks budget pressure as the cause, as opposed to
	// classification (non-billable entries recognize zero uncapped).
	CappedByBudget bool
}

// Summary holds project-level totals over one allocation output.
type Summary struct {
	ProjectID       int64
	Strategy        Strategy
	TotalRecognized Money

	// RemainingBudget = total budget − prior-year consumption − total
	// recognized. Measured against the project's contracted budget
	// regardless of strategy, so it may be negative under Line-Max even
	// when no single line overran.
	RemainingBudget Money

	OverBudget        bool
	OverBudgetLineIDs []LineID
}

// Output is the complete result of one allocation call: one Result per
// input entry (month order, bucket order preserved) plus one Summary.
type Output struct {
	Results []Result
	Summary Summary
}
