/*
projectmax.go - Shared project-budget strategy

PURPOSE:
  One ledger for the whole project. Any fixed-price entry may consume
  remaining project budget regardless of which line it belongs to.
  Months are walked 1→12; a month whose fixed-price total fits within
  the remaining budget is recognized in full. On the first month that
  does not fit, excess hours are not denied outright: the portion of an
  entry fitting its own line's remaining budget keeps the entry's own
  rate, and spillover hours are revalued at the lowest hourly rate
  found on any line of the project (the fallback rate), subject to
  whatever the project ledger still holds. Once the ledger is depleted,
  further entries recognize zero.

DETERMINISM:
  Within a month, entries are processed by ascending line id with
  unassigned entries last, then by entry id. Which entries receive
  fallback-rate versus zero revenue is therefore reproducible when the
  remaining budget covers only part of a month.

NOTE:
  The fallback-rate revaluation mirrors the dashboard's historical
  behavior and is asserted by the scenario fixtures. Whether spilling
  onto the cheapest project rate is the intended business rule is an
  open product question; see DESIGN.md.
*/
package allocation

import "sort"

type projectMax struct{}

func (projectMax) allocate(p *Project, entries []workEntry, results []Result) {
	ledger := NewLedger(p.TotalBudget, p.PriorYearConsumed)

	// Per-line remaining budget, used only to apportion shortfall
	// months between an entry's own rate and the fallback rate.
	lineRemaining := make(map[LineID]Money, len(p.Lines))
	for i := range p.Lines {
		if Classify(&p.Lines[i]) == BasisFixedPrice {
			lineRemaining[p.Lines[i].ID] = p.Lines[i].BudgetValue()
		}
	}

	fallback, hasFallback := fallbackRate(p)

	// Classification-driven rules bypass the ledger entirely. The rest
	// is grouped per month for chronological depletion.
	var months [MonthCount][]workEntry
	for _, we := range entries {
		switch we.basis {
		case BasisHourlyRate, BasisSubscription:
			results[we.idx].RecognizedRevenue = we.nominal
		case BasisNonBillable:
			// stays zero
		default:
			months[we.entry.Month-1] = append(months[we.entry.Month-1], we)
		}
	}

	for m := 0; m < MonthCount; m++ {
		fixed := months[m]
		if len(fixed) == 0 {
			continue
		}
		sortByLine(fixed)

		monthTotal := ZeroMoney()
		for _, we := range fixed {
			monthTotal = monthTotal.Add(we.nominal)
		}

		// Fully covered month: every entry recognizes nominal value.
		if ledger.Remaining().GreaterThanOrEqual(monthTotal) {
			for _, we := range fixed {
				ledger.Charge(we.nominal)
				results[we.idx].RecognizedRevenue = we.nominal
				debitLine(lineRemaining, we, we.nominal)
			}
			continue
		}

		// Shortfall month: apportion between own rate and fallback
		// rate, capped by the project ledger.
		for _, we := range fixed {
			res := &results[we.idx]
			res.OverBudget = true
			res.CappedByBudget = true
			if ledger.Exhausted() {
				continue // recognizes zero
			}

			own := ZeroMoney()
			if we.line != nil {
				own = we.nominal.Min(lineRemaining[we.line.ID])
			}

			desired := own
			if own.LessThan(we.nominal) && we.entry.HourlyRate.IsPositive() {
				rate := we.entry.HourlyRate
				if hasFallback {
					rate = fallback
				}
				spillHours := we.entry.Hours.Sub(own.Value.Div(we.entry.HourlyRate.Value))
				desired = own.Add(rate.MulDecimal(spillHours))
			}
			// Revaluation never grants more than nominal: an unassigned
			// entry may be cheaper than every line on the project.
			desired = desired.Min(we.nominal)

			granted := ledger.Charge(desired)
			res.RecognizedRevenue = granted
			debitLine(lineRemaining, we, granted.Min(own))
		}
	}
}

// fallbackRate returns the lowest positive hourly rate present on any
// line of the project. ok is false when no line carries a positive
// rate; the caller then keeps the entry's own rate.
func fallbackRate(p *Project) (rate Money, ok bool) {
	for i := range p.Lines {
		r := p.Lines[i].HourlyRate
		if !r.IsPositive() {
			continue
		}
		if !ok || r.LessThan(rate) {
			rate, ok = r, true
		}
	}
	return rate, ok
}

// debitLine reduces an entry's own line budget, flooring at zero.
func debitLine(lineRemaining map[LineID]Money, we workEntry, amount Money) {
	if we.line == nil {
		return
	}
	if rem, tracked := lineRemaining[we.line.ID]; tracked {
		lineRemaining[we.line.ID] = rem.Sub(amount).FloorZero()
	}
}

// sortByLine orders a month's fixed-price entries: assigned lines by
// ascending id, unassigned last, then by entry id.
func sortByLine(fixed []workEntry) {
	sort.SliceStable(fixed, func(i, j int) bool {
		a, b := fixed[i], fixed[j]
		switch {
		case a.line == nil && b.line == nil:
			return a.entry.ID < b.entry.ID
		case a.line == nil:
			return false
		case b.line == nil:
			return true
		case a.line.ID != b.line.ID:
			return a.line.ID < b.line.ID
		default:
			return a.entry.ID < b.entry.ID
		}
	})
}
