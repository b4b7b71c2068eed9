/*
linemax.go - Per-line budget strategy

PURPOSE:
  Every fixed-price line gets its own ledger funded by that line's
  budgeted hours × hourly rate. Entries on a line are charged against
  it chronologically; the entry that first exceeds the remainder is
  split, and everything after it on that line recognizes zero. Lines
  never compete: one line exhausting its budget leaves the others
  untouched, and the project-wide budget is never consulted here (a
  budget already exhausted by prior years is caught upstream in
  engine.go before any strategy runs). A line can
  therefore legally exceed the project's total budget in this
  strategy's accounting; the aggregator still reports remaining budget
  against the project total, which is the intended tension between the
  two views.

UNASSIGNED ENTRIES:
  Entries with no line form their own partition and always recognize
  nominal value; there is no line budget to constrain them.
*/
package allocation

import "sort"

type lineMax struct{}

func (lineMax) allocate(p *Project, entries []workEntry, results []Result) {
	// Partition up front: one bucket per line, unassigned (including
	// dangling line references) as its own first-class partition.
	byLine := make(map[LineID][]workEntry, len(p.Lines))
	var unassigned []workEntry
	for _, we := range entries {
		if we.line == nil {
			unassigned = append(unassigned, we)
			continue
		}
		byLine[we.line.ID] = append(byLine[we.line.ID], we)
	}

	for i := range p.Lines {
		line := p.Lines[i]
		group := byLine[line.ID]
		if len(group) == 0 {
			continue
		}
		switch Classify(&p.Lines[i]) {
		case BasisHourlyRate, BasisSubscription:
			for _, we := range group {
				results[we.idx].RecognizedRevenue = we.nominal
			}
		case BasisNonBillable:
			// stays zero
		default:
			chargeLine(line, group, results)
		}
	}

	for _, we := range unassigned {
		results[we.idx].RecognizedRevenue = we.nominal
	}
}

// chargeLine depletes one fixed-price line's ledger chronologically.
func chargeLine(line ProjectLine, group []workEntry, results []Result) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := group[i], group[j]
		if a.entry.Month != b.entry.Month {
			return a.entry.Month < b.entry.Month
		}
		return a.entry.ID < b.entry.ID
	})

	ledger := NewLineLedger(line)
	for _, we := range group {
		res := &results[we.idx]
		granted := ledger.Charge(we.nominal)
		res.RecognizedRevenue = granted
		if granted.LessThan(we.nominal) {
			res.LineOverBudget = true
			res.OverBudget = true
			res.CappedByBudget = true
		}
	}
}
