/*
classify.go - Invoice-basis classifier and input sanitation

PURPOSE:
  Resolves each entry's billing class exactly once, before any
  allocation math runs. Everything downstream consumes the resolved
  InvoiceBasis; nothing re-matches raw classification values.

CONSERVATIVE DEFAULTS:
  An unknown or missing basis classifies as fixed-price. That is the
  costliest assumption: the entry stays subject to budget capping
  instead of silently earning uncapped revenue.

SANITATION:
  Negative hours or rates on an entry are zeroed here, at the boundary.
  The entry then contributes no revenue and no budget pressure, and the
  allocation math never sees invalid values.
*/
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classify returns the billing class of a line. A nil line or an
// unknown basis classifies as fixed-price.
func Classify(line *ProjectLine) InvoiceBasis {
	if line == nil {
		return BasisFixedPrice
	}
	switch line.InvoiceBasis {
	case BasisHourlyRate, BasisSubscription, BasisNonBillable:
		return line.InvoiceBasis
	default:
		return BasisFixedPrice
	}
}

// sanitizeEntry zeroes negative hours and rates so invalid mirror data
// degrades to "no revenue, no budget pressure" instead of propagating.
func sanitizeEntry(e TimeEntry) TimeEntry {
	if e.Hours.IsNegative() {
		e.Hours = decimal.Zero
	}
	if e.HourlyRate.IsNegative() {
		e.HourlyRate = ZeroMoney()
	}
	return e
}

// workEntry is an entry prepared for allocation: sanitized, classified,
// with its resolved line (nil when unassigned or dangling) and its
// position in the flattened output.
type workEntry struct {
	idx     int
	entry   TimeEntry
	line    *ProjectLine
	basis   InvoiceBasis
	nominal Money
}

// flatten walks the month buckets in order, sanitizes and classifies
// every entry, and records its output position. An entry referencing a
// line id that does not exist on the project is treated as unassigned.
func flatten(p *Project) []workEntry {
	entries := make([]workEntry, 0, p.EntryCount())
	for m := 0; m < MonthCount; m++ {
		for _, raw := range p.Months[m] {
			e := sanitizeEntry(raw)
			e.Month = time.Month(m + 1) // trust the bucket over the field
			var line *ProjectLine
			if e.LineID != nil {
				line = p.Line(*e.LineID)
			}
			entries = append(entries, workEntry{
				idx:     len(entries),
				entry:   e,
				line:    line,
				basis:   Classify(line),
				nominal: e.Nominal(),
			})
		}
	}
	return entries
}
