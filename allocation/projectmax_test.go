package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gripp/revenue-engine/allocation"
)

// =============================================================================
// CHRONOLOGICAL DEPLETION
// =============================================================================

func TestProjectMax_ChronologicalDepletion(t *testing.T) {
	// GIVEN: Budget 20000 with 15000 used last year (5000 available),
	//        one line at rate 100, 40 hours in January and February
	// WHEN: Allocating under Project-Max
	// THEN: January fully recognized (4000), February capped at the
	//       remaining 1000 and flagged

	lines := []allocation.ProjectLine{fixedLine(1, 200, 100)}
	p := project(allocation.TypeFixedPrice, 20000, 15000, lines,
		entry(1, lineRef(1), time.January, 40, 100),
		entry(2, lineRef(1), time.February, 40, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	require.Len(t, out.Results, 2)

	jan, feb := out.Results[0], out.Results[1]
	assert.True(t, jan.RecognizedRevenue.Equal(money(4000)), "january: %v", jan.RecognizedRevenue)
	assert.False(t, jan.OverBudget)
	assert.True(t, feb.RecognizedRevenue.Equal(money(1000)), "february: %v", feb.RecognizedRevenue)
	assert.True(t, feb.OverBudget)
	assert.True(t, feb.CappedByBudget)

	assert.True(t, out.Summary.TotalRecognized.Equal(money(5000)))
	assert.True(t, out.Summary.RemainingBudget.IsZero())
	assert.False(t, out.Summary.OverBudget)
	assert.Equal(t, []allocation.LineID{1}, out.Summary.OverBudgetLineIDs)
}

func TestProjectMax_PriorYearExceedsBudget(t *testing.T) {
	// GIVEN: 25000 already consumed against a 20000 budget
	// WHEN: Allocating under Project-Max
	// THEN: Nothing is recognized and the summary shows the deficit

	lines := []allocation.ProjectLine{fixedLine(1, 200, 100)}
	p := project(allocation.TypeFixedPrice, 20000, 25000, lines,
		entry(1, lineRef(1), time.January, 40, 100),
		entry(2, lineRef(1), time.February, 40, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	for _, r := range out.Results {
		assert.True(t, r.RecognizedRevenue.IsZero(), "entry %d: %v", r.Entry.ID, r.RecognizedRevenue)
		assert.True(t, r.OverBudget)
	}
	assert.True(t, out.Summary.TotalRecognized.IsZero())
	assert.True(t, out.Summary.RemainingBudget.Equal(money(-5000)))
	assert.True(t, out.Summary.OverBudget)
}

// =============================================================================
// FALLBACK-RATE REVALUATION
// =============================================================================

func TestProjectMax_SpilloverRevaluedAtCheapestLineRate(t *testing.T) {
	// GIVEN: Line 1 at rate 100 (10h budget), line 2 at rate 50, and a
	//        project budget that covers January plus 500
	// WHEN: Line 1 writes another 10 hours in February
	// THEN: The spillover is revalued at the cheapest line rate (50),
	//       recognizing 500 instead of the nominal 1000

	lines := []allocation.ProjectLine{
		fixedLine(1, 10, 100),
		fixedLine(2, 10, 50),
	}
	p := project(allocation.TypeFixedPrice, 2000, 0, lines,
		entry(1, lineRef(1), time.January, 10, 100),
		entry(2, lineRef(2), time.January, 10, 50),
		entry(3, lineRef(1), time.February, 10, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	assertRevenue(t, out.Results[0], 1000)
	assertRevenue(t, out.Results[1], 500)

	spill := out.Results[2]
	assert.True(t, spill.RecognizedRevenue.Equal(money(500)),
		"spillover should bill 10h at the fallback rate 50, got %v", spill.RecognizedRevenue)
	assert.True(t, spill.OverBudget)
	assert.True(t, spill.CappedByBudget)
}

func TestProjectMax_PartialLineBudgetKeepsOwnRate(t *testing.T) {
	// GIVEN: A shortfall month where the entry half-fits its own line
	//        budget (5 of 10 hours at rate 60, cheapest rate also 60)
	// THEN: The fitting half keeps its own rate and the spillover half
	//       uses the fallback rate; the ledger caps the result

	lines := []allocation.ProjectLine{
		fixedLine(1, 15, 100),
		fixedLine(2, 5, 60),
	}
	p := project(allocation.TypeFixedPrice, 2000, 0, lines,
		entry(1, lineRef(1), time.January, 15, 100), // 1500, covered
		entry(2, lineRef(2), time.February, 10, 60), // 600 nominal, 300 own budget left
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	assertRevenue(t, out.Results[0], 1500)

	// own 300 + 5 spill hours × fallback 60 = 600, but the project
	// ledger only holds 500.
	got := out.Results[1]
	assert.True(t, got.RecognizedRevenue.Equal(money(500)), "got %v", got.RecognizedRevenue)
	assert.True(t, got.OverBudget)
}

func TestProjectMax_DepletedLedgerZeroesRemainingEntries(t *testing.T) {
	// GIVEN: A shortfall month whose first entry drains the ledger
	// THEN: Later entries in the documented order recognize zero

	lines := []allocation.ProjectLine{
		fixedLine(1, 10, 100),
		fixedLine(2, 10, 100),
	}
	p := project(allocation.TypeFixedPrice, 1000, 0, lines,
		entry(1, lineRef(1), time.January, 10, 100),
		entry(2, lineRef(2), time.January, 10, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	assertRevenue(t, out.Results[0], 1000)
	assertRevenue(t, out.Results[1], 0)
	assert.True(t, out.Results[1].OverBudget)
	assert.Equal(t, []allocation.LineID{1, 2}, out.Summary.OverBudgetLineIDs)
}

func TestProjectMax_SharedLedgerAcrossLines(t *testing.T) {
	// GIVEN: Two lines whose nominal totals exactly fill the project
	//        budget, one of them writing double its own line budget
	// WHEN: Allocating under Project-Max
	// THEN: Both lines recognize in full; the shared ledger does not
	//       care which line consumed it

	lines := []allocation.ProjectLine{
		fixedLine(1, 10, 100),
		fixedLine(2, 10, 100),
	}
	p := project(allocation.TypeFixedPrice, 3000, 0, lines,
		entry(1, lineRef(1), time.January, 10, 100),
		entry(2, lineRef(2), time.January, 10, 100),
		entry(3, lineRef(2), time.February, 10, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	for _, r := range out.Results {
		assert.True(t, r.RecognizedRevenue.Equal(money(1000)), "entry %d: %v", r.Entry.ID, r.RecognizedRevenue)
		assert.False(t, r.OverBudget)
	}
	assert.True(t, out.Summary.TotalRecognized.Equal(money(3000)))
	assert.True(t, out.Summary.RemainingBudget.IsZero())
}

func TestProjectMax_NoPricedLinesFallsBackToEntryRate(t *testing.T) {
	// GIVEN: A project with no lines at all, entries unassigned
	// WHEN: The budget covers only part of a month
	// THEN: Entries keep their own rate and the ledger caps them;
	//       the missing fallback rate does not zero them out

	p := project(allocation.TypeFixedPrice, 500, 0, nil,
		entry(1, nil, time.January, 10, 100),
	)

	out := mustAllocate(t, p, allocation.StrategyProjectMax)
	got := out.Results[0]
	assert.True(t, got.RecognizedRevenue.Equal(money(500)), "got %v", got.RecognizedRevenue)
	assert.True(t, got.OverBudget)
	assert.Empty(t, out.Summary.OverBudgetLineIDs, "unassigned entries attribute no line id")
}
