/*
scenarios.go - Demo dataset loaders

PURPOSE:
  Populates the mirror with small, hand-built projects that demonstrate
  specific allocation behaviors, for demos and for poking at the API
  without CRM credentials. Loading a scenario resets the mirror first.

AVAILABLE SCENARIOS:
  budget-carryover:    Prior-year consumption leaves a partial budget
  budget-exhausted:    Prior years already consumed the whole budget
  internal-project:    Internal work recognizes nothing
  mixed-billing:       Fixed, hourly and non-billable lines side by side
  strategy-divergence: A project whose two strategies disagree

NOTE:
  Scenarios reset the mirror. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gripp/revenue-engine/allocation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "budget-carryover",
		Name:        "Budget Carryover",
		Description: "20k budget with 15k consumed last year; February hours only partly fit",
	},
	{
		ID:          "budget-exhausted",
		Name:        "Budget Exhausted",
		Description: "Prior years consumed more than the total budget; fixed-price hours recognize nothing",
	},
	{
		ID:          "internal-project",
		Name:        "Internal Project",
		Description: "Internal hours never generate revenue",
	},
	{
		ID:          "mixed-billing",
		Name:        "Mixed Billing",
		Description: "Fixed-price, hourly and non-billable lines in one project",
	},
	{
		ID:          "strategy-divergence",
		Name:        "Strategy Divergence",
		Description: "Line B writes double its line budget: line-max caps it, project-max lets it share",
	},
}

var scenarioLoaders = map[string]func() []*allocation.Project{
	"budget-carryover":    budgetCarryoverScenario,
	"budget-exhausted":    budgetExhaustedScenario,
	"internal-project":    internalProjectScenario,
	"mixed-billing":       mixedBillingScenario,
	"strategy-divergence": strategyDivergenceScenario,
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the scenario catalog.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario reports which scenario is loaded, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the mirror and loads a demo dataset.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loader, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}

	if err := h.loadProjects(r.Context(), loader()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "loaded",
		"scenario_id": req.ScenarioID,
	})
}

func (h *Handler) loadProjects(ctx context.Context, projects []*allocation.Project) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	for _, p := range projects {
		if err := h.Store.SaveProject(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// DATASETS
// =============================================================================

func scenarioLine(id int64, desc string, budgetedHours, rate float64, basis allocation.InvoiceBasis) allocation.ProjectLine {
	return allocation.ProjectLine{
		ID:            allocation.LineID(id),
		Description:   desc,
		BudgetedHours: decimal.NewFromFloat(budgetedHours),
		HourlyRate:    allocation.NewMoney(rate),
		InvoiceBasis:  basis,
	}
}

func scenarioEntry(id, lineID int64, month time.Month, hours, rate float64, employee string) allocation.TimeEntry {
	e := allocation.TimeEntry{
		ID:         id,
		Month:      month,
		Hours:      decimal.NewFromFloat(hours),
		HourlyRate: allocation.NewMoney(rate),
		Employee:   employee,
	}
	if lineID != 0 {
		l := allocation.LineID(lineID)
		e.LineID = &l
	}
	return e
}

func budgetCarryoverScenario() []*allocation.Project {
	p := &allocation.Project{
		ID:                101,
		Name:              "Webshop relaunch",
		Type:              allocation.TypeFixedPrice,
		TotalBudget:       allocation.NewMoney(20000),
		PriorYearConsumed: allocation.NewMoney(15000),
		Lines: []allocation.ProjectLine{
			scenarioLine(1, "Development", 200, 100, allocation.BasisFixedPrice),
		},
	}
	p.AddEntry(scenarioEntry(1, 1, time.January, 40, 100, "R. de Vries"))
	p.AddEntry(scenarioEntry(2, 1, time.February, 40, 100, "R. de Vries"))
	return []*allocation.Project{p}
}

func budgetExhaustedScenario() []*allocation.Project {
	p := &allocation.Project{
		ID:                102,
		Name:              "Legacy maintenance",
		Type:              allocation.TypeFixedPrice,
		TotalBudget:       allocation.NewMoney(20000),
		PriorYearConsumed: allocation.NewMoney(25000),
		Lines: []allocation.ProjectLine{
			scenarioLine(1, "Support", 200, 100, allocation.BasisFixedPrice),
			scenarioLine(2, "Out-of-scope work", 0, 95, allocation.BasisHourlyRate),
		},
	}
	p.AddEntry(scenarioEntry(1, 1, time.January, 40, 100, "M. Jansen"))
	p.AddEntry(scenarioEntry(2, 2, time.January, 10, 95, "M. Jansen"))
	return []*allocation.Project{p}
}

func internalProjectScenario() []*allocation.Project {
	p := &allocation.Project{
		ID:   103,
		Name: "Office tooling",
		Type: allocation.TypeInternal,
	}
	p.AddEntry(scenarioEntry(1, 0, time.March, 16, 85, "R. de Vries"))
	p.AddEntry(scenarioEntry(2, 0, time.April, 8, 85, "M. Jansen"))
	return []*allocation.Project{p}
}

func mixedBillingScenario() []*allocation.Project {
	p := &allocation.Project{
		ID:                104,
		Name:              "Platform phase 2",
		Type:              allocation.TypeFixedPrice,
		TotalBudget:       allocation.NewMoney(50000),
		PriorYearConsumed: allocation.NewMoney(0),
		Lines: []allocation.ProjectLine{
			scenarioLine(1, "Build", 300, 110, allocation.BasisFixedPrice),
			scenarioLine(2, "Consulting", 0, 125, allocation.BasisHourlyRate),
			scenarioLine(3, "Warranty", 0, 150, allocation.BasisNonBillable),
		},
	}
	p.AddEntry(scenarioEntry(1, 1, time.January, 80, 110, "R. de Vries"))
	p.AddEntry(scenarioEntry(2, 2, time.January, 12, 125, "M. Jansen"))
	p.AddEntry(scenarioEntry(3, 3, time.February, 10, 150, "R. de Vries"))
	return []*allocation.Project{p}
}

func strategyDivergenceScenario() []*allocation.Project {
	p := &allocation.Project{
		ID:                105,
		Name:              "Two-track delivery",
		Type:              allocation.TypeFixedPrice,
		TotalBudget:       allocation.NewMoney(3000),
		PriorYearConsumed: allocation.NewMoney(0),
		Lines: []allocation.ProjectLine{
			scenarioLine(1, "Track A", 10, 100, allocation.BasisFixedPrice),
			scenarioLine(2, "Track B", 10, 100, allocation.BasisFixedPrice),
		},
	}
	p.AddEntry(scenarioEntry(1, 1, time.January, 10, 100, "R. de Vries"))
	p.AddEntry(scenarioEntry(2, 2, time.January, 10, 100, "M. Jansen"))
	p.AddEntry(scenarioEntry(3, 2, time.February, 10, 100, "M. Jansen"))
	return []*allocation.Project{p}
}
