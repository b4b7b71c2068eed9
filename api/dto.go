/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  engine's decimal-based domain model from the external contract.
  Money leaves the API as float64; decimal precision is an engine
  concern, not a wire concern.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/gripp/revenue-engine/allocation"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO summarizes a mirrored project.
type ProjectDTO struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	TotalBudget       float64 `json:"total_budget"`
	PriorYearConsumed float64 `json:"prior_year_consumed"`
	LineCount         int     `json:"line_count"`
	EntryCount        int     `json:"entry_count"`
}

// ProjectDetailDTO adds the project's lines.
type ProjectDetailDTO struct {
	ProjectDTO
	Lines []ProjectLineDTO `json:"lines"`
}

// ProjectLineDTO represents one budget/rate bucket.
type ProjectLineDTO struct {
	ID            int64   `json:"id"`
	Description   string  `json:"description,omitempty"`
	BudgetedHours float64 `json:"budgeted_hours"`
	HoursWritten  float64 `json:"hours_written"`
	HourlyRate    float64 `json:"hourly_rate"`
	InvoiceBasis  string  `json:"invoice_basis"`
}

// =============================================================================
// ALLOCATION
// =============================================================================

// AllocationResultDTO is one annotated time entry.
type AllocationResultDTO struct {
	EntryID           int64   `json:"entry_id"`
	LineID            *int64  `json:"line_id,omitempty"`
	Month             int     `json:"month"`
	Hours             float64 `json:"hours"`
	HourlyRate        float64 `json:"hourly_rate"`
	Employee          string  `json:"employee,omitempty"`
	Description       string  `json:"description,omitempty"`
	InvoiceBasis      string  `json:"invoice_basis"`
	Nominal           float64 `json:"nominal"`
	RecognizedRevenue float64 `json:"recognized_revenue"`
	OverBudget        bool    `json:"over_budget"`
	LineOverBudget    bool    `json:"line_over_budget"`
	CappedByBudget    bool    `json:"capped_by_budget"`
}

// AllocationSummaryDTO is the project-level rollup.
type AllocationSummaryDTO struct {
	ProjectID         int64   `json:"project_id"`
	Strategy          string  `json:"strategy"`
	TotalRecognized   float64 `json:"total_recognized"`
	RemainingBudget   float64 `json:"remaining_budget"`
	OverBudget        bool    `json:"over_budget"`
	OverBudgetLineIDs []int64 `json:"over_budget_line_ids"`
}

// AllocationResponse is the full output of one allocation call.
type AllocationResponse struct {
	Results []AllocationResultDTO `json:"results"`
	Summary AllocationSummaryDTO  `json:"summary"`
}

// MonthlyRevenueDTO is one month's recognized revenue across projects.
type MonthlyRevenueDTO struct {
	Month      int     `json:"month"`
	Recognized float64 `json:"recognized"`
}

// MonthlyRevenueResponse is the dashboard's per-month rollup.
type MonthlyRevenueResponse struct {
	Strategy string              `json:"strategy"`
	Months   []MonthlyRevenueDTO `json:"months"`
	Total    float64             `json:"total"`
}

// =============================================================================
// SYNC & SCENARIOS
// =============================================================================

// SyncResponse reports one mirror refresh.
type SyncResponse struct {
	RunID      string `json:"run_id"`
	Year       int    `json:"year"`
	Projects   int    `json:"projects"`
	Lines      int    `json:"lines"`
	Entries    int    `json:"entries"`
	DurationMS int64  `json:"duration_ms"`
}

// ScenarioDTO describes a loadable demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toProjectDTO(p *allocation.Project) ProjectDTO {
	return ProjectDTO{
		ID:                p.ID,
		Name:              p.Name,
		Type:              string(p.Type),
		TotalBudget:       p.TotalBudget.Float64(),
		PriorYearConsumed: p.PriorYearConsumed.Float64(),
		LineCount:         len(p.Lines),
		EntryCount:        p.EntryCount(),
	}
}

func toProjectDetailDTO(p *allocation.Project) ProjectDetailDTO {
	dto := ProjectDetailDTO{ProjectDTO: toProjectDTO(p)}
	dto.Lines = make([]ProjectLineDTO, len(p.Lines))
	for i, l := range p.Lines {
		budgeted, _ := l.BudgetedHours.Float64()
		written, _ := l.HoursWritten.Float64()
		dto.Lines[i] = ProjectLineDTO{
			ID:            int64(l.ID),
			Description:   l.Description,
			BudgetedHours: budgeted,
			HoursWritten:  written,
			HourlyRate:    l.HourlyRate.Float64(),
			InvoiceBasis:  string(l.InvoiceBasis),
		}
	}
	return dto
}

func toAllocationResponse(out *allocation.Output) AllocationResponse {
	resp := AllocationResponse{
		Results: make([]AllocationResultDTO, len(out.Results)),
		Summary: toSummaryDTO(out.Summary),
	}
	for i, r := range out.Results {
		hours, _ := r.Entry.Hours.Float64()
		dto := AllocationResultDTO{
			EntryID:           r.Entry.ID,
			Month:             int(r.Entry.Month),
			Hours:             hours,
			HourlyRate:        r.Entry.HourlyRate.Float64(),
			Employee:          r.Entry.Employee,
			Description:       r.Entry.Description,
			InvoiceBasis:      string(r.Basis),
			Nominal:           r.Entry.Nominal().Float64(),
			RecognizedRevenue: r.RecognizedRevenue.Float64(),
			OverBudget:        r.OverBudget,
			LineOverBudget:    r.LineOverBudget,
			CappedByBudget:    r.CappedByBudget,
		}
		if r.Entry.LineID != nil {
			id := int64(*r.Entry.LineID)
			dto.LineID = &id
		}
		resp.Results[i] = dto
	}
	return resp
}

func toSummaryDTO(s allocation.Summary) AllocationSummaryDTO {
	ids := make([]int64, len(s.OverBudgetLineIDs))
	for i, id := range s.OverBudgetLineIDs {
		ids[i] = int64(id)
	}
	return AllocationSummaryDTO{
		ProjectID:         s.ProjectID,
		Strategy:          string(s.Strategy),
		TotalRecognized:   s.TotalRecognized.Float64(),
		RemainingBudget:   s.RemainingBudget.Float64(),
		OverBudget:        s.OverBudget,
		OverBudgetLineIDs: ids,
	}
}
