/*
handlers.go - HTTP API handlers for the revenue dashboard

PURPOSE:
  Exposes the mirror and the allocation engine via REST. Handlers parse
  the request, load a project snapshot from the store, run the engine,
  and serialize the output. Nothing is cached: allocation is O(entries)
  and effectively instantaneous, so every response is computed fresh
  from the mirror.

ENDPOINTS:
  Projects:
    GET  /api/projects                      List mirrored projects
    GET  /api/projects/{id}                 Project with lines
    GET  /api/projects/{id}/allocation      Allocation results + summary
                                            (?strategy=project-max|line-max)

  Dashboard:
    GET  /api/revenue/monthly               Per-month recognized revenue
                                            across all projects

  Admin:
    POST /api/sync                          Refresh the CRM mirror

  Scenarios:
    GET  /api/scenarios                     List demo datasets
    POST /api/scenarios/load                Load a demo dataset

STRATEGY SELECTION:
  The caller picks the strategy per request; there is no server-side
  default. An unknown strategy is a 400, not a silent fallback.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad id, unknown strategy/scenario)
  - 404: Project not mirrored
  - 503: Sync requested but no CRM credentials configured
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gripp/revenue-engine/allocation"
	"github.com/gripp/revenue-engine/gripp"
	"github.com/gripp/revenue-engine/store"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  store.ProjectStore
	Syncer *gripp.Syncer // nil when no CRM credentials are configured
	Year   int           // calendar year the mirror tracks

	currentScenario string
}

// NewHandler creates a handler over the given store.
func NewHandler(st store.ProjectStore, syncer *gripp.Syncer, year int) *Handler {
	if year == 0 {
		year = time.Now().Year()
	}
	return &Handler{Store: st, Syncer: syncer, Year: year}
}

// =============================================================================
// PROJECT ENDPOINTS
// =============================================================================

// ListProjects returns all mirrored projects.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns one project with its lines.
// GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProjectDetailDTO(p))
}

// GetAllocation runs the engine for one project.
// GET /api/projects/{id}/allocation?strategy=project-max|line-max
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	strategy, err := allocation.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown strategy", err)
		return
	}

	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	out, err := allocation.Allocate(p, strategy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Allocation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationResponse(out))
}

func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*allocation.Project, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id", err)
		return nil, false
	}

	p, err := h.Store.GetProject(r.Context(), id)
	if errors.Is(err, store.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return nil, false
	}
	return p, true
}

// =============================================================================
// DASHBOARD ENDPOINTS
// =============================================================================

// MonthlyRevenue sums recognized revenue per month across all projects.
// GET /api/revenue/monthly?strategy=project-max|line-max
func (h *Handler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	strategy, err := allocation.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown strategy", err)
		return
	}

	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	var months [allocation.MonthCount]allocation.Money
	total := allocation.ZeroMoney()
	for _, p := range projects {
		out, err := allocation.Allocate(p, strategy)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Allocation failed", err)
			return
		}
		for _, res := range out.Results {
			months[res.Entry.Month-1] = months[res.Entry.Month-1].Add(res.RecognizedRevenue)
		}
		total = total.Add(out.Summary.TotalRecognized)
	}

	resp := MonthlyRevenueResponse{
		Strategy: string(strategy),
		Months:   make([]MonthlyRevenueDTO, allocation.MonthCount),
		Total:    total.Float64(),
	}
	for i, m := range months {
		resp.Months[i] = MonthlyRevenueDTO{Month: i + 1, Recognized: m.Float64()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// TriggerSync refreshes the CRM mirror.
// POST /api/sync
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.Syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "CRM sync not configured", nil)
		return
	}

	report, err := h.Syncer.Run(r.Context(), h.Year)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Sync failed", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, SyncResponse{
		RunID:      report.RunID,
		Year:       report.Year,
		Projects:   report.Projects,
		Lines:      report.Lines,
		Entries:    report.Entries,
		DurationMS: report.Duration.Milliseconds(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
