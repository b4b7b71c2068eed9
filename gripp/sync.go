/*
sync.go - Mirror refresh

PURPOSE:
  Assembles fetched Gripp records into allocation.Project aggregates
  (lines attached, hours bucketed by month) and replaces the mirrored
  snapshots in a ProjectStore. One Run is one refresh; results are
  computed on demand from the mirror, never cached.
*/
package gripp

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gripp/revenue-engine/allocation"
	"github.com/gripp/revenue-engine/store"
)

// Syncer refreshes the CRM mirror.
type Syncer struct {
	Client *Client
	Store  store.ProjectStore
}

func NewSyncer(client *Client, st store.ProjectStore) *Syncer {
	return &Syncer{Client: client, Store: st}
}

// Report summarizes one sync run.
type Report struct {
	RunID     string        `json:"run_id"`
	Year      int           `json:"year"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Projects  int           `json:"projects"`
	Lines     int           `json:"lines"`
	Entries   int           `json:"entries"`
}

// Run fetches projects, lines and the year's hours, assembles project
// aggregates and replaces them in the store.
func (s *Syncer) Run(ctx context.Context, year int) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Year:      year,
		StartedAt: time.Now().UTC(),
	}
	log.Printf("sync %s: refreshing mirror for %d", report.RunID, year)

	projects, err := s.Client.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", report.RunID, err)
	}
	lines, err := s.Client.ProjectLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", report.RunID, err)
	}
	hours, err := s.Client.Hours(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", report.RunID, err)
	}

	assembled := assemble(projects, lines, hours)
	for _, p := range assembled {
		if err := s.Store.SaveProject(ctx, p); err != nil {
			return nil, fmt.Errorf("sync %s: project %d: %w", report.RunID, p.ID, err)
		}
		report.Projects++
		report.Lines += len(p.Lines)
		report.Entries += p.EntryCount()
	}

	report.Duration = time.Since(report.StartedAt)
	log.Printf("sync %s: mirrored %d projects, %d lines, %d entries in %s",
		report.RunID, report.Projects, report.Lines, report.Entries, report.Duration)
	return report, nil
}

// assemble joins the three record sets into project aggregates, keyed
// and ordered by project id.
func assemble(projects []projectRecord, lines []projectLineRecord, hours []hourRecord) []*allocation.Project {
	byID := make(map[int64]*allocation.Project, len(projects))
	var ordered []*allocation.Project
	for _, pr := range projects {
		p := &allocation.Project{
			ID:                pr.ID,
			Name:              pr.Name,
			Type:              mapProjectType(pr.Type),
			TotalBudget:       allocation.NewMoney(pr.TotalBudget),
			PriorYearConsumed: allocation.NewMoney(pr.PrevYearSpent),
		}
		byID[p.ID] = p
		ordered = append(ordered, p)
	}

	// Rates live on the lines; hour records join against them for the
	// rate to apply.
	lineRate := make(map[int64]allocation.Money, len(lines))
	for _, lr := range lines {
		p, ok := byID[lr.Project.ID]
		if !ok {
			continue // line of an archived project
		}
		p.Lines = append(p.Lines, allocation.ProjectLine{
			ID:            allocation.LineID(lr.ID),
			Description:   lr.Description,
			BudgetedHours: decimal.NewFromFloat(lr.Amount),
			HoursWritten:  decimal.NewFromFloat(lr.AmountWritten),
			HourlyRate:    allocation.NewMoney(lr.SellingPrice),
			InvoiceBasis:  mapInvoiceBasis(lr.InvoiceBasis.ID),
		})
		lineRate[lr.ID] = allocation.NewMoney(lr.SellingPrice)
	}

	for _, hr := range hours {
		p, ok := byID[hr.Project.ID]
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", hr.Date)
		if err != nil {
			continue // malformed booking date, skip rather than guess
		}

		entry := allocation.TimeEntry{
			ID:          hr.ID,
			ProjectID:   p.ID,
			Month:       date.Month(),
			Hours:       decimal.NewFromFloat(hr.Amount),
			EmployeeID:  hr.Employee.ID,
			Employee:    hr.Employee.Name,
			Description: hr.Description,
		}
		if hr.Line != nil {
			id := allocation.LineID(hr.Line.ID)
			entry.LineID = &id
			entry.HourlyRate = lineRate[hr.Line.ID]
		}
		p.AddEntry(entry)
	}

	return ordered
}
