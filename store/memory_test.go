package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gripp/revenue-engine/allocation"
)

func seedProject(id int64) *allocation.Project {
	lineID := allocation.LineID(1)
	p := &allocation.Project{
		ID:          id,
		Name:        "Mirror test",
		Type:        allocation.TypeFixedPrice,
		TotalBudget: allocation.NewMoney(1000),
		Lines: []allocation.ProjectLine{
			{
				ID:            lineID,
				BudgetedHours: decimal.NewFromInt(10),
				HourlyRate:    allocation.NewMoney(100),
				InvoiceBasis:  allocation.BasisFixedPrice,
			},
		},
	}
	p.AddEntry(allocation.TimeEntry{
		ID: 1, LineID: &lineID, Month: time.March,
		Hours: decimal.NewFromInt(5), HourlyRate: allocation.NewMoney(100),
	})
	return p
}

func TestMemory_SaveAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.SaveProject(ctx, seedProject(1)); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	got, err := m.GetProject(ctx, 1)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "Mirror test" {
		t.Errorf("Expected name %q, got %q", "Mirror test", got.Name)
	}
	if got.EntryCount() != 1 {
		t.Errorf("Expected 1 entry, got %d", got.EntryCount())
	}

	if _, err := m.GetProject(ctx, 99); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestMemory_ReadsAreIsolated(t *testing.T) {
	// GIVEN: A stored project
	m := NewMemory()
	ctx := context.Background()
	if err := m.SaveProject(ctx, seedProject(1)); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	// WHEN: Mutating one read's copy
	first, err := m.GetProject(ctx, 1)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	first.Name = "Mutated"
	first.Lines[0].HourlyRate = allocation.NewMoney(999)
	*first.Months[int(time.March)-1][0].LineID = allocation.LineID(42)

	// THEN: A second read is untouched
	second, err := m.GetProject(ctx, 1)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if second.Name != "Mirror test" {
		t.Errorf("Stored name mutated: %q", second.Name)
	}
	if !second.Lines[0].HourlyRate.Equal(allocation.NewMoney(100)) {
		t.Errorf("Stored rate mutated: %s", second.Lines[0].HourlyRate)
	}
	if got := *second.Months[int(time.March)-1][0].LineID; got != 1 {
		t.Errorf("Stored line ref mutated: %d", got)
	}
}

func TestMemory_SaveIsolatesCaller(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p := seedProject(1)
	if err := m.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	// Mutating the caller's copy after save must not leak into the store
	p.Name = "Mutated after save"

	got, err := m.GetProject(ctx, 1)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "Mirror test" {
		t.Errorf("Save aliased caller memory: %q", got.Name)
	}
}

func TestMemory_ListOrderAndReset(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, id := range []int64{30, 10, 20} {
		if err := m.SaveProject(ctx, seedProject(id)); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}
	}

	projects, err := m.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("Expected 3 projects, got %d", len(projects))
	}
	for i, want := range []int64{10, 20, 30} {
		if projects[i].ID != want {
			t.Errorf("Position %d: expected id %d, got %d", i, want, projects[i].ID)
		}
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	projects, err = m.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("Expected empty store after reset, got %d projects", len(projects))
	}
}
