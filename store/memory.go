// memory.go - In-memory ProjectStore (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gripp/revenue-engine/allocation"
)

// Memory is an in-memory ProjectStore. Safe for concurrent use; every
// read returns a deep copy so callers can never alias stored state.
type Memory struct {
	mu       sync.RWMutex
	projects map[int64]*allocation.Project
}

var _ ProjectStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{projects: make(map[int64]*allocation.Project)}
}

func (m *Memory) SaveProject(_ context.Context, p *allocation.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *Memory) GetProject(_ context.Context, id int64) (*allocation.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (m *Memory) ListProjects(_ context.Context) ([]*allocation.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*allocation.Project, 0, len(m.projects))
	for _, p := range m.projects {
		result = append(result, cloneProject(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = make(map[int64]*allocation.Project)
	return nil
}

func cloneProject(p *allocation.Project) *allocation.Project {
	c := *p
	c.Lines = append([]allocation.ProjectLine(nil), p.Lines...)
	for i, bucket := range p.Months {
		if bucket == nil {
			continue
		}
		entries := append([]allocation.TimeEntry(nil), bucket...)
		for j := range entries {
			if entries[j].LineID != nil {
				id := *entries[j].LineID
				entries[j].LineID = &id
			}
		}
		c.Months[i] = entries
	}
	return &c
}
