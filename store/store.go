/*
Package store defines persistence for the mirrored CRM records the
allocation engine consumes.

PURPOSE:
  The engine itself is pure; something has to hold the project, line
  and hour snapshots the sync layer mirrors from the CRM. ProjectStore
  is that contract. The mirror is a snapshot, not a ledger: a sync run
  replaces a project's lines and entries wholesale, so the store
  exposes whole-aggregate saves rather than row-level mutation.

IMPLEMENTATIONS:
  - store.Memory:   In-memory, for tests and demo scenarios
  - sqlite.Store:   SQLite-backed mirror (store/sqlite)

SEE ALSO:
  - gripp/sync.go: Writes snapshots into a ProjectStore
  - api/handlers.go: Reads projects back out for allocation
*/
package store

import (
	"context"
	"errors"

	"github.com/gripp/revenue-engine/allocation"
)

// ErrProjectNotFound is returned when a project id is not mirrored.
var ErrProjectNotFound = errors.New("project not found")

// ProjectStore persists mirrored projects with their lines and month
// buckets. SaveProject replaces the whole aggregate.
type ProjectStore interface {
	SaveProject(ctx context.Context, p *allocation.Project) error
	GetProject(ctx context.Context, id int64) (*allocation.Project, error)

	// ListProjects returns every mirrored project, ordered by id.
	ListProjects(ctx context.Context) ([]*allocation.Project, error)

	// Reset drops all mirrored data. Used by scenario loading.
	Reset(ctx context.Context) error
}
