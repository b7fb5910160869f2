// Package store keeps a history of solve runs.
//
// A [Run] records what was solved (graph hash, processors, algorithm), how it
// ended (status, makespan, search statistics) and the schedule itself. The
// HTTP service returns run IDs from POST /v1/solve and serves stored runs
// from GET /v1/runs/{id}; the CLI lists recent runs with "taskplan runs".
//
// # Backends
//
//   - [MemoryStore]: process-local, for tests and ephemeral servers
//   - [FileStore]: one JSON file per run, for the CLI
//   - [MongoStore]: MongoDB collection, for shared deployments
//
// All backends are safe for concurrent use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/search"
)

// ErrNotFound is returned by [Store.Get] when no run has the given ID.
var ErrNotFound = errors.New("run not found")

// Run is one recorded solve.
type Run struct {
	ID         string             `json:"id" bson:"_id"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	Source     string             `json:"source,omitempty" bson:"source,omitempty"`
	GraphHash  string             `json:"graph_hash" bson:"graph_hash"`
	Tasks      int                `json:"tasks" bson:"tasks"`
	Processors int                `json:"processors" bson:"processors"`
	Algorithm  string             `json:"algorithm" bson:"algorithm"`
	Status     string             `json:"status" bson:"status"`
	Makespan   int                `json:"makespan,omitempty" bson:"makespan,omitempty"`
	Cached     bool               `json:"cached,omitempty" bson:"cached,omitempty"`
	Stats      search.Stats       `json:"stats" bson:"stats"`
	Solution   *schedule.Solution `json:"solution,omitempty" bson:"solution,omitempty"`
}

// NewRun returns a run with a fresh random ID and the current time.
func NewRun() *Run {
	return &Run{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// Store is the interface for run storage backends.
type Store interface {
	// Save inserts or replaces a run.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID, or [ErrNotFound].
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first. A limit of zero or less
	// returns every run.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases any connections held by the store.
	Close() error
}

// ValidID reports whether id looks like an ID produced by [NewRun].
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
