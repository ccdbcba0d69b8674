// ABOUTME: Storage bundles the per-entity SQLite stores behind one lifecycle
// ABOUTME: Open/OpenInMemory wire every store to a shared database handle
package storage

import (
	"github.com/harper/lifeline/internal/storage/sqlite"
)

// Storage aggregates the per-entity stores over one database connection.
type Storage struct {
	db *sqlite.DB

	Turns     *sqlite.TurnStore
	Summaries *sqlite.SummaryStore
	Profiles  *sqlite.ProfileStore
	Coverage  *sqlite.CoverageStore
	Insights  *sqlite.InsightStore
}

// Open opens (or creates) the database at path and wires all stores.
func Open(path string) (*Storage, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return wrap(db), nil
}

// OpenDefault opens the database at the XDG default location.
func OpenDefault() (*Storage, error) {
	return Open(sqlite.DefaultDBPath())
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Storage, error) {
	db, err := sqlite.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return wrap(db), nil
}

func wrap(db *sqlite.DB) *Storage {
	return &Storage{
		db:        db,
		Turns:     sqlite.NewTurnStore(db),
		Summaries: sqlite.NewSummaryStore(db),
		Profiles:  sqlite.NewProfileStore(db),
		Coverage:  sqlite.NewCoverageStore(db),
		Insights:  sqlite.NewInsightStore(db),
	}
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.db.Path()
}
