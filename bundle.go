package flowkit

import (
	"database/sql"

	"github.com/petrijr/flowkit/internal/persistence"
)

// NewSQLiteSession constructs a Session whose flows are kept in the given
// SQLite database. The schema is created on first use.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:flows.db?_journal=WAL")
//	s, err := flowkit.NewSQLiteSession(db, flowkit.SessionConfig{PersistDelay: time.Second})
//	flow, _ := s.Create(ctx, "Onboarding")
func NewSQLiteSession(db *sql.DB, cfg SessionConfig) (*Session, error) {
	flows, err := persistence.NewSQLiteFlowStore(db)
	if err != nil {
		return nil, err
	}
	return NewSession(flows, cfg), nil
}
