package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/flowkit/pkg/api"
)

// PostgresFlowStore is a FlowStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
//
// The graph is stored as JSONB so it can be inspected with SQL.
type PostgresFlowStore struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure PostgresFlowStore implements FlowStore.
var _ FlowStore = (*PostgresFlowStore)(nil)

// NewPostgresFlowStore initializes the required schema in the given
// database and returns a new PostgresFlowStore.
func NewPostgresFlowStore(db *sql.DB) (*PostgresFlowStore, error) {
	s := &PostgresFlowStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresFlowStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flows (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			status     TEXT NOT NULL,
			published  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			data       JSONB NOT NULL
		);
	`)
	return unavailable(err)
}

func (s *PostgresFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, published, created_at, updated_at, data
		FROM flows
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var flows []*api.Flow
	for rows.Next() {
		f, err := scanPostgresFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return flows, nil
}

func (s *PostgresFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, published, created_at, updated_at, data
		FROM flows
		WHERE id = $1
	`, id)
	f, err := scanPostgresFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return f, err
}

func (s *PostgresFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
	f, err := newFlow(name, s.now())
	if err != nil {
		return nil, err
	}
	data, err := EncodeGraph(f.Data)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flows (id, name, status, published, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		f.ID,
		f.Name,
		string(f.Status),
		f.Published,
		f.CreatedAt,
		f.UpdatedAt,
		string(data),
	)
	if err != nil {
		return nil, unavailable(err)
	}
	return f, nil
}

// PersistFlow updates the row in place and returns the stored document via
// RETURNING, so no separate read is needed.
func (s *PostgresFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	status := attrs.Status
	if status == "" {
		status = api.StatusDraft
	}
	data, err := EncodeGraph(attrs.Data)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE flows
		SET name       = $1,
		    status     = $2,
		    published  = $3,
		    updated_at = $4,
		    data       = $5
		WHERE id = $6
		RETURNING id, name, status, published, created_at, updated_at, data
	`,
		attrs.Name,
		string(status),
		attrs.Published,
		s.now().UTC().Truncate(time.Millisecond),
		string(data),
		id,
	)
	f, err := scanPostgresFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return f, err
}

func (s *PostgresFlowStore) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return unavailable(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

func scanPostgresFlow(row rowScanner) (*api.Flow, error) {
	var f api.Flow
	var status string
	var data []byte

	if err := row.Scan(&f.ID, &f.Name, &status, &f.Published, &f.CreatedAt, &f.UpdatedAt, &data); err != nil {
		return nil, unavailable(err)
	}
	g, err := DecodeGraph(data)
	if err != nil {
		return nil, err
	}
	f.Status = api.Status(status)
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	f.Data = g
	return &f, nil
}
