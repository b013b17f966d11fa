package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/flowkit/pkg/api"
)

// SQLiteFlowStore is a FlowStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteFlowStore struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure SQLiteFlowStore implements FlowStore.
var _ FlowStore = (*SQLiteFlowStore)(nil)

// NewSQLiteFlowStore initializes the required schema in the given
// database and returns a new SQLiteFlowStore.
func NewSQLiteFlowStore(db *sql.DB) (*SQLiteFlowStore, error) {
	s := &SQLiteFlowStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteFlowStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			data BLOB NOT NULL
		);`,
	)
	return unavailable(err)
}

func (s *SQLiteFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, published, created_at, updated_at, data
		FROM flows
		ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var flows []*api.Flow
	for rows.Next() {
		f, err := scanSQLiteFlow(rows)
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

func (s *SQLiteFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, published, created_at, updated_at, data
		FROM flows
		WHERE id = ?`,
		id,
	)
	f, err := scanSQLiteFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return f, err
}

func (s *SQLiteFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.Name,
		string(f.Status),
		f.Published,
		f.CreatedAt.UnixMilli(),
		f.UpdatedAt.UnixMilli(),
		data,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	return f, nil
}

func (s *SQLiteFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	current, err := s.FetchFlow(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := applyAttributes(current, attrs, s.now())
	data, err := EncodeGraph(updated.Data)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE flows
		SET name = ?, status = ?, published = ?, updated_at = ?, data = ?
		WHERE id = ?`,
		updated.Name,
		string(updated.Status),
		updated.Published,
		updated.UpdatedAt.UnixMilli(),
		data,
		id,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, unavailable(err)
	}
	if affected == 0 {
		return nil, notFound(id)
	}
	return updated, nil
}

func (s *SQLiteFlowStore) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteFlow(row rowScanner) (*api.Flow, error) {
	var f api.Flow
	var status string
	var published bool
	var created, updated int64
	var data []byte

	if err := row.Scan(&f.ID, &f.Name, &status, &published, &created, &updated, &data); err != nil {
		return nil, unavailable(err)
	}

	g, err := DecodeGraph(data)
	if err != nil {
		return nil, err
	}
	f.Status = api.Status(status)
	f.Published = published
	f.CreatedAt = time.UnixMilli(created).UTC()
	f.UpdatedAt = time.UnixMilli(updated).UTC()
	f.Data = g
	return &f, nil
}
