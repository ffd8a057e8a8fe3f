package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/nodeflow/pkg/api"
)

// PostgresStore stores run events in PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver, for example
// "github.com/jackc/pgx/v5/stdlib":
//
//	import _ "github.com/jackc/pgx/v5/stdlib"
//	db, err := sql.Open("pgx", dsn)
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates the schema if needed and returns the store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			at BIGINT NOT NULL,
			type TEXT NOT NULL,
			flow TEXT NOT NULL DEFAULT '',
			node TEXT NOT NULL DEFAULT '',
			step INTEGER NOT NULL DEFAULT -1,
			attempt INTEGER NOT NULL DEFAULT 0,
			action TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id, id);
	`)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (run_id, at, type, flow, node, step, attempt, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.RunID,
		at.UnixNano(),
		string(ev.Type),
		ev.Flow,
		ev.Node,
		ev.Step,
		ev.Attempt,
		string(ev.Action),
		ev.Detail,
	)
	return err
}

func (s *PostgresStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, at, type, flow, node, step, attempt, action, detail
		FROM run_events
		WHERE run_id = $1
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (s *PostgresStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM run_events
		GROUP BY run_id
		ORDER BY MIN(id) ASC`)
	if err != nil {
		return nil, err
	}
	return scanRunIDs(rows)
}
