package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/nodeflow/pkg/api"
)

// SQLiteStore stores run events in SQLite.
//
// The caller opens db, typically with the pure-Go driver:
//
//	import _ "modernc.org/sqlite"
//	db, err := sql.Open("sqlite", "file:history.db")
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates the schema if needed and returns the store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			at INTEGER NOT NULL,
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

func (s *SQLiteStore) Append(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (run_id, at, type, flow, node, step, attempt, action, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, at, type, flow, node, step, attempt, action, detail
		FROM run_events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM run_events
		GROUP BY run_id
		ORDER BY MIN(id) ASC`)
	if err != nil {
		return nil, err
	}
	return scanRunIDs(rows)
}

// scanEvents reads rows selected as
// run_id, at, type, flow, node, step, attempt, action, detail.
func scanEvents(rows *sql.Rows) ([]api.RunEvent, error) {
	defer rows.Close()

	var out []api.RunEvent
	for rows.Next() {
		var (
			runID   string
			atN     int64
			typ     string
			flow    string
			node    string
			step    int
			attempt int
			action  string
			detail  string
		)
		if err := rows.Scan(&runID, &atN, &typ, &flow, &node, &step, &attempt, &action, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.RunEvent{
			RunID:   runID,
			At:      time.Unix(0, atN),
			Type:    api.EventType(typ),
			Flow:    flow,
			Node:    node,
			Step:    step,
			Attempt: attempt,
			Action:  api.Action(action),
			Detail:  detail,
		})
	}
	return out, rows.Err()
}

func scanRunIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
