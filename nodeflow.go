package nodeflow

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/nodeflow/internal/history"
	"github.com/petrijr/nodeflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Action               = api.Action
	Params               = api.Params
	RetryPolicy          = api.RetryPolicy
	RunInfo              = api.RunInfo
	RunEvent             = api.RunEvent
	EventType            = api.EventType
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

const (
	ActionNone    = api.ActionNone
	ActionDefault = api.ActionDefault
)

// Re-export run event types.

const (
	EventFlowStarted   = api.EventFlowStarted
	EventFlowCompleted = api.EventFlowCompleted
	EventFlowFailed    = api.EventFlowFailed
	EventNodeStarted   = api.EventNodeStarted
	EventNodeCompleted = api.EventNodeCompleted
	EventNodeFailed    = api.EventNodeFailed
	EventNodeRetry     = api.EventNodeRetry
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// History stores.
// These wrap the internal/history package so external callers
// never need to import internal packages.

// HistoryStore is an append-only store of run events.
type HistoryStore = history.Store

// NewMemoryHistory returns a HistoryStore held in process memory.
func NewMemoryHistory() HistoryStore {
	return history.NewMemoryStore()
}

// NewSQLiteHistory returns a HistoryStore backed by an SQLite database.
// The caller must import a SQLite driver, e.g. modernc.org/sqlite.
func NewSQLiteHistory(db *sql.DB) (HistoryStore, error) {
	return history.NewSQLiteStore(db)
}

// NewPostgresHistory returns a HistoryStore backed by PostgreSQL.
// The caller must import a driver, e.g. github.com/jackc/pgx/v5/stdlib.
func NewPostgresHistory(db *sql.DB) (HistoryStore, error) {
	return history.NewPostgresStore(db)
}

// NewRedisHistory returns a HistoryStore backed by Redis. prefix namespaces
// the keys and defaults to "nodeflow:".
func NewRedisHistory(client *redis.Client, prefix string) HistoryStore {
	return history.NewRedisStore(client, prefix)
}

// NewMongoHistory returns a HistoryStore backed by a MongoDB collection.
func NewMongoHistory(client *mongo.Client, dbName, collName string) HistoryStore {
	return history.NewMongoStore(client, dbName, collName)
}

// NewHistoryObserver returns an Observer that appends every run event to
// store. Append failures are logged to logger (slog.Default() if nil) and
// never fail the run.
func NewHistoryObserver(store HistoryStore, logger *slog.Logger) Observer {
	return history.NewRecorder(store, logger)
}
