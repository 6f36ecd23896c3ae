package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names accepted by SQLiteConfig.Driver.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// Driver is DriverCGO or DriverPureGo.
	// Default: DriverCGO
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements Storage on a SQLite database file.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database and its schema.
func NewSQLiteStorage(cfg SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: slog.Default().With("component", "history.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite history initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// sqliteDSN builds a DSN that sets WAL mode and the busy timeout on every
// connection. The two drivers spell pragmas differently.
func sqliteDSN(cfg SQLiteConfig) (string, error) {
	if cfg.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	ms := cfg.BusyTimeout.Milliseconds()

	switch cfg.Driver {
	case DriverCGO:
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, ms), nil
	case DriverPureGo:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, ms), nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q (supported: %s, %s)", cfg.Driver, DriverCGO, DriverPureGo)
	}
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store inserts a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, service, type, healthy, stage, error, duration_ns, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.Service, record.Type, record.Healthy,
		nullString(record.Stage), nullString(record.Error),
		record.Duration.Nanoseconds(), record.CheckedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	where, args := buildWhereClause(filter)

	query := "SELECT id, service, type, healthy, stage, error, duration_ns, checked_at FROM results"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY checked_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := buildWhereClause(filter)

	query := "SELECT COUNT(*) FROM results"
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes records checked before t.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE checked_at < ?", t.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	return rowsAffected(result, "delete")
}

// TrimTo keeps the newest n records.
func (s *SQLiteStorage) TrimTo(ctx context.Context, n int64) (int64, error) {
	if n < 0 {
		n = 0
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM results WHERE rowid NOT IN (
			SELECT rowid FROM results ORDER BY checked_at DESC, rowid DESC LIMIT ?
		)`, n)
	if err != nil {
		return 0, NewStorageError("sqlite", "trim", err)
	}
	return rowsAffected(result, "trim")
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite history closed")
	return nil
}

func buildWhereClause(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, filter.Service)
	}
	if filter.Healthy != nil {
		conditions = append(conditions, "healthy = ?")
		args = append(args, *filter.Healthy)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "checked_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "checked_at <= ?")
		args = append(args, filter.Until.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		record              Record
		id                  string
		stage, errMsg       sql.NullString
		durationNS, checked int64
	)

	if err := rows.Scan(&id, &record.Service, &record.Type, &record.Healthy,
		&stage, &errMsg, &durationNS, &checked); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", id, err)
	}
	record.ID = parsed
	record.Stage = stage.String
	record.Error = errMsg.String
	record.Duration = time.Duration(durationNS)
	record.CheckedAt = time.Unix(0, checked)

	return &record, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func rowsAffected(result sql.Result, op string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", op, err)
	}
	return n, nil
}
