package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the results table. Times are stored as Unix nanoseconds so
// both SQLite drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    service TEXT NOT NULL,
    type TEXT NOT NULL,
    healthy BOOLEAN NOT NULL,
    stage TEXT,
    error TEXT,
    duration_ns INTEGER NOT NULL,
    checked_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_checked_at ON results(checked_at);
CREATE INDEX IF NOT EXISTS idx_results_service_checked_at ON results(service, checked_at);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
