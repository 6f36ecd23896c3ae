package history

import (
	"fmt"

	"plus-monitoring/general-healthcheck/pkg/config"
)

// Open creates the backend selected by cfg.Backend.
func Open(cfg config.HistoryConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStorage(int(cfg.Retention.MaxRecords)), nil
	case "sqlite":
		return NewSQLiteStorage(SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			BusyTimeout:  cfg.SQLite.BusyTimeout.Std(),
		})
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
