// Package history stores the result of every service check.
//
// Two backends implement Storage:
//
//   - MemoryStorage: a bounded in-process buffer, lost on restart
//   - SQLiteStorage: a SQLite file, using either the cgo driver
//     (github.com/mattn/go-sqlite3, "sqlite3") or the pure Go driver
//     (modernc.org/sqlite, "sqlite")
//
// A Pruner removes records by age and count; a Scheduler runs it on a cron
// expression such as "*/15 * * * *".
//
// Typical wiring:
//
//	store, err := history.Open(cfg.History)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	scheduler := history.NewScheduler(history.NewPruner(store, cfg.History.Retention), cfg.History.Retention.Schedule)
//	if err := scheduler.Start(ctx); err != nil {
//	    return err
//	}
package history
