// Package database provides SQLite connectivity for local garage remote state.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations read from any fs.FS (embedded in production)
//   - Connection lifecycle and health checks
//
// The database only holds small client-side preferences such as the
// selected UI language. Device state is never persisted.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only. Each YYYYMMDD_HHMMSS_name.up.sql file has a
// matching .down.sql used by MigrateDown.
package database
