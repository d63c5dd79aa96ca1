package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"multires/internal/logging"
	"multires/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all persistent state for the multires service:
// recipes, image variants, and the admin user/session tables.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if necessary) the SQLite database at dbPath and
// initializes the schema. dbPath must point at the database file itself and
// its parent directory must exist and be writable; startup.LoadConfig
// validates this before the server gets here.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL keeps readers unblocked during variant writes; busy_timeout papers
	// over short lock contention between the claim UPDATE and finish UPDATE.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- Resolution recipes, maintained by administrators
	CREATE TABLE IF NOT EXISTS recipes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		namespace TEXT NOT NULL DEFAULT '',
		automatic INTEGER NOT NULL DEFAULT 1,
		flip TEXT NOT NULL DEFAULT '',
		rotate INTEGER NOT NULL DEFAULT 0,
		rotate_crop TEXT NOT NULL DEFAULT '',
		rotate_color TEXT NOT NULL DEFAULT '',
		crop TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		upscale INTEGER NOT NULL DEFAULT 0,
		fit TEXT NOT NULL DEFAULT 'fit',
		file_type TEXT NOT NULL DEFAULT 'jpeg',
		quality INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(namespace, title)
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_namespace ON recipes(namespace);

	-- One row per (source image, recipe) pair; derived_path is empty until
	-- the variant has been rendered.
	CREATE TABLE IF NOT EXISTS variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		recipe_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		derived_path TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE,
		UNIQUE(source, recipe_id)
	);

	CREATE INDEX IF NOT EXISTS idx_variants_source ON variants(source);
	CREATE INDEX IF NOT EXISTS idx_variants_recipe ON variants(recipe_id);
	CREATE INDEX IF NOT EXISTS idx_variants_status ON variants(status);

	-- Single admin account
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Admin sessions
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return d.recoverInterruptedRenders(ctx)
}

// recoverInterruptedRenders releases render claims left behind by a crashed
// or killed process. A claim only lives for the duration of one render, so
// any variant still in processing at startup belongs to nobody; without
// this reset every request for it would wait out the render grace period
// and fail.
func (d *Database) recoverInterruptedRenders(ctx context.Context) error {
	result, err := d.db.ExecContext(ctx, `
		UPDATE variants SET status = ?, updated_at = strftime('%s', 'now')
		WHERE status = ?`,
		StatusPending, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to recover interrupted renders: %w", err)
	}
	if recovered, err := result.RowsAffected(); err == nil && recovered > 0 {
		logging.Warn("Released %d render claims left over from a previous run", recovered)
	}
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}
