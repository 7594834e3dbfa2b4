package steps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// botSchema is the schema the bot creates on start-up
var botSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT,
		status TEXT DEFAULT 'pending',
		access_granted_date TEXT,
		access_duration INTEGER,
		access_end_date TEXT,
		last_notification_id INTEGER,
		has_used_trial INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		code TEXT PRIMARY KEY,
		days_duration INTEGER NOT NULL,
		is_active INTEGER DEFAULT 1,
		usage_count INTEGER DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS user_promo_codes (
		user_id INTEGER NOT NULL,
		promo_code TEXT NOT NULL,
		PRIMARY KEY (user_id, promo_code),
		FOREIGN KEY (user_id) REFERENCES users (id),
		FOREIGN KEY (promo_code) REFERENCES promo_codes (code)
	)`,
}

// DatabaseSetup prepares the bot's SQLite database
type DatabaseSetup struct {
	fs   system.FileSystemManager
	ui   *ui.UI
	opts *Options
	cfg  *config.BotConfig
	// chown hands the database files to the service user; nil skips it
	chown func(path, username string) error
}

// NewDatabaseSetup creates the database stage. Files are chowned to the
// service user only when running as root.
func NewDatabaseSetup(fs system.FileSystemManager, ui *ui.UI, opts *Options, cfg *config.BotConfig) *DatabaseSetup {
	d := &DatabaseSetup{fs: fs, ui: ui, opts: opts, cfg: cfg}
	if !system.NeedsSudo() {
		d.chown = system.ChownToUser
	}
	return d
}

// Run creates the schema if it is missing and upgrades older tables.
func (d *DatabaseSetup) Run(ctx context.Context) error {
	if d.opts.SkipDatabase {
		d.ui.Info("Skipping database initialization")
		return nil
	}

	path := d.opts.DatabasePath(*d.cfg)

	d.ui.Step("Initializing Database")
	if err := d.fs.EnsureDirectory(filepath.Dir(path), 0755); err != nil {
		return stageFailure(StageDatabase, KindFilesystem, err)
	}

	if err := InitDatabase(ctx, path); err != nil {
		return stageFailure(StageDatabase, KindFilesystem, err)
	}

	if d.chown != nil {
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err := d.chown(p, d.opts.ServiceUser); err != nil {
				return stageFailure(StageDatabase, KindFilesystem, err)
			}
		}
	}

	d.ui.Successf("Database ready at %s", path)
	return nil
}

// InitDatabase opens path in WAL mode and applies the bot schema
func InitDatabase(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set pragma: %w", err)
	}

	for _, stmt := range botSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	// databases created by older bot versions lack has_used_trial
	has, err := hasColumn(ctx, db, "users", "has_used_trial")
	if err != nil {
		return err
	}
	if !has {
		if _, err := db.ExecContext(ctx, "ALTER TABLE users ADD COLUMN has_used_trial INTEGER DEFAULT 0"); err != nil {
			return fmt.Errorf("failed to add has_used_trial column: %w", err)
		}
	}

	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to read table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
