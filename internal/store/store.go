// Package store persists the undo ledger in SQLite. The ledger holds
// the single most recent apply run; a new run replaces it.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 1
)

// Store represents the application's persistent state
type Store struct {
	db *sql.DB
}

// Op is one rename recorded in the ledger, current name first so undo
// can walk it directly.
type Op struct {
	CurrentPath  string
	OriginalPath string
}

// LedgerEntry is the most recent apply run.
type LedgerEntry struct {
	AppliedAt  time.Time
	JPGRoot    string
	BackupMade bool
	BackupDir  string
	Ops        []Op
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate applies database migrations
func (s *Store) migrate() error {
	// Check current schema version
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		// Already at current version
		return nil
	}

	// Start transaction for migration
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Apply schema v1
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Future migrations would go here:
	// if version < 2 { ... }

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	// Check if schema_version table exists
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		// No schema yet
		return 0, nil
	}

	// Get latest version
	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Replace drops any previous ledger entry and stores the given one.
func (s *Store) Replace(entry LedgerEntry) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM apply_ops"); err != nil {
			return fmt.Errorf("failed to clear apply ops: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM applies"); err != nil {
			return fmt.Errorf("failed to clear applies: %w", err)
		}

		res, err := tx.Exec(`
			INSERT INTO applies (applied_at, jpg_root, backup_made, backup_dir)
			VALUES (?, ?, ?, ?)
		`, entry.AppliedAt.UTC().Format(time.RFC3339), entry.JPGRoot,
			boolToInt(entry.BackupMade), entry.BackupDir)
		if err != nil {
			return fmt.Errorf("failed to insert apply: %w", err)
		}

		applyID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get apply id: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO apply_ops (apply_id, current_path, original_path)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare op insert: %w", err)
		}
		defer stmt.Close()

		for _, op := range entry.Ops {
			if _, err := stmt.Exec(applyID, op.CurrentPath, op.OriginalPath); err != nil {
				return fmt.Errorf("failed to insert op: %w", err)
			}
		}

		return nil
	})
}

// Ledger returns the stored apply run, or ok=false when none exists.
func (s *Store) Ledger() (LedgerEntry, bool, error) {
	var (
		entry     LedgerEntry
		applyID   int64
		appliedAt string
		backup    int
		backupDir sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT id, applied_at, jpg_root, backup_made, backup_dir
		FROM applies ORDER BY id DESC LIMIT 1
	`).Scan(&applyID, &appliedAt, &entry.JPGRoot, &backup, &backupDir)
	if err == sql.ErrNoRows {
		return LedgerEntry{}, false, nil
	}
	if err != nil {
		return LedgerEntry{}, false, fmt.Errorf("failed to query ledger: %w", err)
	}

	entry.BackupMade = backup != 0
	entry.BackupDir = backupDir.String
	if t, err := time.Parse(time.RFC3339, appliedAt); err == nil {
		entry.AppliedAt = t
	}

	rows, err := s.db.Query(`
		SELECT current_path, original_path
		FROM apply_ops WHERE apply_id = ? ORDER BY id
	`, applyID)
	if err != nil {
		return LedgerEntry{}, false, fmt.Errorf("failed to query ledger ops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op Op
		if err := rows.Scan(&op.CurrentPath, &op.OriginalPath); err != nil {
			return LedgerEntry{}, false, fmt.Errorf("failed to scan ledger op: %w", err)
		}
		entry.Ops = append(entry.Ops, op)
	}
	if err := rows.Err(); err != nil {
		return LedgerEntry{}, false, fmt.Errorf("failed to read ledger ops: %w", err)
	}

	return entry, true, nil
}

// Clear removes the stored apply run.
func (s *Store) Clear() error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM apply_ops"); err != nil {
			return fmt.Errorf("failed to clear apply ops: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM applies"); err != nil {
			return fmt.Errorf("failed to clear applies: %w", err)
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
