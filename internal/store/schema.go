package store

const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Most recent apply run, at most one row
CREATE TABLE IF NOT EXISTS applies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  applied_at DATETIME NOT NULL,
  jpg_root TEXT NOT NULL,
  backup_made INTEGER NOT NULL DEFAULT 0,
  backup_dir TEXT
);

-- Renames belonging to the apply run, in apply order
CREATE TABLE IF NOT EXISTS apply_ops (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  apply_id INTEGER NOT NULL REFERENCES applies(id) ON DELETE CASCADE,
  current_path TEXT NOT NULL,
  original_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_apply_ops_apply ON apply_ops(apply_id);
`
