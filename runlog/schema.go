package runlog

import "database/sql"

// Schema contains the complete DDL for the run ledger. Open applies it
// automatically; the constant is exported for embedding in external schema
// management.
const Schema = `
-- Extraction runs
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    total INTEGER NOT NULL,
    succeeded INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started
    ON runs(started_at DESC);

-- Per-document outcomes
CREATE TABLE IF NOT EXISTS run_documents (
    doc_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    filename TEXT NOT NULL,
    text_ok INTEGER NOT NULL,
    read_error TEXT NOT NULL DEFAULT '',
    chars INTEGER NOT NULL DEFAULT 0,
    pages INTEGER NOT NULL DEFAULT 0,
    size_mb REAL NOT NULL DEFAULT 0,
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    meta_error TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_run_documents_run
    ON run_documents(run_id, position);
`

// Init applies the runlog schema to the database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
