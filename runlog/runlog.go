// Package runlog persists extraction run outcomes to SQLite.
//
// The Recorder implements pdfpipe.EventSink: document events are buffered in
// memory and written together with their batch event as one run, in a single
// transaction. Recording never propagates storage errors into the extraction
// path; failures are logged and the run is dropped.
//
// Usage:
//
//	db, err := runlog.Open("runs.db", runlog.WithMkdirAll())
//	rec := runlog.NewRecorder(db, runlog.WithSource("cli"))
//	pipe := pdfpipe.New(pdfpipe.Config{Sink: rec})
package runlog

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/docgrove/pdfbatch/pdfpipe"
)

// Recorder writes extraction outcomes to the run ledger. It assumes one run
// at a time, matching the sequential pipeline; interleaved runs would mix
// their buffered documents.
type Recorder struct {
	db       *sql.DB
	logger   *slog.Logger
	source   string
	newRunID Generator
	newDocID Generator

	mu      sync.Mutex
	pending []pdfpipe.DocumentEvent
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSource labels recorded runs with their origin, e.g. "cli", "http",
// "upload" or "mcp".
func WithSource(source string) Option {
	return func(r *Recorder) { r.source = source }
}

// WithLogger sets the logger used for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithRunIDGenerator sets a custom ID generator for run IDs.
func WithRunIDGenerator(gen Generator) Option {
	return func(r *Recorder) { r.newRunID = gen }
}

// WithDocumentIDGenerator sets a custom ID generator for document IDs.
func WithDocumentIDGenerator(gen Generator) Option {
	return func(r *Recorder) { r.newDocID = gen }
}

// NewRecorder creates a recorder backed by the given ledger database.
func NewRecorder(db *sql.DB, opts ...Option) *Recorder {
	r := &Recorder{
		db:       db,
		logger:   slog.Default(),
		newRunID: Prefixed("run_", UUID()),
		newDocID: Prefixed("doc_", UUID()),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Document buffers a document outcome until the enclosing batch completes.
func (r *Recorder) Document(ctx context.Context, ev pdfpipe.DocumentEvent) {
	r.mu.Lock()
	r.pending = append(r.pending, ev)
	r.mu.Unlock()
}

// Batch writes the buffered documents plus the run summary in one
// transaction. Non-blocking: errors are logged via slog but do not propagate,
// so a failing ledger never breaks an extraction run.
func (r *Recorder) Batch(ctx context.Context, ev pdfpipe.BatchEvent) {
	r.mu.Lock()
	docs := r.pending
	r.pending = nil
	r.mu.Unlock()

	runID := r.newRunID()
	finished := time.Now().Unix()
	started := finished - int64(ev.Elapsed/time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("runlog begin failed", "error", err)
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, started_at, finished_at, total, succeeded, failed,
			duration_ms, source
		) VALUES (?,?,?,?,?,?,?,?)`,
		runID, started, finished, ev.Total, ev.Succeeded, len(ev.Failures),
		ev.Elapsed.Milliseconds(), r.source)
	if err != nil {
		r.logger.Error("runlog insert run failed", "error", err, "run", runID)
		return
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_documents (
			doc_id, run_id, position, path, filename, text_ok, read_error,
			chars, pages, size_mb, title, author, meta_error
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		r.logger.Error("runlog prepare failed", "error", err, "run", runID)
		return
	}
	defer stmt.Close()

	for _, d := range docs {
		_, err := stmt.ExecContext(ctx,
			r.newDocID(), runID, d.Position, d.Path, d.Filename, d.TextOK,
			d.ReadErr, d.Chars, d.Meta.Pages, d.Meta.FileSizeMB, d.Meta.Title,
			d.Meta.Author, d.Meta.Err)
		if err != nil {
			r.logger.Error("runlog insert document failed", "error", err, "run", runID, "path", d.Path)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("runlog commit failed", "error", err, "run", runID)
	}
}

var _ pdfpipe.EventSink = (*Recorder)(nil)
