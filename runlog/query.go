package runlog

import (
	"context"
	"fmt"
	"time"
)

// Run is one recorded extraction run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	Source     string    `json:"source"`
}

// Document is one recorded document outcome within a run.
type Document struct {
	ID        string  `json:"id"`
	RunID     string  `json:"run_id"`
	Position  int     `json:"position"`
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	TextOK    bool    `json:"text_ok"`
	ReadError string  `json:"read_error,omitempty"`
	Chars     int     `json:"chars"`
	Pages     int     `json:"pages"`
	SizeMB    float64 `json:"size_mb"`
	Title     string  `json:"title,omitempty"`
	Author    string  `json:"author,omitempty"`
	MetaError string  `json:"meta_error,omitempty"`
}

// RecentRuns returns the latest runs, newest first. A non-positive limit
// defaults to 20.
func (r *Recorder) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, total, succeeded, failed,
		       duration_ms, source
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID, or nil when it does not exist.
func (r *Recorder) GetRun(ctx context.Context, id string) (*Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, total, succeeded, failed,
		       duration_ms, source
		FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("runlog: get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RunDocuments returns the documents of a run in batch order.
func (r *Recorder) RunDocuments(ctx context.Context, runID string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc_id, run_id, position, path, filename, text_ok, read_error,
		       chars, pages, size_mb, title, author, meta_error
		FROM run_documents WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("runlog: run documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.RunID, &d.Position, &d.Path, &d.Filename,
			&d.TextOK, &d.ReadError, &d.Chars, &d.Pages, &d.SizeMB, &d.Title,
			&d.Author, &d.MetaError); err != nil {
			return nil, fmt.Errorf("runlog: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(rows rowScanner) (Run, error) {
	var run Run
	var started, finished int64
	if err := rows.Scan(&run.ID, &started, &finished, &run.Total,
		&run.Succeeded, &run.Failed, &run.DurationMS, &run.Source); err != nil {
		return Run{}, fmt.Errorf("runlog: scan run: %w", err)
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	run.FinishedAt = time.Unix(finished, 0).UTC()
	return run, nil
}
