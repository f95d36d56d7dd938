// Package pdfpipe extracts plain text and metadata from PDF documents.
//
// The pipeline separates three concerns:
//   - ExtractText: full text of one document, all pages joined with newlines
//   - Probe: descriptive metadata that never fails, only degrades
//   - ExtractWithMetadata: single or batch coordination with per-document
//     failure isolation and a uniform merged result
//
// Usage:
//
//	pipe := pdfpipe.New(pdfpipe.Config{})
//	batch, err := pipe.ExtractWithMetadata(ctx, pdfpipe.Many(paths))
//	for _, doc := range batch.Docs {
//		fmt.Println(doc.Meta.Filename, doc.Meta.Pages, len(doc.Text))
//	}
package pdfpipe

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"
)

// Pipeline is the PDF extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	sink   EventSink
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		sink:   cfg.Sink,
	}
}

// ExtractWithMetadata runs an extraction request and returns one entry per
// distinct identifier, ordered by first occurrence in the input.
//
// Single requests propagate read errors: the caller gets nil and the
// classified error, and nothing is recorded. Many requests isolate failures
// per document: an unreadable document stays in the result with empty text
// and whatever metadata the probe could salvage, and the call itself only
// fails on an invalid request.
func (p *Pipeline) ExtractWithMetadata(ctx context.Context, req Request) (*Batch, error) {
	switch req.mode {
	case modeSingle:
		return p.extractSingle(ctx, req.path)
	case modeMany:
		return p.extractMany(ctx, req.paths), nil
	default:
		return nil, ErrInvalidRequest
	}
}

func (p *Pipeline) extractSingle(ctx context.Context, path string) (*Batch, error) {
	start := time.Now()

	text, err := p.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	meta := p.Probe(ctx, path)

	elapsed := time.Since(start)
	p.sink.Document(ctx, DocumentEvent{
		Path:     path,
		Filename: filepath.Base(path),
		TextOK:   true,
		Chars:    len(text),
		Meta:     meta,
		Elapsed:  elapsed,
	})
	p.sink.Batch(ctx, BatchEvent{Total: 1, Succeeded: 1, Elapsed: elapsed})

	return &Batch{Docs: []Extraction{{Path: path, Text: text, Meta: meta}}}, nil
}

type textOutcome struct {
	text    string
	readErr string
	elapsed time.Duration
}

func (p *Pipeline) extractMany(ctx context.Context, paths []string) *Batch {
	start := time.Now()

	// Pass 1: text for every entry. A failure lands in the ledger and the
	// document stays in the run; duplicate entries are attempted per
	// occurrence and keep the last outcome.
	p.logger.Info("starting batch extraction", "documents", len(paths))
	outcomes := make(map[string]textOutcome, len(paths))
	var failed []Failure
	for _, path := range paths {
		docStart := time.Now()
		text, err := p.ExtractText(ctx, path)
		if err != nil {
			p.logger.Error("batch document failed", "path", path, "error", err)
			failed = append(failed, Failure{Path: path, Err: err.Error()})
			outcomes[path] = textOutcome{readErr: err.Error(), elapsed: time.Since(docStart)}
			continue
		}
		outcomes[path] = textOutcome{text: text, elapsed: time.Since(docStart)}
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.readErr == "" {
			succeeded++
		}
	}
	p.logger.Info("batch extraction complete", "succeeded", succeeded, "total", len(paths))
	if len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = filepath.Base(f.Path)
		}
		p.logger.Warn("failed to extract documents", "count", len(failed), "files", names)
	}

	// Pass 2: metadata for every distinct identifier, merged in input order.
	// Documents whose text pass failed keep an empty text so the result set
	// stays uniform.
	docs := make([]Extraction, 0, len(outcomes))
	seen := make(map[string]bool, len(outcomes))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		probeStart := time.Now()
		meta := p.Probe(ctx, path)
		o := outcomes[path]
		docs = append(docs, Extraction{Path: path, Text: o.text, Meta: meta})

		p.sink.Document(ctx, DocumentEvent{
			Path:     path,
			Filename: filepath.Base(path),
			Position: len(docs) - 1,
			TextOK:   o.readErr == "",
			ReadErr:  o.readErr,
			Chars:    len(o.text),
			Meta:     meta,
			Elapsed:  o.elapsed + time.Since(probeStart),
		})
	}

	p.sink.Batch(ctx, BatchEvent{
		Total:     len(paths),
		Succeeded: succeeded,
		Failures:  failed,
		Elapsed:   time.Since(start),
	})
	return &Batch{Docs: docs}
}
