package pdfpipe

import (
	"context"
	"time"
)

// DocumentEvent describes the outcome of one document in a coordinator call.
type DocumentEvent struct {
	Path     string
	Filename string
	Position int // zero-based position in the merged result
	TextOK   bool
	ReadErr  string // classified read error when TextOK is false
	Chars    int    // length of the extracted text
	Meta     Metadata
	Elapsed  time.Duration
}

// BatchEvent summarizes a completed coordinator call. Failures is the ledger
// snapshot: one entry per failed text-extraction attempt.
type BatchEvent struct {
	Total     int
	Succeeded int
	Failures  []Failure
	Elapsed   time.Duration
}

// EventSink receives extraction outcomes. The pipeline calls it inline, so
// implementations must return quickly and never panic.
type EventSink interface {
	Document(ctx context.Context, ev DocumentEvent)
	Batch(ctx context.Context, ev BatchEvent)
}

type nopSink struct{}

func (nopSink) Document(context.Context, DocumentEvent) {}
func (nopSink) Batch(context.Context, BatchEvent)       {}

// MultiSink fans events out to every sink in order.
func MultiSink(sinks ...EventSink) EventSink { return multiSink(sinks) }

type multiSink []EventSink

func (m multiSink) Document(ctx context.Context, ev DocumentEvent) {
	for _, s := range m {
		s.Document(ctx, ev)
	}
}

func (m multiSink) Batch(ctx context.Context, ev BatchEvent) {
	for _, s := range m {
		s.Batch(ctx, ev)
	}
}
