// Command pdfbatch extracts text and metadata from PDF documents.
//
// Usage:
//
//	pdfbatch report.pdf invoice.pdf          # per-document summary
//	pdfbatch -json *.pdf                     # full batch as JSON
//	pdfbatch -meta-only report.pdf           # metadata probe only
//	pdfbatch -runlog runs.db *.pdf           # record the run in a ledger
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/docgrove/pdfbatch/pdfpipe"
	"github.com/docgrove/pdfbatch/runlog"
)

const previewChars = 200

func main() {
	jsonOut := flag.Bool("json", false, "emit the full batch as JSON on stdout")
	metaOnly := flag.Bool("meta-only", false, "probe metadata only, skip text extraction")
	runlogPath := flag.String("runlog", "", "record the run in the given SQLite ledger")
	maxMB := flag.Int("max-mb", 100, "maximum document size in MB")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: pdfbatch [-json] [-meta-only] [-runlog <db>] [-max-mb <n>] <pdf>...")
		os.Exit(2)
	}
	if *maxMB <= 0 {
		fmt.Fprintln(os.Stderr, "pdfbatch: -max-mb must be > 0")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed, err := run(ctx, logger, paths, *jsonOut, *metaOnly, *runlogPath, *maxMB)
	if err != nil {
		logger.Error("pdfbatch: fatal", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, paths []string, jsonOut, metaOnly bool, runlogPath string, maxMB int) (failed int, err error) {
	tl := &tally{}
	sinks := []pdfpipe.EventSink{tl}
	if runlogPath != "" {
		db, err := runlog.Open(runlogPath, runlog.WithMkdirAll())
		if err != nil {
			return 0, fmt.Errorf("open runlog: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, runlog.NewRecorder(db,
			runlog.WithSource("cli"),
			runlog.WithLogger(logger)))
	}

	pipe := pdfpipe.New(pdfpipe.Config{
		MaxFileSize: int64(maxMB) * 1024 * 1024,
		Logger:      logger,
		Sink:        pdfpipe.MultiSink(sinks...),
	})

	if metaOnly {
		return runMetaOnly(ctx, pipe, paths, jsonOut)
	}

	batch, err := pipe.ExtractWithMetadata(ctx, pdfpipe.Many(paths))
	if err != nil {
		return 0, err
	}

	for _, ev := range tl.docs {
		if !ev.TextOK {
			failed++
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return failed, fmt.Errorf("encode batch: %w", err)
		}
		return failed, nil
	}

	for i, doc := range batch.Docs {
		readErr := ""
		if i < len(tl.docs) {
			readErr = tl.docs[i].ReadErr
		}
		printSummary(doc, readErr)
	}
	fmt.Printf("%d/%d documents extracted\n", len(batch.Docs)-failed, len(batch.Docs))
	return failed, nil
}

func runMetaOnly(ctx context.Context, pipe *pdfpipe.Pipeline, paths []string, jsonOut bool) (failed int, err error) {
	metas := make([]pdfpipe.Metadata, 0, len(paths))
	for _, path := range paths {
		meta := pipe.Probe(ctx, path)
		if meta.Degraded() {
			failed++
		}
		metas = append(metas, meta)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metas); err != nil {
			return failed, fmt.Errorf("encode metadata: %w", err)
		}
		return failed, nil
	}

	for _, meta := range metas {
		printMeta(meta)
		fmt.Println()
	}
	fmt.Printf("%d/%d documents probed\n", len(metas)-failed, len(metas))
	return failed, nil
}

// tally keeps the coordinator's own per-document accounting so exit status
// and the summary line match what actually happened.
type tally struct {
	docs []pdfpipe.DocumentEvent
}

func (t *tally) Document(_ context.Context, ev pdfpipe.DocumentEvent) {
	t.docs = append(t.docs, ev)
}

func (t *tally) Batch(context.Context, pdfpipe.BatchEvent) {}

func printSummary(doc pdfpipe.Extraction, readErr string) {
	if readErr != "" {
		fmt.Println(doc.Meta.Filename)
		fmt.Printf("  error:   %s\n", readErr)
		fmt.Println()
		return
	}
	printMeta(doc.Meta)
	fmt.Printf("  chars:   %d\n", len(doc.Text))
	fmt.Printf("  preview: %s\n", preview(doc.Text))
	fmt.Println()
}

func printMeta(meta pdfpipe.Metadata) {
	fmt.Println(meta.Filename)
	if meta.Degraded() {
		fmt.Printf("  error:   %s\n", meta.Err)
		return
	}
	fmt.Printf("  pages:   %d\n", meta.Pages)
	fmt.Printf("  size:    %.2f MB\n", meta.FileSizeMB)
	fmt.Printf("  title:   %s\n", orNA(meta.Title))
	fmt.Printf("  author:  %s\n", orNA(meta.Author))
}

func orNA(s string) string {
	if s == "" || s == pdfpipe.UnknownField {
		return "n/a"
	}
	return s
}

// preview returns the head of the text with runs of whitespace collapsed so
// the summary stays on one line.
func preview(text string) string {
	joined := strings.Join(strings.Fields(text), " ")
	if len(joined) > previewChars {
		return joined[:previewChars] + "..."
	}
	return joined
}
