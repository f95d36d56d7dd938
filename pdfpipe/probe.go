package pdfpipe

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Probe returns descriptive metadata for the document at path. It never
// fails: on any error, including a parser panic, the record degrades to the
// basename plus the error message so callers always have something to render.
// The probe opens and parses the file itself; it shares no state with
// ExtractText.
func (p *Pipeline) Probe(ctx context.Context, path string) (meta Metadata) {
	name := filepath.Base(path)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("metadata probe panic", "path", path, "panic", r)
			meta = Metadata{Filename: name, Err: fmt.Sprintf("parser panic: %v", r)}
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		p.logger.Error("metadata probe failed", "path", path, "error", err)
		return Metadata{Filename: name, Err: err.Error()}
	}
	if info.Size() > p.cfg.MaxFileSize {
		sizeErr := fmt.Sprintf("%d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
		p.logger.Error("metadata probe refused oversize document", "path", path, "size", info.Size())
		return Metadata{Filename: name, Err: "document too large: " + sizeErr}
	}

	f, err := os.Open(path)
	if err != nil {
		p.logger.Error("metadata probe failed", "path", path, "error", err)
		return Metadata{Filename: name, Err: err.Error()}
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		p.logger.Error("metadata probe failed", "path", path, "error", err)
		return Metadata{Filename: name, Err: fmt.Sprintf("pdf read: %v", err)}
	}

	title := pdfCtx.Title
	if title == "" {
		title = UnknownField
	}
	author := pdfCtx.Author
	if author == "" {
		author = UnknownField
	}

	p.logger.Debug("metadata probed", "path", path, "pages", pdfCtx.PageCount)
	return Metadata{
		Filename:   name,
		Pages:      pdfCtx.PageCount,
		FileSizeMB: roundMB(info.Size()),
		Title:      title,
		Author:     author,
	}
}

func roundMB(size int64) float64 {
	return math.Round(float64(size)/(1<<20)*100) / 100
}
