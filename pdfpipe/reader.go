package pdfpipe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of every page in the document, each
// page's text followed by a newline, including the last. An empty string is a
// valid result: image-only and blank documents extract to nothing without
// being an error. Failures are classified into ErrNotFound, ErrTooLarge,
// ErrCorruptDocument or ErrUnknownRead; errors.Is works on all of them.
func (p *Pipeline) ExtractText(ctx context.Context, path string) (text string, err error) {
	// The parser panics on some malformed cross-reference tables instead of
	// returning an error. Convert that to a read error so one bad file
	// cannot take down a batch.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pdf parser panic", "path", path, "panic", r)
			text = ""
			err = fmt.Errorf("%w: %s: parser panic: %v", ErrUnknownRead, path, r)
		}
	}()

	p.logger.Info("extracting text", "path", path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Error("document not found", "path", path)
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		p.logger.Error("document open failed", "path", path, "error", err)
		return "", fmt.Errorf("%w: open %s: %v", ErrUnknownRead, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		p.logger.Error("document stat failed", "path", path, "error", err)
		return "", fmt.Errorf("%w: stat %s: %v", ErrUnknownRead, path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		p.logger.Error("document too large", "path", path, "size", info.Size(), "max", p.cfg.MaxFileSize)
		return "", fmt.Errorf("%w: %s: %d bytes (max %d)", ErrTooLarge, path, info.Size(), p.cfg.MaxFileSize)
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		p.logger.Error("document parse failed", "path", path, "error", err)
		return "", fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		var pageText string
		page := r.Page(i)
		if !page.V.IsNull() {
			t, pErr := page.GetPlainText(nil)
			if pErr != nil {
				// A broken page contributes an empty slot, not a failure.
				p.logger.Warn("page text extraction failed", "path", path, "page", i, "error", pErr)
			} else {
				pageText = t
			}
		}
		sb.WriteString(pageText)
		sb.WriteByte('\n')
		p.logger.Debug("page extracted", "path", path, "page", i, "chars", len(pageText))
	}

	p.logger.Info("text extracted", "path", path, "pages", pages, "chars", sb.Len())
	return sb.String(), nil
}
