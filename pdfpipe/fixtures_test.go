package pdfpipe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// buildPDF returns a valid PDF with one page per entry of pageTexts and an
// optional Info dictionary. Offsets are computed exactly so strict xref
// parsers accept the file.
func buildPDF(pageTexts []string, title, author string) []byte {
	n := len(pageTexts)

	escape := func(s string) string {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "(", `\(`)
		s = strings.ReplaceAll(s, ")", `\)`)
		return s
	}

	fontObj := 3 + 2*n
	infoObj := 0
	total := fontObj
	if title != "" || author != "" {
		infoObj = fontObj + 1
		total = infoObj
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, total+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strconv.Itoa(3+i) + " 0 R")
	}
	b.WriteString("] /Count " + strconv.Itoa(n) + " >>\nendobj\n")

	for i := 0; i < n; i++ {
		pageObj := 3 + i
		contentObj := 3 + n + i
		offsets[pageObj] = b.Len()
		b.WriteString(strconv.Itoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			strconv.Itoa(contentObj) + " 0 R /Resources << /Font << /F1 " + strconv.Itoa(fontObj) + " 0 R >> >> >>\nendobj\n")
	}

	for i := 0; i < n; i++ {
		contentObj := 3 + n + i
		stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escape(pageTexts[i]) + ") Tj\nET"
		offsets[contentObj] = b.Len()
		b.WriteString(strconv.Itoa(contentObj) + " 0 obj\n<< /Length " + strconv.Itoa(len(stream)) + " >>\nstream\n")
		b.WriteString(stream)
		b.WriteString("\nendstream\nendobj\n")
	}

	offsets[fontObj] = b.Len()
	b.WriteString(strconv.Itoa(fontObj) + " 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	if infoObj > 0 {
		offsets[infoObj] = b.Len()
		b.WriteString(strconv.Itoa(infoObj) + " 0 obj\n<< ")
		if title != "" {
			b.WriteString("/Title (" + escape(title) + ") ")
		}
		if author != "" {
			b.WriteString("/Author (" + escape(author) + ") ")
		}
		b.WriteString(">>\nendobj\n")
	}

	xrefOffset := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(total+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(total+1) + " /Root 1 0 R")
	if infoObj > 0 {
		b.WriteString(" /Info " + strconv.Itoa(infoObj) + " 0 R")
	}
	b.WriteString(" >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

// quietLogger keeps expected-failure noise out of go test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink captures pipeline events for assertions.
type recordingSink struct {
	docs    []DocumentEvent
	batches []BatchEvent
}

func (s *recordingSink) Document(_ context.Context, ev DocumentEvent) {
	s.docs = append(s.docs, ev)
}

func (s *recordingSink) Batch(_ context.Context, ev BatchEvent) {
	s.batches = append(s.batches, ev)
}
