package pdfpipe

import "errors"

// ErrNotFound is returned when the document path does not exist.
var ErrNotFound = errors.New("pdfpipe: document not found")

// ErrTooLarge is returned when a document exceeds Config.MaxFileSize.
var ErrTooLarge = errors.New("pdfpipe: document too large")

// ErrCorruptDocument is returned when the parser rejects the file structure.
var ErrCorruptDocument = errors.New("pdfpipe: corrupt document")

// ErrUnknownRead is returned for read failures outside the other categories,
// including parser panics converted by the reader.
var ErrUnknownRead = errors.New("pdfpipe: unknown read error")

// ErrInvalidRequest is returned for a Request built neither with Single nor
// with Many.
var ErrInvalidRequest = errors.New("pdfpipe: invalid request")
