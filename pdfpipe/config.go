package pdfpipe

import "log/slog"

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum document size to process (default: 100 MB).
	// Oversize documents fail text extraction with ErrTooLarge and probe as
	// degraded.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for per-document progress and failures.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// Sink receives document and batch outcome events. Optional.
	Sink EventSink `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Sink == nil {
		c.Sink = nopSink{}
	}
}
