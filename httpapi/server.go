// Package httpapi exposes the pdfpipe extraction pipeline over HTTP. It wires
// the coordinator, the optional run ledger and the webhook notifier behind a
// chi router with request tracing, security headers and optional Basic auth.
//
// Usage:
//
//	cfg, _ := httpapi.LoadConfig("pdfbatchd.yml")
//	srv, _ := httpapi.New(cfg, logger, httpapi.WithRecorder(rec))
//	http.ListenAndServe(cfg.Listen, srv.Routes())
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docgrove/pdfbatch/pdfpipe"
	"github.com/docgrove/pdfbatch/runlog"
)

// jsonBodyLimit caps JSON request bodies. Uploads carry whole documents and
// get MaxFileBytes instead.
const jsonBodyLimit = 1 << 20

// Server handles the /v1 extraction API.
type Server struct {
	cfg     *Config
	logger  *slog.Logger
	pipe    *pdfpipe.Pipeline
	rec     *runlog.Recorder // optional, enables the run history endpoints
	notify  *notifier        // optional, webhook delivery
	client  *http.Client     // webhook client
	root    string           // absolute RootDir, empty when confinement is off
	started time.Time
}

// Option configures optional collaborators on the server.
type Option func(*Server)

// WithRecorder persists every completed run to the given ledger and enables
// the /v1/runs endpoints.
func WithRecorder(rec *runlog.Recorder) Option {
	return func(s *Server) { s.rec = rec }
}

// WithHTTPClient overrides the client used for webhook delivery.
// Use in tests with httptest servers.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.client = c }
}

// New creates a Server. The extraction pipeline is built from cfg, with the
// recorder and the webhook notifier attached as event sinks when configured.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		client:  &http.Client{Timeout: 10 * time.Second},
		started: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.RootDir != "" {
		root, err := filepath.Abs(cfg.RootDir)
		if err != nil {
			return nil, fmt.Errorf("resolve root_dir: %w", err)
		}
		s.root = root
	}

	if len(cfg.Webhooks) > 0 {
		s.notify = newNotifier(cfg.Webhooks, logger, s.client)
	}

	var sinks []pdfpipe.EventSink
	if s.rec != nil {
		sinks = append(sinks, s.rec)
	}
	if s.notify != nil {
		sinks = append(sinks, s.notify)
	}
	var sink pdfpipe.EventSink
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = pdfpipe.MultiSink(sinks...)
	}

	s.pipe = pdfpipe.New(pdfpipe.Config{
		MaxFileSize: cfg.MaxFileBytes(),
		Logger:      logger,
		Sink:        sink,
	})

	return s, nil
}

// Pipeline returns the underlying extraction pipeline, for wiring the same
// instance into other transports (MCP).
func (s *Server) Pipeline() *pdfpipe.Pipeline { return s.pipe }

// Routes builds the chi router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(securityHeaders)
	if s.cfg.AuthEnabled() {
		r.Use(s.basicAuth)
	}

	r.Get("/v1/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(maxBody(jsonBodyLimit))
		r.Post("/v1/extract", s.handleExtract)
		r.Get("/v1/metadata", s.handleMetadata)
		r.Get("/v1/runs", s.handleRuns)
		r.Get("/v1/runs/{runID}", s.handleRun)
	})

	r.Group(func(r chi.Router) {
		// multipart framing adds overhead on top of the document itself
		r.Use(maxBody(s.cfg.MaxFileBytes() + jsonBodyLimit))
		r.Post("/v1/extract/upload", s.handleUpload)
	})

	return r
}
