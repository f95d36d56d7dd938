package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docgrove/pdfbatch/pdfpipe"
	"github.com/docgrove/pdfbatch/runlog"
)

// extractRequest is the POST /v1/extract body. Exactly one of Path and Paths
// must be set; a present-but-empty paths list is a valid empty batch.
type extractRequest struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	single := req.Path != ""
	batch := req.Paths != nil
	if single == batch {
		writeError(w, http.StatusBadRequest, fmt.Errorf("exactly one of path or paths is required"))
		return
	}

	if single {
		resolved, err := s.resolvePath(req.Path)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := s.pipe.ExtractWithMetadata(r.Context(), pdfpipe.Single(resolved))
		if err != nil {
			Logger(r.Context()).Error("extraction failed", "path", req.Path, "error", err)
			writeError(w, statusForError(err), err)
			return
		}
		doc := res.Docs[0]
		doc.Path = req.Path
		writeJSON(w, http.StatusOK, doc)
		return
	}

	// Responses keep the identifiers the client sent, not the resolved
	// server-side paths.
	original := make(map[string]string, len(req.Paths))
	paths := make([]string, len(req.Paths))
	for i, p := range req.Paths {
		resolved, err := s.resolvePath(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("paths[%d]: %w", i, err))
			return
		}
		paths[i] = resolved
		if _, ok := original[resolved]; !ok {
			original[resolved] = p
		}
	}
	res, err := s.pipe.ExtractWithMetadata(r.Context(), pdfpipe.Many(paths))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	for i := range res.Docs {
		if p, ok := original[res.Docs[i].Path]; ok {
			res.Docs[i].Path = p
		}
	}
	if res.Docs == nil {
		res.Docs = []pdfpipe.Extraction{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload too large"))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field is required: %w", err))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "pdfbatch-upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("spool upload: %w", err))
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, fmt.Errorf("spool upload: %w", err))
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("spool upload: %w", err))
		return
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload.pdf"
	}

	res, err := s.pipe.ExtractWithMetadata(r.Context(), pdfpipe.Single(tmp.Name()))
	if err != nil {
		Logger(r.Context()).Error("upload extraction failed", "filename", name, "error", err)
		writeError(w, statusForError(err), err)
		return
	}
	doc := res.Docs[0]
	doc.Path = name
	doc.Meta.Filename = name
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("path query parameter is required"))
		return
	}
	resolved, err := s.resolvePath(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	meta := s.pipe.Probe(r.Context(), resolved)
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("run ledger is not configured"))
		return
	}
	runs, err := s.rec.RecentRuns(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		Logger(r.Context()).Error("list runs", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list runs: %w", err))
		return
	}
	if runs == nil {
		runs = []runlog.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("run ledger is not configured"))
		return
	}
	runID := chi.URLParam(r, "runID")
	run, err := s.rec.GetRun(r.Context(), runID)
	if err != nil {
		Logger(r.Context()).Error("get run", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("get run: %w", err))
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	}
	docs, err := s.rec.RunDocuments(r.Context(), runID)
	if err != nil {
		Logger(r.Context()).Error("get run documents", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("get run documents: %w", err))
		return
	}
	if docs == nil {
		docs = []runlog.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "documents": docs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"ledger":         s.rec != nil,
	})
}

// resolvePath maps a request path onto the filesystem. With RootDir set the
// path must land inside it; traversal out of the root is rejected.
func (s *Server) resolvePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	if s.root == "" {
		return p, nil
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the document root", p)
	}
	return full, nil
}

// statusForError maps the extraction error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pdfpipe.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pdfpipe.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pdfpipe.ErrCorruptDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pdfpipe.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
