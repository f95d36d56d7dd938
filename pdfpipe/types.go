package pdfpipe

// UnknownField is the sentinel stored in Metadata.Title and Metadata.Author
// when the document carries no information dictionary or the field is empty.
const UnknownField = "Unknown"

// Metadata describes a single PDF document. When Err is non-empty the record
// is degraded: only Filename and Err are meaningful, everything else is zero.
type Metadata struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages,omitempty"`
	// FileSizeMB is the on-disk size in mebibytes, rounded half away from
	// zero to two decimals.
	FileSizeMB float64 `json:"file_size_mb,omitempty"`
	Title      string  `json:"title,omitempty"`
	Author     string  `json:"author,omitempty"`
	Err        string  `json:"error,omitempty"`
}

// Degraded reports whether the probe failed for this document.
func (m Metadata) Degraded() bool { return m.Err != "" }

// Extraction is one document's combined text and metadata result. Path is the
// identifier exactly as submitted and acts as the key; the basename is only a
// display field on Meta.
type Extraction struct {
	Path string   `json:"path"`
	Text string   `json:"text"`
	Meta Metadata `json:"meta"`
}

// Batch is the aggregate result of a coordinator call. Docs holds one entry
// per distinct identifier, ordered by first occurrence in the input.
type Batch struct {
	Docs []Extraction `json:"docs"`
}

// Len returns the number of documents in the batch.
func (b *Batch) Len() int { return len(b.Docs) }

// Get returns the extraction for the given identifier.
func (b *Batch) Get(path string) (Extraction, bool) {
	for _, d := range b.Docs {
		if d.Path == path {
			return d, true
		}
	}
	return Extraction{}, false
}

// Failure is one entry of the per-batch failure ledger: a document whose text
// pass failed, with the classified error message. The ledger lives only for
// the duration of the call; it feeds the summary log and the batch event.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

type requestMode int

const (
	modeInvalid requestMode = iota
	modeSingle
	modeMany
)

// Request selects single or batch processing. Build one with Single or Many;
// the zero value is rejected with ErrInvalidRequest.
type Request struct {
	mode  requestMode
	path  string
	paths []string
}

// Single builds a request for one document. Read errors propagate to the
// caller instead of being isolated.
func Single(path string) Request {
	return Request{mode: modeSingle, path: path}
}

// Many builds a request for a collection of documents. Per-document read
// failures are isolated: the batch continues and the failed document keeps an
// empty text.
func Many(paths []string) Request {
	return Request{mode: modeMany, paths: paths}
}
