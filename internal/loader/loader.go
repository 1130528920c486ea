// Package loader turns a source (uploaded file or link) into raw text.
// Format-specific extraction lives here; the ingestion pipeline only sees
// the Load capability and a LoadError when content cannot be produced.
package loader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// LoadError reports that a source's content could not be loaded:
// unreachable, unsupported, or empty.
type LoadError struct {
	Origin string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Origin, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader loads text for file and link sources. File sources are read from
// disk and dispatched on extension. Link sources prefer an on-disk
// transcript when one exists for the source, and otherwise fetch the page
// over HTTP and strip markup.
type Loader struct {
	transcriptsDir string
	client         *http.Client
}

// Option configures a Loader.
type Option func(*Loader)

// WithTranscriptsDir points the loader at a directory of
// {source_id}.txt transcript files consulted before fetching a link.
func WithTranscriptsDir(dir string) Option {
	return func(l *Loader) { l.transcriptsDir = dir }
}

// WithHTTPClient overrides the HTTP client used for link sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// New returns a Loader with a 30s HTTP timeout for link fetches.
func New(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the raw text for src. The returned text may still need
// cleaning; blank text is reported as a LoadError here so callers never
// see an empty success.
func (l *Loader) Load(ctx context.Context, src *models.Source) (string, error) {
	var (
		text string
		err  error
	)
	switch src.Type {
	case models.SourceTypeFile:
		text, err = l.loadFile(src.Origin)
	case models.SourceTypeLink:
		text, err = l.loadLink(ctx, src)
	default:
		err = fmt.Errorf("unknown source type %q", src.Type)
	}
	if err != nil {
		return "", &LoadError{Origin: src.Origin, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &LoadError{Origin: src.Origin, Err: fmt.Errorf("no text content")}
	}
	return text, nil
}

// plainExtensions are read as UTF-8 text without format-specific parsing.
var plainExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".rst":  true,
	".html": true,
	".htm":  true,
	".json": true,
	".log":  true,
}

func (l *Loader) loadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return loadPDF(content)
	case ext == ".docx" || ext == ".odt" || ext == ".rtf":
		return loadDOCX(content)
	case ext == ".xlsx":
		return loadExcel(content)
	case ext == ".csv":
		return loadCSV(content)
	case ext == ".pptx":
		return loadPPTX(content)
	case ext == ".odp" || ext == ".ods":
		return loadOpenDocument(content)
	case plainExtensions[ext]:
		return loadPlain(content), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
}

func (l *Loader) loadLink(ctx context.Context, src *models.Source) (string, error) {
	if l.transcriptsDir != "" {
		path := filepath.Join(l.transcriptsDir, src.ID+".txt")
		if content, err := os.ReadFile(path); err == nil {
			return loadPlain(content), nil
		}
	}
	return l.fetchPage(ctx, src.Origin)
}
