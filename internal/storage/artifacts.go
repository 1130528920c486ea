package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
)

// Artifacts manages the on-disk files that accompany a source: the
// uploaded file, an optional transcript, and a cached copy of the chunks.
// All of these are peripheral; losing one never invalidates the source
// record or its embeddings.
type Artifacts struct {
	dataDir string
	logger  *zap.Logger
}

// NewArtifacts creates an artifact manager rooted at dataDir and makes
// sure the subdirectories exist.
func NewArtifacts(dataDir string, logger *zap.Logger) (*Artifacts, error) {
	a := &Artifacts{dataDir: dataDir, logger: logger}
	for _, dir := range []string{a.UploadsDir(), a.TranscriptsDir(), a.chunksDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create artifact directory %s: %w", dir, err)
		}
	}
	return a, nil
}

// UploadsDir is where uploaded files are stored.
func (a *Artifacts) UploadsDir() string { return filepath.Join(a.dataDir, "uploads") }

// TranscriptsDir is where link transcripts are stored.
func (a *Artifacts) TranscriptsDir() string { return filepath.Join(a.dataDir, "transcripts") }

func (a *Artifacts) chunksDir() string { return filepath.Join(a.dataDir, "chunks") }

// UploadPath returns the storage path for an uploaded file.
func (a *Artifacts) UploadPath(sourceID, filename string) string {
	return filepath.Join(a.UploadsDir(), sourceID+"_"+filepath.Base(filename))
}

// TranscriptPath returns the transcript path for a link source.
func (a *Artifacts) TranscriptPath(sourceID string) string {
	return filepath.Join(a.TranscriptsDir(), sourceID+".txt")
}

// ChunkCachePath returns the chunk cache path for a source.
func (a *Artifacts) ChunkCachePath(sourceID string) string {
	return filepath.Join(a.chunksDir(), sourceID+".json")
}

// WriteChunkCache persists the chunks produced for a source as JSON.
func (a *Artifacts) WriteChunkCache(sourceID string, chunks []models.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	return os.WriteFile(a.ChunkCachePath(sourceID), data, 0644)
}

// Remove deletes every artifact belonging to src, best-effort. Failures
// are logged, never returned: a leftover file on disk must not block
// source deletion. Only files under the uploads directory are removed;
// a file source whose origin lives elsewhere (a watched directory) is
// the user's own file and stays on disk.
func (a *Artifacts) Remove(src *models.Source) {
	paths := []string{
		a.TranscriptPath(src.ID),
		a.ChunkCachePath(src.ID),
	}
	if src.Type == models.SourceTypeFile && a.ownsUpload(src.Origin) {
		paths = append(paths, src.Origin)
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if a.logger != nil {
				a.logger.Warn("failed to remove artifact",
					zap.String("source_id", src.ID),
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
	}
}

// ownsUpload reports whether path is a file stored by the upload
// handler, as opposed to an external file ingested in place.
func (a *Artifacts) ownsUpload(path string) bool {
	return path != "" && filepath.Dir(path) == a.UploadsDir()
}

// DiskUsageBytes returns the total size of the artifact directories,
// summed recursively. Missing paths contribute 0.
func (a *Artifacts) DiskUsageBytes() (int64, error) {
	var total int64
	for _, dir := range []string{a.UploadsDir(), a.TranscriptsDir(), a.chunksDir()} {
		err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info != nil && !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
