package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/loader"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

type fakeIngest struct {
	mu   sync.Mutex
	runs []*models.Source
}

func (f *fakeIngest) Run(ctx context.Context, src *models.Source) *pipeline.IngestionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, src)
	return &pipeline.IngestionState{Source: src}
}

type fakeDelete struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeDelete) Run(ctx context.Context, sourceID string) (*pipeline.DeletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sourceID)
	return &pipeline.DeletionResult{SourceID: sourceID, DeletedCount: 1}, nil
}

func newBridgeEnv(t *testing.T) (*Bridge, *storage.SQLiteStore, *fakeIngest, *fakeDelete, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "sources.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	ingest := &fakeIngest{}
	del := &fakeDelete{}
	return NewBridge(store, ingest, del), store, ingest, del, dir
}

func TestBridge_HandleChange_ingestsNewFile(t *testing.T) {
	bridge, store, ingest, del, dir := newBridgeEnv(t)

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0600); err != nil {
		t.Fatal(err)
	}

	bridge.HandleChange(path)

	if len(ingest.runs) != 1 {
		t.Fatalf("expected 1 ingestion run, got %d", len(ingest.runs))
	}
	src := ingest.runs[0]
	if src.Type != models.SourceTypeFile {
		t.Errorf("Type = %q, want file", src.Type)
	}
	if src.Filename != "notes.txt" {
		t.Errorf("Filename = %q", src.Filename)
	}
	if src.Origin != path {
		t.Errorf("Origin = %q, want %q", src.Origin, path)
	}
	if src.ContentHash == "" {
		t.Error("ContentHash should be set")
	}
	if len(del.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", del.deleted)
	}

	// The record must exist before the pipeline runs.
	stored, err := store.FindSourceByOrigin(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != src.ID {
		t.Errorf("stored ID = %q, want %q", stored.ID, src.ID)
	}
}

func TestBridge_HandleChange_skipsUnchangedFile(t *testing.T) {
	bridge, _, ingest, del, dir := newBridgeEnv(t)

	path := filepath.Join(dir, "stable.txt")
	if err := os.WriteFile(path, []byte("same content"), 0600); err != nil {
		t.Fatal(err)
	}

	bridge.HandleChange(path)
	bridge.HandleChange(path)

	if len(ingest.runs) != 1 {
		t.Errorf("unchanged file should be ingested once, got %d runs", len(ingest.runs))
	}
	if len(del.deleted) != 0 {
		t.Errorf("unchanged file should not trigger deletion, got %v", del.deleted)
	}
}

func TestBridge_HandleChange_replacesModifiedFile(t *testing.T) {
	bridge, _, ingest, del, dir := newBridgeEnv(t)

	path := filepath.Join(dir, "draft.txt")
	if err := os.WriteFile(path, []byte("version one"), 0600); err != nil {
		t.Fatal(err)
	}
	bridge.HandleChange(path)

	if err := os.WriteFile(path, []byte("version two"), 0600); err != nil {
		t.Fatal(err)
	}
	bridge.HandleChange(path)

	if len(ingest.runs) != 2 {
		t.Fatalf("expected 2 ingestion runs, got %d", len(ingest.runs))
	}
	if len(del.deleted) != 1 {
		t.Fatalf("expected 1 deletion of the stale source, got %d", len(del.deleted))
	}
	if del.deleted[0] != ingest.runs[0].ID {
		t.Errorf("deleted %q, want first source %q", del.deleted[0], ingest.runs[0].ID)
	}
	if ingest.runs[0].ContentHash == ingest.runs[1].ContentHash {
		t.Error("content hash should change with the content")
	}
}

// newLiveBridge wires the bridge to the real ingestion and deletion
// pipelines so artifact handling is exercised, not faked.
func newLiveBridge(t *testing.T) (*Bridge, *storage.SQLiteStore, string) {
	t.Helper()
	watched := t.TempDir()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	artifacts, err := storage.NewArtifacts(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ch, err := chunker.New(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	client := embedding.NewClient(embedding.NewMockProvider(8))
	adapter := vectorstore.NewAdapter(vectorstore.NewMemoryStore(), client.Dimensions())
	ingestion := pipeline.NewIngestion(loader.New(), ch, client, adapter, store, artifacts, nil)
	deletion := pipeline.NewDeletion(adapter, store, artifacts, nil)
	return NewBridge(store, ingestion, deletion), store, watched
}

func TestBridge_ModifiedWatchedFileSurvivesReingestion(t *testing.T) {
	bridge, store, watched := newLiveBridge(t)
	ctx := context.Background()

	path := filepath.Join(watched, "doc.txt")
	if err := os.WriteFile(path, []byte("the first revision of the watched document text"), 0600); err != nil {
		t.Fatal(err)
	}
	bridge.HandleChange(path)

	if err := os.WriteFile(path, []byte("the second revision with entirely different words inside"), 0600); err != nil {
		t.Fatal(err)
	}
	bridge.HandleChange(path)

	// Replacing the stale source must not delete the user's file.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("watched file gone after re-ingestion: %v", err)
	}
	src, err := store.FindSourceByOrigin(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Status != models.StatusCompleted {
		t.Errorf("status = %q (error %q), want completed", src.Status, src.Error)
	}
	all, err := store.ListSources(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("sources = %d, want only the replacement", len(all))
	}
}

func TestBridge_HandleChange_unreadableFileIsIgnored(t *testing.T) {
	bridge, _, ingest, _, dir := newBridgeEnv(t)

	bridge.HandleChange(filepath.Join(dir, "does-not-exist.txt"))

	if len(ingest.runs) != 0 {
		t.Errorf("unreadable file should not be ingested, got %d runs", len(ingest.runs))
	}
}

func TestBridge_HandleRemove_deletesMatchingSource(t *testing.T) {
	bridge, _, ingest, del, dir := newBridgeEnv(t)

	path := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(path, []byte("short lived"), 0600); err != nil {
		t.Fatal(err)
	}
	bridge.HandleChange(path)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	bridge.HandleRemove(path)

	if len(del.deleted) != 1 || del.deleted[0] != ingest.runs[0].ID {
		t.Errorf("deleted = %v, want [%s]", del.deleted, ingest.runs[0].ID)
	}
}

func TestBridge_HandleRemove_unknownPathIsNoop(t *testing.T) {
	bridge, _, _, del, dir := newBridgeEnv(t)

	bridge.HandleRemove(filepath.Join(dir, "never-seen.txt"))

	if len(del.deleted) != 0 {
		t.Errorf("unknown path should not trigger deletion, got %v", del.deleted)
	}
}
