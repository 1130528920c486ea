package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kotae.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &models.Source{
		ID:          "s1",
		Type:        models.SourceTypeFile,
		Filename:    "report.pdf",
		Origin:      "/data/uploads/s1_report.pdf",
		ContentHash: "abc123",
		Status:      models.StatusProcessing,
	}
	if err := store.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if src.CreatedAt.IsZero() {
		t.Error("CreatedAt not set on create")
	}

	got, err := store.GetSource(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if got.Filename != "report.pdf" || got.Type != models.SourceTypeFile {
		t.Errorf("got %+v", got)
	}
	if got.Status != models.StatusProcessing {
		t.Errorf("status = %q", got.Status)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
	}
}

func TestSQLiteStore_GetUnknownIsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSource(context.Background(), "missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSQLiteStore_Update(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &models.Source{ID: "s1", Type: models.SourceTypeLink, Origin: "https://example.com", Status: models.StatusProcessing}
	if err := store.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}

	now := time.Now()
	src.Status = models.StatusCompleted
	src.ChunkCount = 7
	src.EmbeddedCount = 7
	src.TextLength = 4200
	src.CompletedAt = &now
	if err := store.UpdateSource(ctx, src); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}

	got, err := store.GetSource(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if got.Status != models.StatusCompleted || got.ChunkCount != 7 || got.EmbeddedCount != 7 {
		t.Errorf("got %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not persisted")
	}
}

func TestSQLiteStore_UpdateUnknownIsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateSource(context.Background(), &models.Source{ID: "missing"})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSQLiteStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &models.Source{ID: "s1", Type: models.SourceTypeFile, Origin: "/f", Status: models.StatusProcessing}
	if err := store.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if err := store.DeleteSource(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	// Second delete of the same ID, and delete of a never-created ID,
	// both succeed.
	if err := store.DeleteSource(ctx, "s1"); err != nil {
		t.Fatalf("second DeleteSource: %v", err)
	}
	if err := store.DeleteSource(ctx, "never-existed"); err != nil {
		t.Fatalf("DeleteSource unknown: %v", err)
	}
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		src := &models.Source{
			ID:        id,
			Type:      models.SourceTypeFile,
			Origin:    "/f/" + id,
			Status:    models.StatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateSource(ctx, src); err != nil {
			t.Fatalf("CreateSource %s: %v", id, err)
		}
	}

	count, err := store.CountSources(ctx)
	if err != nil {
		t.Fatalf("CountSources: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	sources, err := store.ListSources(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("len = %d, want 2", len(sources))
	}
	// Newest first.
	if sources[0].ID != "c" || sources[1].ID != "b" {
		t.Errorf("order = %s, %s; want c, b", sources[0].ID, sources[1].ID)
	}
}

func TestSQLiteStore_FindSourceByOrigin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	older := &models.Source{
		ID:        "s-old",
		Type:      models.SourceTypeFile,
		Origin:    "/watch/notes.txt",
		Status:    models.StatusCompleted,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &models.Source{
		ID:        "s-new",
		Type:      models.SourceTypeFile,
		Origin:    "/watch/notes.txt",
		Status:    models.StatusProcessing,
		CreatedAt: time.Now(),
	}
	for _, src := range []*models.Source{older, newer} {
		if err := store.CreateSource(ctx, src); err != nil {
			t.Fatalf("CreateSource: %v", err)
		}
	}

	got, err := store.FindSourceByOrigin(ctx, "/watch/notes.txt")
	if err != nil {
		t.Fatalf("FindSourceByOrigin: %v", err)
	}
	if got.ID != "s-new" {
		t.Errorf("ID = %q, want the most recent source", got.ID)
	}

	_, err = store.FindSourceByOrigin(ctx, "/watch/other.txt")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}
