package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexilocal/lexilocal/internal/config"
	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/infrastructure/index/flat"
	"github.com/lexilocal/lexilocal/internal/infrastructure/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dataConfig(dir string) config.Config {
	var cfg config.Config
	cfg.Store.SQLitePath = filepath.Join(dir, "lexilocal.db")
	cfg.Store.VectorIndexPath = filepath.Join(dir, "lexilocal.vectors")
	cfg.Store.UploadDir = filepath.Join(dir, "uploads")
	return cfg
}

// seedStoreWithChunks creates the sqlite file with one indexed document.
func seedStoreWithChunks(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	doc := &domain.Document{ID: "d1", Title: "Doc", Text: "body", Status: domain.StatusReady}
	if err := store.Put(ctx, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	tx, err := store.ReplaceChunks(ctx, "d1")
	if err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}
	chunk := domain.Chunk{ID: domain.ChunkID("d1", 0), DocumentID: "d1", Index: 0, End: 4, Text: "body"}
	if err := tx.Put(chunk); err != nil {
		t.Fatalf("tx.Put: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}
}

func saveVectorArtifact(t *testing.T, path string, dim int) {
	t.Helper()
	ix := flat.New()
	vec := make([]float32, dim)
	vec[0] = 1
	if err := ix.Add(vec, domain.ChunkID("d1", 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestNewRejectsVectorArtifactWithoutStore(t *testing.T) {
	cfg := dataConfig(t.TempDir())
	saveVectorArtifact(t, cfg.Store.VectorIndexPath, 4)

	_, err := New(context.Background(), cfg, testLogger())
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence for vector artifact without store, got %v", err)
	}
}

func TestNewRejectsChunkRowsWithoutVectorArtifact(t *testing.T) {
	cfg := dataConfig(t.TempDir())
	seedStoreWithChunks(t, cfg.Store.SQLitePath)
	if _, err := os.Stat(cfg.Store.VectorIndexPath); err == nil {
		t.Fatal("fixture error: vector artifact should not exist")
	}

	_, err := New(context.Background(), cfg, testLogger())
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence for chunk rows without vector artifact, got %v", err)
	}
}

func TestNewRejectsEmbeddingDimensionMismatch(t *testing.T) {
	cfg := dataConfig(t.TempDir())
	cfg.Ollama.EmbeddingDim = 8
	seedStoreWithChunks(t, cfg.Store.SQLitePath)
	saveVectorArtifact(t, cfg.Store.VectorIndexPath, 4)

	_, err := New(context.Background(), cfg, testLogger())
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
