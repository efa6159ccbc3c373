package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexilocal/lexilocal/internal/config"
	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
	"github.com/lexilocal/lexilocal/internal/core/usecase"
	"github.com/lexilocal/lexilocal/internal/infrastructure/chunking"
	"github.com/lexilocal/lexilocal/internal/infrastructure/extractor"
	"github.com/lexilocal/lexilocal/internal/infrastructure/index/flat"
	"github.com/lexilocal/lexilocal/internal/infrastructure/llm/ollama"
	natsqueue "github.com/lexilocal/lexilocal/internal/infrastructure/queue/nats"
	"github.com/lexilocal/lexilocal/internal/infrastructure/resilience"
	"github.com/lexilocal/lexilocal/internal/infrastructure/storage/localfs"
	"github.com/lexilocal/lexilocal/internal/infrastructure/store/sqlite"
)

// App holds every wired component. The api and indexer binaries build the
// same App and pick the parts they serve.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Store       *sqlite.Store
	VectorIndex *flat.Index
	Queue       *natsqueue.Queue

	Ingestor  *usecase.Ingestor
	Indexer   *usecase.Indexer
	Reader    *usecase.DocumentReader
	Retriever ports.Retriever
	Answerer  *usecase.Answerer
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "bootstrap", err)
	}

	// Stat before Open: opening sqlite creates the file, which would hide
	// an inconsistent data directory from the pair check below.
	sqliteExisted := fileExists(cfg.Store.SQLitePath)

	store, err := sqlite.Open(cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	vectorIndex, err := openVectorIndex(sqliteExisted, cfg.Store.SQLitePath, cfg.Store.VectorIndexPath, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	if dim := cfg.Ollama.EmbeddingDim; dim > 0 && vectorIndex.Len() > 0 && vectorIndex.Dim() != dim {
		store.Close()
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "open index",
			fmt.Errorf("artifact dimension %d does not match configured embedding dimension %d", vectorIndex.Dim(), dim))
	}
	if vectorIndex.Len() == 0 {
		// Chunk rows without a vector artifact are the other half of a
		// broken pair: lexical search would see documents that semantic
		// search cannot.
		hasChunks, err := store.HasChunks(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		if hasChunks && !fileExists(cfg.Store.VectorIndexPath) {
			store.Close()
			return nil, domain.WrapError(domain.ErrPersistence, "open index",
				fmt.Errorf("metadata store %q has chunks but vector artifact %q is missing", cfg.Store.SQLitePath, cfg.Store.VectorIndexPath))
		}
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := natsqueue.Connect(cfg.NATS.URL, executor, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	uploads, err := localfs.New(cfg.Store.UploadDir)
	if err != nil {
		queue.Close()
		store.Close()
		return nil, err
	}

	splitter, err := chunking.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		queue.Close()
		store.Close()
		return nil, err
	}

	llmClient := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.GenerateModel, cfg.Ollama.EmbeddingModel, ollama.Options{
		Timeout:  cfg.Ollama.Timeout,
		Executor: executor,
	})
	embedder := ollama.NewEmbedder(llmClient)
	generator := ollama.NewGenerator(llmClient)

	retriever := usecase.NewRetriever(embedder, vectorIndex, store, usecase.RetrieverConfig{
		Mode:             cfg.Retrieval.Mode,
		DefaultK:         cfg.Retrieval.TopK,
		MaxK:             cfg.Retrieval.MaxTopK,
		ScoreThreshold:   cfg.Retrieval.ScoreThreshold,
		HybridCandidates: cfg.Retrieval.HybridCandidates,
		RRFConstant:      cfg.Retrieval.RRFConstant,
		RerankTopN:       cfg.Retrieval.RerankTopN,
	}, logger)

	app := &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    prometheus.NewRegistry(),
		Store:       store,
		VectorIndex: vectorIndex,
		Queue:       queue,
		Ingestor:    usecase.NewIngestor(store, queue, uploads, extractor.NewDispatcher(), logger),
		Indexer:     usecase.NewIndexer(store, splitter, embedder, vectorIndex, cfg.Store.VectorIndexPath, logger),
		Reader:      usecase.NewDocumentReader(store),
		Retriever:   retriever,
		Answerer: usecase.NewAnswerer(retriever, generator, store, usecase.AnswererConfig{
			DefaultK:          cfg.Retrieval.TopK,
			ContextCharBudget: cfg.Generation.ContextCharBudget,
			SummaryCharBudget: cfg.Generation.SummaryCharBudget,
			MaxOutputTokens:   cfg.Generation.MaxOutputTokens,
		}, logger),
	}
	return app, nil
}

// openVectorIndex loads the persisted vector artifact if present. The
// artifact and the sqlite file describe one corpus: a vector file without
// its metadata store means the data directory is inconsistent. The reverse
// (sqlite without vectors) is the normal state before the first document
// finishes indexing.
func openVectorIndex(sqliteExisted bool, sqlitePath, vectorPath string, logger *slog.Logger) (*flat.Index, error) {
	vectorExists := fileExists(vectorPath)

	if vectorExists && !sqliteExisted {
		return nil, domain.WrapError(domain.ErrPersistence, "open index",
			fmt.Errorf("vector artifact %q present without metadata store %q", vectorPath, sqlitePath))
	}
	if !vectorExists {
		logger.Info("vector_index_new", "path", vectorPath)
		return flat.New(), nil
	}

	index, err := flat.Load(vectorPath)
	if err != nil {
		return nil, err
	}
	logger.Info("vector_index_loaded", "path", vectorPath, "vectors", index.Len(), "dim", index.Dim())
	return index, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return !info.IsDir()
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("store_close_failed", "error", err)
		}
	}
}
