package main

import (
	"context"
	"fmt"
	"io"

	goredis "github.com/go-redis/redis/v8"

	"docsearch/backend/go/internal/config"
	redisdb "docsearch/backend/go/internal/database/redis"
	"docsearch/backend/go/internal/llm"
	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/loaders"
	"docsearch/backend/go/internal/rag_service/rag/pipeline"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/internal/rag_service/rag/scoring"
	"docsearch/backend/go/internal/rag_service/rag/splitters"
	"docsearch/backend/go/internal/rag_service/rag/storages/docstore"
	"docsearch/backend/go/internal/rag_service/rag/storages/snapshot"
	"docsearch/backend/go/internal/rag_service/service"
	apphttp "docsearch/backend/go/pkg/http"
	"docsearch/backend/go/pkg/logger"
)

// app holds the wired service and the resources that must be released
// with it.
type app struct {
	log   *logger.Logger
	svc   *service.Service
	redis *goredis.Client
}

// newApp builds the service from cfg and restores the persisted index.
// A read-only app never writes the snapshot back.
func newApp(ctx context.Context, cfg *config.AppConfig, logOut io.Writer, limits service.Limits, readOnly bool) (*app, error) {
	logger.Init(logger.ParseLevel(cfg.Logger.Level), logOut)
	log := logger.New(cfg.App.Name)

	splitter := splitters.NewParagraphSplitter(cfg.Chunker.LongParagraphThreshold, cfg.Chunker.TargetChunkSize)
	docStore := docstore.NewInMemoryDocStore(splitter)

	scorer, err := scoring.NewLexicalScorer(scoring.BonusScheme(cfg.Search.BonusScheme))
	if err != nil {
		return nil, err
	}
	retrieval := pipeline.NewRetrievalPipeline(docStore, scorer, cfg.Search.Threshold, cfg.Search.DefaultTopK, log)

	breaker, err := apphttp.NewCircuitBreaker(cfg.Middleware.CircuitBreaker)
	if err != nil {
		return nil, err
	}
	ollama, err := llm.NewClient(cfg.LLM, apphttp.NewClient(breaker, 0))
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	log.Info(fmt.Sprintf("Using Ollama model %s at %s", ollama.Model(), ollama.BaseURL()))

	a := &app{log: log}
	store, err := a.snapshotStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if store != nil && readOnly {
		store = readOnlyStore{store}
	}
	var persister *service.Persister
	if store != nil {
		persister = service.NewPersister(store, docStore.Snapshot, log)
	}

	a.svc = service.New(
		log,
		docStore,
		loaders.NewRegistry(log),
		retrieval,
		pipeline.NewQAPipeline(ollama, log),
		ollama,
		persister,
		limits,
	)
	if err := a.svc.Load(ctx); err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) snapshotStore(ctx context.Context, cfg config.StoreConfig) (interfaces.SnapshotStore, error) {
	switch cfg.Type {
	case "none":
		a.log.Warn("Persistence disabled, the index lives in memory only")
		return nil, nil
	case "redis":
		client, err := redisdb.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.log.Info(fmt.Sprintf("Persisting index to Redis at %s", cfg.Redis.Address))
		return snapshot.NewRedisStore(client, cfg.Redis.Key), nil
	default:
		a.log.Info(fmt.Sprintf("Persisting index to %s", cfg.Path))
		return snapshot.NewFileStore(cfg.Path), nil
	}
}

// readOnlyStore loads snapshots but drops every save.
type readOnlyStore struct {
	interfaces.SnapshotStore
}

func (readOnlyStore) Save(context.Context, *schema.Snapshot) error { return nil }

// close flushes the index and releases connections.
func (a *app) close(ctx context.Context) error {
	var err error
	if a.svc != nil {
		if err = a.svc.Close(ctx); err != nil {
			a.log.WithErr(err, "persistence_error").Error("Final snapshot save failed")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return err
}
