package bootstrap

import (
	"context"
	"fmt"

	"github.com/yhchiang/medrag/internal/config"
	"github.com/yhchiang/medrag/internal/core/usecase"
	"github.com/yhchiang/medrag/internal/infrastructure/corpus"
	"github.com/yhchiang/medrag/internal/infrastructure/embedding/ollama"
	"github.com/yhchiang/medrag/internal/infrastructure/llm/openai"
	"github.com/yhchiang/medrag/internal/infrastructure/pubmed"
	"github.com/yhchiang/medrag/internal/infrastructure/queue/nats"
	"github.com/yhchiang/medrag/internal/infrastructure/repository/postgres"
	"github.com/yhchiang/medrag/internal/infrastructure/resilience"
	"github.com/yhchiang/medrag/internal/infrastructure/storage/localfs"
	"github.com/yhchiang/medrag/internal/infrastructure/storage/snapshot"
	"github.com/yhchiang/medrag/internal/infrastructure/vector/flat"
)

// API wires the serving process: snapshot, index, corpus store, and the
// external capability clients behind the query use case.
type API struct {
	Config  config.Config
	QueryUC *usecase.QueryUseCase
}

func NewAPI(ctx context.Context, cfg config.Config) (*API, error) {
	fs, err := localfs.New(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("init snapshot storage: %w", err)
	}

	snap, err := snapshot.NewStore(fs).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	index, err := flat.New(snap.Vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if index.Dim() != snap.Dim {
		return nil, fmt.Errorf("index dim %d does not match snapshot dim %d", index.Dim(), snap.Dim)
	}

	store, err := corpus.NewStore(snap.ArticleIDs, snap.Articles)
	if err != nil {
		return nil, fmt.Errorf("build corpus store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)
	llm := openai.New(openai.Config{
		BaseURL:   cfg.OpenAIBaseURL,
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.OpenAIChatModel,
		RAGModel:  cfg.OpenAIRAGModel,
	}, executor)

	queryUC := usecase.NewQueryUseCase(
		openai.NewAnalyzer(llm),
		openai.NewExpander(llm),
		embedder,
		index,
		store,
		openai.NewGenerator(llm),
		usecase.QueryConfig{
			SearchTopK:       cfg.SearchTopK,
			AnswerTopK:       cfg.RAGTopK,
			MinSimilarity:    cfg.MinSimilarity,
			MinArticles:      cfg.MinArticles,
			MaxContextChars:  cfg.MaxContextChars,
			ModelName:        snap.Model,
			TranslateTimeout: cfg.TranslateTimeout,
			ExpandTimeout:    cfg.ExpandTimeout,
			EmbedTimeout:     cfg.EmbedTimeout,
			GenerateTimeout:  cfg.GenerateTimeout,
		},
	)

	return &API{
		Config:  cfg,
		QueryUC: queryUC,
	}, nil
}

// Worker wires the ingest process: queue subscription, literature source,
// and the repositories the batches land in.
type Worker struct {
	Config   config.Config
	Queue    *nats.Queue
	IngestUC *usecase.IngestBatchUseCase

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	articles := postgres.NewArticleRepository(db)
	if err := articles.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewCrawlJobRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init fetch queue: %w", err)
	}

	source := pubmed.New(cfg.PubMedBaseURL, cfg.PubMedAPIKey, executor)
	ingestUC := usecase.NewIngestBatchUseCase(source, articles, jobs)

	return &Worker{
		Config:   cfg,
		Queue:    queue,
		IngestUC: ingestUC,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Crawler wires the acquisition process: the literature source for ESearch
// paging, the fetch queue, and the job ledger.
type Crawler struct {
	Config  config.Config
	CrawlUC *usecase.CrawlUseCase
	Jobs    *postgres.CrawlJobRepository

	closeFn func()
}

func NewCrawler(ctx context.Context, cfg config.Config) (*Crawler, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	articles := postgres.NewArticleRepository(db)
	if err := articles.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewCrawlJobRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init fetch queue: %w", err)
	}

	source := pubmed.New(cfg.PubMedBaseURL, cfg.PubMedAPIKey, executor)
	crawlUC := usecase.NewCrawlUseCase(source, queue, jobs)

	return &Crawler{
		Config:  cfg,
		CrawlUC: crawlUC,
		Jobs:    jobs,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (c *Crawler) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Indexer wires the snapshot build: the corpus repository, the embedding
// client, and the snapshot store.
type Indexer struct {
	Config     config.Config
	SnapshotUC *usecase.BuildSnapshotUseCase

	closeFn func()
}

func NewIndexer(ctx context.Context, cfg config.Config) (*Indexer, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	articles := postgres.NewArticleRepository(db)
	if err := articles.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	fs, err := localfs.New(cfg.SnapshotDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init snapshot storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)

	snapshotUC := usecase.NewBuildSnapshotUseCase(
		articles,
		embedder,
		snapshot.NewStore(fs),
		usecase.SnapshotConfig{
			MinAbstractChars: cfg.MinAbstractChars,
			EmbedBatchSize:   cfg.EmbedBatchSize,
			Model:            embedder.Model(),
		},
	)

	return &Indexer{
		Config:     cfg,
		SnapshotUC: snapshotUC,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (ix *Indexer) Close() {
	if ix.closeFn != nil {
		ix.closeFn()
	}
}
