package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/combinator"
	"github.com/malexternalsc/great-expectation-LLM/pkg/config"
	"github.com/malexternalsc/great-expectation-LLM/pkg/database"
	"github.com/malexternalsc/great-expectation-LLM/pkg/ledger"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
	"github.com/malexternalsc/great-expectation-LLM/pkg/retrieval"
	"github.com/malexternalsc/great-expectation-LLM/pkg/retry"
	"github.com/malexternalsc/great-expectation-LLM/pkg/services"
	"github.com/malexternalsc/great-expectation-LLM/pkg/vectorstore"
)

// app holds process-wide dependencies. Collaborators are built lazily so a
// command only needs the credentials and services it actually uses.
type app struct {
	configPath   string
	verbose      bool
	indexBackend string

	cfg      *config.Config
	logger   *zap.Logger
	closers  []func()
	workbook *catalog.Workbook
	client   llm.Client
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.indexBackend != "" {
		cfg.Pipeline.Index = a.indexBackend
	}

	logger, cleanup, err := logging.New(logging.Options{Verbose: a.verbose, FilePath: cfg.Paths.LogFile})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.closers = append(a.closers, cleanup)

	logger.Debug("Configuration loaded",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("index", cfg.Pipeline.Index),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("data_dir", cfg.Paths.DataDir))
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// chatClient returns the shared client, so every stage trips the same breaker.
func (a *app) chatClient(ctx context.Context) (llm.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, err
	}
	c := a.cfg.LLM
	inner, err := llm.NewClient(ctx, &llm.Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    a.cfg.APIKey(c.Provider),
		BaseURL:   c.BaseURL,
		MaxTokens: c.MaxTokens,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	breaker := llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
		Threshold:  c.CircuitThreshold,
		ResetAfter: c.CircuitReset,
	})
	a.client = llm.NewResilientClient(inner, retry.ProviderConfig(c.MaxRetries), breaker, a.logger)
	return a.client, nil
}

func (a *app) embedder(ctx context.Context) (llm.Embedder, error) {
	if err := a.cfg.RequireEmbedding(); err != nil {
		return nil, err
	}
	e := a.cfg.Embedding
	inner, err := llm.NewEmbedder(ctx, &llm.Config{
		Provider:   e.Provider,
		Model:      e.Model,
		APIKey:     a.cfg.APIKey(e.Provider),
		BaseURL:    e.BaseURL,
		Dimensions: e.Dimensions,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	var embedder llm.Embedder = llm.NewRetryingEmbedder(inner, retry.ProviderConfig(a.cfg.LLM.MaxRetries))

	rdb, err := a.openRedis(ctx)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		embedder = llm.NewCachingEmbedder(embedder, rdb, a.cfg.Redis.TTL, a.logger)
	}
	return embedder, nil
}

func (a *app) openRedis(ctx context.Context) (*redis.Client, error) {
	rdb, err := database.NewRedisClient(ctx, &a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.logger.Info("Embedding cache enabled", zap.String("host", a.cfg.Redis.Host))
	}
	return rdb, nil
}

func (a *app) openDatabase(ctx context.Context) (*database.DB, error) {
	db, err := database.NewConnection(ctx, database.ConfigFrom(&a.cfg.Database), a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	if err := db.Migrate(a.logger); err != nil {
		return nil, fmt.Errorf("migrate embedding index: %w", err)
	}
	return db, nil
}

func (a *app) index(ctx context.Context) (vectorstore.Index, error) {
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	opts := vectorstore.Options{Collection: a.cfg.Embedding.Collection, BatchSize: a.cfg.Embedding.BatchSize}

	if a.cfg.Pipeline.Index == "memory" {
		a.logger.Warn("Using the in-memory index; examples are not persisted")
		return vectorstore.NewMemoryIndex(embedder, opts, a.logger), nil
	}

	db, err := a.openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	return vectorstore.NewPGVectorIndex(db, embedder, opts, a.logger), nil
}

func (a *app) loadWorkbook() (*catalog.Workbook, error) {
	if a.workbook != nil {
		return a.workbook, nil
	}
	wb, err := catalog.LoadWorkbook(a.cfg.Paths.Workbook)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Loaded workbook",
		zap.String("path", a.cfg.Paths.Workbook),
		zap.Int("categories", wb.Catalog.Len()),
		zap.Int("expectations", wb.Vocabulary.Size()))
	a.workbook = wb
	return wb, nil
}

func (a *app) exemplars() (*prompts.Exemplars, error) {
	if a.cfg.Paths.Exemplars == "" {
		return prompts.DefaultExemplars(), nil
	}
	return prompts.LoadExemplars(a.cfg.Paths.Exemplars)
}

func (a *app) newLedger() *ledger.Ledger {
	return ledger.New(a.cfg.Paths.LedgerDir, a.logger)
}

func (a *app) generationConfig() services.GenerationConfig {
	return services.GenerationConfig{
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		BatchSize:   a.cfg.Pipeline.BatchSize,
		DatasetDir:  a.cfg.Paths.DatasetDir,
	}
}

func (a *app) workerPool() *llm.WorkerPool {
	return llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: a.cfg.Pipeline.Concurrency}, a.logger)
}

func (a *app) promptRun(ctx context.Context, limit int) (*services.PromptGenerationRun, *ledger.Ledger, error) {
	wb, err := a.loadWorkbook()
	if err != nil {
		return nil, nil, err
	}
	client, err := a.chatClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	index, err := a.index(ctx)
	if err != nil {
		return nil, nil, err
	}

	p := a.cfg.Pipeline
	ldg := a.newLedger()
	synthesizer := services.NewPromptSynthesizer(
		wb.Catalog,
		retrieval.NewRetriever(index, a.logger),
		client,
		ldg,
		index,
		combinator.NewRand(p.Seed),
		services.PromptSynthesizerConfig{
			Model:                 a.cfg.LLM.Model,
			Temperature:           a.cfg.LLM.Temperature,
			MinDomains:            p.MinDomains,
			MaxDomains:            p.MaxDomains,
			PromptsPerBatch:       p.PromptsPerBatch,
			DedupeLedger:          p.DedupeLedger,
			IndexGeneratedPrompts: p.IndexGeneratedPrompts,
		},
		a.logger,
	)
	run := services.NewPromptGenerationRun(wb.Catalog, synthesizer, services.PromptGenerationConfig{
		MinSize:  p.MinCombination,
		MaxSize:  p.MaxCombination,
		Throttle: p.Throttle,
		Limit:    limit,
	}, a.logger)
	return run, ldg, nil
}

func (a *app) expectationGenerator(client llm.Client) (services.ExpectationGenerator, error) {
	wb, err := a.loadWorkbook()
	if err != nil {
		return nil, err
	}
	ex, err := a.exemplars()
	if err != nil {
		return nil, err
	}
	return services.NewExpectationGenerator(client, wb.Vocabulary, ex.Expectation, a.workerPool(), a.generationConfig(), a.logger), nil
}

func (a *app) reasoningReformatter(client llm.Client) (services.ReasoningReformatter, error) {
	ex, err := a.exemplars()
	if err != nil {
		return nil, err
	}
	return services.NewReasoningReformatter(client, ex.Reasoning, a.workerPool(), a.generationConfig(), a.logger), nil
}
