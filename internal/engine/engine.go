// Package engine coordinates a full summarization run: discover files,
// chunk them, consult the cache, dispatch the remainder through the
// fallback chain, and finalize the project summary.
package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codexsum/internal/aggregate"
	"codexsum/internal/cache"
	"codexsum/internal/chunker"
	"codexsum/internal/config"
	"codexsum/internal/dispatch"
	"codexsum/internal/fallback"
	"codexsum/internal/provider"
	"codexsum/internal/ratelimit"
	"codexsum/pkg/types"
)

// Engine owns the pipeline for one process lifetime. Construction fails
// fast on configuration problems, including missing credentials.
type Engine struct {
	cfg       *config.Config
	chunker   *chunker.Chunker
	orch      *fallback.Orchestrator
	exec      *taskExecutor
	pool      *dispatch.Pool
	providers []provider.Provider
	cache     *cache.Cache
	log       *zap.Logger
}

// taskExecutor routes dispatched chunks to the chain. Files small enough to
// fit in a single chunk are summarized whole with the file prompt; every
// other chunk uses the chunk prompt. The wholeFile map is rebuilt by Run
// before dispatch starts and only read afterwards.
type taskExecutor struct {
	orch      *fallback.Orchestrator
	wholeFile map[string]types.Language
}

func (t *taskExecutor) Execute(ctx context.Context, chunk *types.Chunk) *types.ChunkResult {
	if lang, ok := t.wholeFile[chunk.FilePath]; ok {
		return t.orch.ExecuteFile(ctx, chunk, lang)
	}
	return t.orch.Execute(ctx, chunk)
}

// New builds the pipeline from a validated config.
func New(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	providers, chain, err := provider.NewChain(cfg.ProviderSpecs())
	if err != nil {
		return nil, fmt.Errorf("building provider chain: %w", err)
	}

	rpm := make(map[string]int, len(chain))
	for _, spec := range chain {
		rpm[spec.Provider] = spec.RateLimit
	}
	limiter := ratelimit.New(rpm)

	orch := fallback.New(providers, limiter, fallback.Config{
		RetryAttempts:   cfg.RetryAttempts,
		FallbackEnabled: cfg.FallbackOn(),
	}, log)

	var summaryCache *cache.Cache
	if cfg.Cache.Enabled {
		var store cache.Store
		if cfg.Cache.Path != "" {
			s, err := cache.OpenSQLite(cfg.Cache.Path)
			if err != nil {
				return nil, fmt.Errorf("opening summary cache: %w", err)
			}
			store = s
		}
		summaryCache = cache.New(cfg.Cache.MaxEntries, store)
	}

	exec := &taskExecutor{orch: orch}
	return &Engine{
		cfg: cfg,
		chunker: chunker.New(chunker.Options{
			MaxChunkSize: cfg.ChunkSize,
			Overlap:      cfg.ChunkOverlap,
			Semantic:     cfg.SemanticEnabled(),
		}),
		orch:      orch,
		exec:      exec,
		pool:      dispatch.New(exec, cfg.MaxWorkers, log),
		providers: providers,
		cache:     summaryCache,
		log:       log,
	}, nil
}

// Close releases the cache store.
func (e *Engine) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}

// Run summarizes the tree rooted at root. Cancellation mid-run still
// produces a well-formed partial summary: chunks not yet terminal get
// cancelled results and their files are flagged incomplete.
func (e *Engine) Run(ctx context.Context, root string) (*types.ProjectSummary, error) {
	start := time.Now()
	runID := uuid.NewString()

	paths, err := discover(root, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	e.log.Info("run started",
		zap.String("run_id", runID),
		zap.String("root", root),
		zap.Int("files", len(paths)))

	agg := aggregate.New()
	var pending []*types.Chunk
	cacheHits := 0
	wholeFile := make(map[string]types.Language)

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			e.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		rel := relPath(root, path)
		file := types.NewSourceFile(rel, content)
		chunks := e.chunker.Chunk(file)
		agg.RegisterFile(rel, file.Language, len(chunks))
		if len(chunks) == 1 {
			wholeFile[rel] = file.Language
		}

		for _, chunk := range chunks {
			if err := chunk.Validate(); err != nil {
				e.log.Warn("malformed chunk",
					zap.String("path", rel), zap.Int("index", chunk.Index), zap.Error(err))
			}
			if res := e.cacheLookup(ctx, chunk); res != nil {
				agg.Record(res)
				cacheHits++
				continue
			}
			pending = append(pending, chunk)
		}
	}
	e.exec.wholeFile = wholeFile

	stats := e.pool.Process(ctx, pending, func(res *types.ChunkResult) {
		e.cacheStore(ctx, res)
		agg.Record(res)
	})

	ps, err := agg.Finalize()
	if err != nil {
		return nil, err
	}
	ps.RunID = runID
	ps.Root = root
	ps.Metrics.CacheHits = cacheHits
	ps.Metrics.FallbacksUsed = int(stats.Fallbacks)

	// Overview calls spend tokens too, so they run before the provider
	// breakdown is snapshotted and fold into the run totals.
	if e.cfg.OverviewEnabled() && ctx.Err() == nil {
		var spend overviewSpend
		ps.Overview, spend = e.overview(ctx, ps)
		ps.Metrics.TokensUsed += spend.tokens
		ps.Metrics.EstimatedCost += spend.cost
	}
	ps.ByProvider = e.providerStats()

	ps.Metrics.WallTime = time.Since(start)
	e.log.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("files", ps.Metrics.FilesProcessed),
		zap.Int("chunks", ps.Metrics.ChunksTotal),
		zap.Int("failed", ps.Metrics.ChunksFailed),
		zap.Int("cache_hits", cacheHits),
		zap.Int64("tokens", ps.Metrics.TokensUsed),
		zap.Float64("cost", ps.Metrics.EstimatedCost),
		zap.Duration("wall_time", ps.Metrics.WallTime))
	return ps, nil
}

// WriteOutput renders the summary and writes it to the configured path.
// Path "-" writes to stdout.
func (e *Engine) WriteOutput(ps *types.ProjectSummary) error {
	format, err := aggregate.ParseFormat(e.cfg.Output.Format)
	if err != nil {
		return err
	}
	doc, err := aggregate.Render(ps, format)
	if err != nil {
		return err
	}
	if e.cfg.Output.Path == "-" {
		_, err = os.Stdout.WriteString(doc)
		return err
	}
	if err := os.WriteFile(e.cfg.Output.Path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	e.log.Info("summary written", zap.String("path", e.cfg.Output.Path))
	return nil
}

// cacheLookup returns a terminal result for a cached chunk, or nil on miss.
// Hits cost nothing; the entry's original spend is not re-counted.
func (e *Engine) cacheLookup(ctx context.Context, chunk *types.Chunk) *types.ChunkResult {
	if e.cache == nil {
		return nil
	}
	entry, ok := e.cache.Get(ctx, hashKey(chunk))
	if !ok {
		return nil
	}
	return &types.ChunkResult{
		FilePath: chunk.FilePath,
		Index:    chunk.Index,
		Summary:  entry.Summary,
		Provider: "cache",
		Model:    entry.Model,
	}
}

// cacheStore persists a fresh success. Failures are logged and ignored; the
// run's correctness never depends on the cache.
func (e *Engine) cacheStore(ctx context.Context, res *types.ChunkResult) {
	if e.cache == nil || !res.OK() {
		return
	}
	err := e.cache.Put(ctx, &cache.Entry{
		Hash:     res.ChunkHash,
		Summary:  res.Summary,
		Provider: res.Provider,
		Model:    res.Model,
		Tokens:   res.TokensUsed,
		Cost:     res.Cost,
	})
	if err != nil {
		e.log.Warn("cache write failed", zap.Error(err))
	}
}

func (e *Engine) providerStats() map[string]types.ProviderStats {
	out := make(map[string]types.ProviderStats, len(e.providers))
	for _, p := range e.providers {
		u := p.Usage()
		out[p.Name()] = types.ProviderStats{
			Requests: u.Requests,
			Tokens:   u.Tokens,
			Errors:   u.Errors,
		}
	}
	return out
}

func hashKey(chunk *types.Chunk) string {
	return hex.EncodeToString(chunk.ContentHash[:])
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
