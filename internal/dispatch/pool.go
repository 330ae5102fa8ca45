// Package dispatch runs all chunks of all files through the fallback chain
// under a bounded worker pool. Workers are independent: each takes one
// chunk end-to-end (chain execution to terminal result) before the next.
// Chunks may complete in any order; every result is tagged with its file
// path and sequence index so the aggregator can restore ordering.
package dispatch

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codexsum/pkg/types"
)

// Executor runs one chunk to a terminal result. Implemented by
// fallback.Orchestrator.
type Executor interface {
	Execute(ctx context.Context, chunk *types.Chunk) *types.ChunkResult
}

// Stats counts terminal results produced by one Process call.
type Stats struct {
	Processed int64 // chunks with any terminal result
	Failed    int64 // exhausted-chain failures
	Cancelled int64
	Fallbacks int64 // successes that needed more than the first provider
}

// Pool is the bounded-concurrency scheduler.
type Pool struct {
	exec    Executor
	workers int
	log     *zap.Logger
}

// New creates a pool with the given worker cap (minimum 1).
func New(exec Executor, workers int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{exec: exec, workers: workers, log: log}
}

// Process executes every chunk and delivers exactly one terminal result per
// chunk to record, which must be safe for concurrent calls. At most
// `workers` executions are in flight at once; submission blocks when the
// pool is full, capping concurrent provider calls and in-flight chunk text.
//
// Cancellation is cooperative: once ctx is done, chunks not yet started are
// given Cancelled results without touching any provider, and in-flight
// executions surface Cancelled through the chain. Process never loses a
// chunk.
func (p *Pool) Process(ctx context.Context, chunks []*types.Chunk, record func(*types.ChunkResult)) Stats {
	var stats Stats
	sem := make(chan struct{}, p.workers)
	var g errgroup.Group

	emit := func(res *types.ChunkResult) {
		atomic.AddInt64(&stats.Processed, 1)
		switch {
		case res.ErrKind == types.ErrKindCancelled:
			atomic.AddInt64(&stats.Cancelled, 1)
		case !res.OK():
			atomic.AddInt64(&stats.Failed, 1)
		case len(res.Attempts) > 1:
			atomic.AddInt64(&stats.Fallbacks, 1)
		}
		record(res)
	}

	for _, chunk := range chunks {
		select {
		case <-ctx.Done():
			// Halt submissions; the chunk still gets its terminal result.
			emit(cancelledResult(chunk))
			continue
		case sem <- struct{}{}:
		}

		c := chunk
		g.Go(func() error {
			defer func() { <-sem }()
			emit(p.exec.Execute(ctx, c))
			return nil
		})
	}

	_ = g.Wait()

	p.log.Debug("dispatch pool drained",
		zap.Int64("processed", stats.Processed),
		zap.Int64("failed", stats.Failed),
		zap.Int64("cancelled", stats.Cancelled))
	return stats
}

func cancelledResult(chunk *types.Chunk) *types.ChunkResult {
	return &types.ChunkResult{
		FilePath: chunk.FilePath,
		Index:    chunk.Index,
		ErrKind:  types.ErrKindCancelled,
	}
}
