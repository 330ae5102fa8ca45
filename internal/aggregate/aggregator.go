// Package aggregate reassembles per-chunk results into per-file and whole
// project summaries, restoring original chunk order regardless of
// completion order, and renders the final document.
package aggregate

import (
	"sync"
	"time"

	"codexsum/pkg/types"
)

// Aggregator collects terminal ChunkResults. Record is safe for concurrent
// use by the dispatch workers; Finalize may only be called once the pool
// has drained.
type Aggregator struct {
	mu        sync.Mutex
	files     map[string]*types.FileSummary
	order     []string
	submitted int
	received  int
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{files: make(map[string]*types.FileSummary)}
}

// RegisterFile announces a file and its expected chunk count before any of
// its results arrive. A zero chunk count marks the file empty and
// immediately complete.
func (a *Aggregator) RegisterFile(path string, lang types.Language, chunkCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.files[path]; exists {
		return
	}
	fs := &types.FileSummary{
		Path:     path,
		Language: lang,
		Empty:    chunkCount == 0,
	}
	if chunkCount > 0 {
		fs.Chunks = make([]*types.ChunkResult, chunkCount)
	}
	a.files[path] = fs
	a.order = append(a.order, path)
	a.submitted += chunkCount
}

// Record stores one terminal result at its chunk's sequence position. A
// duplicate for an already-terminal slot is ignored: a chunk has exactly
// one terminal result.
func (a *Aggregator) Record(res *types.ChunkResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fs, ok := a.files[res.FilePath]
	if !ok || res.Index < 0 || res.Index >= len(fs.Chunks) {
		return
	}
	if fs.Chunks[res.Index] != nil {
		return
	}
	fs.Chunks[res.Index] = res
	a.received++
}

// IsComplete reports whether every chunk of the file has a terminal result.
func (a *Aggregator) IsComplete(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	fs, ok := a.files[path]
	return ok && fs.Complete()
}

// Finalize builds the ProjectSummary. It fails with ErrIncompleteRun while
// any submitted chunk still lacks a terminal result. Files whose chunks
// were cancelled before a real outcome are listed in Incomplete, so a
// partial summary after cancellation remains well-formed.
func (a *Aggregator) Finalize() (*types.ProjectSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.received < a.submitted {
		return nil, types.ErrIncompleteRun
	}

	ps := &types.ProjectSummary{
		Files:     a.files,
		Order:     append([]string(nil), a.order...),
		Generated: time.Now(),
	}
	for _, path := range a.order {
		fs := a.files[path]
		ps.Metrics.FilesProcessed++
		ps.Metrics.ChunksTotal += len(fs.Chunks)
		for _, res := range fs.Chunks {
			if res == nil {
				continue
			}
			if res.ErrKind == types.ErrKindCancelled {
				continue
			}
			if !res.OK() {
				ps.Metrics.ChunksFailed++
			}
			ps.Metrics.TokensUsed += int64(res.TokensUsed)
			ps.Metrics.EstimatedCost += res.Cost
		}
		if cancelledCount(fs) > 0 {
			ps.Incomplete = append(ps.Incomplete, path)
		}
	}
	return ps, nil
}

func cancelledCount(fs *types.FileSummary) int {
	n := 0
	for _, res := range fs.Chunks {
		if res != nil && res.ErrKind == types.ErrKindCancelled {
			n++
		}
	}
	return n
}
