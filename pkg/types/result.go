package types

import (
	"errors"
	"time"
)

// ErrKind names an entry of the shared provider error taxonomy. Adapters
// normalize transport-specific failures into these kinds; the fallback layer
// keys its retry policy off them.
type ErrKind string

const (
	ErrKindNone            ErrKind = ""
	ErrKindRateLimited     ErrKind = "rate_limited"
	ErrKindTimeout         ErrKind = "timeout"
	ErrKindTransient       ErrKind = "transient"
	ErrKindAuthFailure     ErrKind = "auth_failure"
	ErrKindPermanentReject ErrKind = "permanent_reject"
	ErrKindQuotaExceeded   ErrKind = "quota_exceeded"
	ErrKindCancelled       ErrKind = "cancelled"
	ErrKindSkipped         ErrKind = "skipped" // circuit breaker open, provider not tried
)

// Retryable reports whether the same provider may be retried for this kind.
func (k ErrKind) Retryable() bool {
	switch k {
	case ErrKindRateLimited, ErrKindTimeout, ErrKindTransient:
		return true
	}
	return false
}

// AttemptOutcome records the final disposition of one provider within a
// fallback chain execution.
type AttemptOutcome struct {
	Provider string
	Model    string
	Attempts int // calls actually issued against this provider
	ErrKind  ErrKind
	Err      string // last error message, empty on success
}

// ChunkResult is the terminal outcome of one SummarizationTask. Every
// submitted chunk yields exactly one.
type ChunkResult struct {
	FilePath  string
	Index     int
	ChunkHash string // hex content hash, cache key for the summary

	// Success fields
	Summary    string
	Provider   string // provider that produced the summary; "cache" on a hit
	Model      string
	TokensUsed int
	Cost       float64

	// Failure fields
	ErrKind  ErrKind
	Attempts []AttemptOutcome // per-provider outcomes, chain order

	Elapsed time.Duration
}

// OK reports whether the chunk was summarized.
func (r *ChunkResult) OK() bool {
	return r.ErrKind == ErrKindNone
}

// FileSummary holds the ordered terminal results for one file.
type FileSummary struct {
	Path     string
	Language Language
	Chunks   []*ChunkResult // indexed by chunk sequence; nil = no terminal result yet
	Empty    bool           // file had no content, zero chunks
}

// Complete reports whether every chunk of the file has a terminal result.
func (f *FileSummary) Complete() bool {
	if f.Empty {
		return true
	}
	if len(f.Chunks) == 0 {
		return false
	}
	for _, c := range f.Chunks {
		if c == nil {
			return false
		}
	}
	return true
}

// Failed counts chunks that exhausted the fallback chain.
func (f *FileSummary) Failed() int {
	n := 0
	for _, c := range f.Chunks {
		if c != nil && !c.OK() {
			n++
		}
	}
	return n
}

// Metrics aggregates run-wide accounting.
type Metrics struct {
	FilesProcessed int           `json:"files_processed"`
	ChunksTotal    int           `json:"chunks_total"`
	ChunksFailed   int           `json:"chunks_failed"`
	CacheHits      int           `json:"cache_hits"`
	FallbacksUsed  int           `json:"fallbacks_used"`
	TokensUsed     int64         `json:"tokens_used"`
	EstimatedCost  float64       `json:"estimated_cost"`
	WallTime       time.Duration `json:"wall_time"`
}

// ProviderStats is the per-provider request breakdown.
type ProviderStats struct {
	Requests int   `json:"requests"`
	Tokens   int64 `json:"tokens"`
	Errors   int   `json:"errors"`
}

// ProjectSummary is the finalized output of a run.
type ProjectSummary struct {
	RunID      string
	Root       string
	Files      map[string]*FileSummary
	Order      []string // file paths in discovery order
	Overview   string   // AI-generated project overview, may be empty
	Metrics    Metrics
	ByProvider map[string]ProviderStats
	Generated  time.Time
	Incomplete []string // paths of files lacking a full set of results (cancelled runs)
}

// ErrIncompleteRun is returned by Aggregator.Finalize when some submitted
// chunk has no terminal result yet.
var ErrIncompleteRun = errors.New("run incomplete: chunks without terminal results")
