// Package types provides shared type definitions for the codexsum pipeline.
//
// This package defines the domain types that flow between the pipeline
// stages: source files, chunks, provider specifications, and results.
//
// # Core Types
//
// SourceFile is one file of the input tree, immutable once read, with a
// language tag detected from its extension:
//
//	file := types.NewSourceFile("pkg/parser/parser.go", content)
//	file.Language // types.LangGo
//
// Chunk is a bounded slice of one file, the unit of summarization work.
// Spans are non-overlapping and concatenate back to the original content:
//
//	chunk := &types.Chunk{
//	    FilePath: file.Path,
//	    Index:    0,
//	    Kind:     types.ChunkFunction,
//	    Symbol:   "ParseFile",
//	}
//
// ProviderSpec configures one backend of the fallback chain. SortChain
// orders a chain by priority and rejects ties, so the fallback order is
// total and fixed for the run.
//
// # Results
//
// ChunkResult is the terminal outcome of one chunk: a summary with provider
// and cost accounting, or a failure carrying the per-provider attempt
// outcomes. FileSummary and ProjectSummary reassemble results in original
// order regardless of completion order.
//
// # Error Taxonomy
//
// ErrKind is the normalized failure classification shared by all provider
// adapters (rate_limited, timeout, transient, auth_failure, permanent_reject,
// quota_exceeded, cancelled). ErrKind.Retryable drives the retry policy.
package types
