// Package fallback executes summarization requests against a priority
// ordered provider chain with per-provider retry and circuit breaking.
//
// # Chain Execution
//
// Providers are tried strictly in ascending priority order. Within one
// provider, RateLimited, Timeout, and Transient failures retry with
// exponential backoff (500ms base, doubling, 8s cap) up to the configured
// attempt count; AuthFailure, PermanentReject, and QuotaExceeded move to
// the next provider immediately since they cannot recover for this
// request. The chain order never changes mid-request.
//
// Every execution returns exactly one terminal ChunkResult. An exhausted
// chain produces a failure result carrying each provider's final outcome;
// nothing is silently dropped.
//
// # Circuit Breaking
//
// Each provider has a run-wide breaker counting consecutive failed chain
// positions. Past the threshold the provider is skipped (recorded as a
// "skipped" outcome) until a cooldown elapses; the first call afterwards
// probes the provider and its result closes or reopens the circuit. This
// keeps a degraded provider from adding retry latency to every chunk while
// still letting it recover.
//
// # Sharing
//
// One Orchestrator serves all dispatch workers. Rate limiter buckets and
// breakers are the only shared mutable state; each execution's attempt
// bookkeeping is task-local.
package fallback
