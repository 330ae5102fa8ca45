package fallback

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codexsum/internal/provider"
	"codexsum/internal/ratelimit"
	"codexsum/pkg/types"
)

// stubProvider is a scripted adapter for chain tests.
type stubProvider struct {
	name  string
	calls int32
	fn    func(ctx context.Context) (*provider.Response, error)
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return s.name + "-model" }
func (s *stubProvider) Usage() provider.UsageSnapshot {
	return provider.UsageSnapshot{}
}
func (s *stubProvider) Summarize(ctx context.Context, req provider.Request) (*provider.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(ctx)
}

func alwaysFail(name string, kind types.ErrKind) *stubProvider {
	return &stubProvider{name: name, fn: func(ctx context.Context) (*provider.Response, error) {
		return nil, &provider.Error{Provider: name, Kind: kind, Msg: "scripted failure"}
	}}
}

func alwaysSucceed(name, summary string) *stubProvider {
	return &stubProvider{name: name, fn: func(ctx context.Context) (*provider.Response, error) {
		return &provider.Response{Summary: summary, TokensIn: 10, TokensOut: 5, Cost: 0.01, Model: name + "-model"}, nil
	}}
}

func testChunk() *types.Chunk {
	c := &types.Chunk{
		FilePath: "pkg/a.go",
		Index:    0,
		Text:     "func a() {}\n",
		Kind:     types.ChunkFunction,
		EndLine:  1,
	}
	c.ComputeContentHash()
	return c
}

func newTestOrchestrator(cfg Config, providers ...provider.Provider) *Orchestrator {
	cfg.BaseBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return New(providers, ratelimit.New(nil), cfg, nil)
}

func TestFirstProviderSuccess(t *testing.T) {
	a := alwaysSucceed("alpha", "summary text")
	o := newTestOrchestrator(Config{RetryAttempts: 3, FallbackEnabled: true}, a)

	res := o.Execute(context.Background(), testChunk())
	require.True(t, res.OK())
	assert.Equal(t, "summary text", res.Summary)
	assert.Equal(t, "alpha", res.Provider)
	assert.Equal(t, 15, res.TokensUsed)
	assert.Equal(t, int32(1), a.calls)
	assert.NotEmpty(t, res.ChunkHash)
}

func TestChainFallbackRetrySemantics(t *testing.T) {
	// A is rate limited on every call, B rejects auth, C succeeds. A must
	// burn exactly retry_attempts calls, B exactly one, then C wins.
	a := alwaysFail("a", types.ErrKindRateLimited)
	b := alwaysFail("b", types.ErrKindAuthFailure)
	c := alwaysSucceed("c", "from c")
	o := newTestOrchestrator(Config{RetryAttempts: 3, FallbackEnabled: true}, a, b, c)

	res := o.Execute(context.Background(), testChunk())
	require.True(t, res.OK())
	assert.Equal(t, "c", res.Provider)
	assert.Equal(t, "from c", res.Summary)

	require.Len(t, res.Attempts, 3)
	assert.Equal(t, "a", res.Attempts[0].Provider)
	assert.Equal(t, 3, res.Attempts[0].Attempts)
	assert.Equal(t, types.ErrKindRateLimited, res.Attempts[0].ErrKind)

	assert.Equal(t, "b", res.Attempts[1].Provider)
	assert.Equal(t, 1, res.Attempts[1].Attempts, "auth failures are never retried")
	assert.Equal(t, types.ErrKindAuthFailure, res.Attempts[1].ErrKind)

	assert.Equal(t, "c", res.Attempts[2].Provider)
	assert.Equal(t, types.ErrKindNone, res.Attempts[2].ErrKind)

	assert.Equal(t, int32(3), a.calls)
	assert.Equal(t, int32(1), b.calls)
	assert.Equal(t, int32(1), c.calls)
}

func TestExhaustedChainAggregatesOutcomes(t *testing.T) {
	a := alwaysFail("a", types.ErrKindTransient)
	b := alwaysFail("b", types.ErrKindPermanentReject)
	o := newTestOrchestrator(Config{RetryAttempts: 2, FallbackEnabled: true}, a, b)

	res := o.Execute(context.Background(), testChunk())
	require.False(t, res.OK())
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, 2, res.Attempts[0].Attempts)
	assert.Equal(t, 1, res.Attempts[1].Attempts)
	assert.Equal(t, types.ErrKindPermanentReject, res.ErrKind,
		"terminal kind comes from the last real attempt")
}

func TestFallbackDisabledStopsAfterFirstProvider(t *testing.T) {
	a := alwaysFail("a", types.ErrKindTransient)
	b := alwaysSucceed("b", "never reached")
	o := newTestOrchestrator(Config{RetryAttempts: 2, FallbackEnabled: false}, a, b)

	res := o.Execute(context.Background(), testChunk())
	require.False(t, res.OK())
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, int32(0), b.calls)
}

func TestFallbackDisabledOpenBreakerDoesNotFallThrough(t *testing.T) {
	a := alwaysFail("a", types.ErrKindTransient)
	b := alwaysSucceed("b", "never reached")
	o := newTestOrchestrator(Config{
		RetryAttempts:    1,
		FallbackEnabled:  false,
		BreakerThreshold: 1,
		BreakerCooldown:  time.Hour,
	}, a, b)

	// Trip a's breaker.
	res := o.Execute(context.Background(), testChunk())
	require.False(t, res.OK())

	// a is now skipped; the chain must stop there, not move on to b.
	res = o.Execute(context.Background(), testChunk())
	require.False(t, res.OK())
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, types.ErrKindSkipped, res.Attempts[0].ErrKind)
	assert.Equal(t, int32(0), b.calls)
}

func TestExecuteFileCarriesChunkIdentity(t *testing.T) {
	a := alwaysSucceed("alpha", "whole file summary")
	o := newTestOrchestrator(Config{RetryAttempts: 1, FallbackEnabled: true}, a)

	chunk := testChunk()
	res := o.ExecuteFile(context.Background(), chunk, types.LangGo)
	require.True(t, res.OK())
	assert.Equal(t, "whole file summary", res.Summary)
	assert.Equal(t, chunk.FilePath, res.FilePath)
	assert.Equal(t, chunk.Index, res.Index)
	assert.NotEmpty(t, res.ChunkHash)
}

func TestTransientRetriesThenSucceeds(t *testing.T) {
	var n int32
	flaky := &stubProvider{name: "flaky", fn: func(ctx context.Context) (*provider.Response, error) {
		if atomic.AddInt32(&n, 1) < 3 {
			return nil, &provider.Error{Provider: "flaky", Kind: types.ErrKindTransient, Msg: "blip"}
		}
		return &provider.Response{Summary: "ok", Model: "flaky-model"}, nil
	}}
	o := newTestOrchestrator(Config{RetryAttempts: 3, FallbackEnabled: true}, flaky)

	res := o.Execute(context.Background(), testChunk())
	require.True(t, res.OK())
	assert.Equal(t, int32(3), flaky.calls)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, 3, res.Attempts[0].Attempts)
}

func TestCancellationSurfacesImmediately(t *testing.T) {
	blocked := &stubProvider{name: "slow", fn: func(ctx context.Context) (*provider.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	next := alwaysSucceed("next", "unreachable")
	o := newTestOrchestrator(Config{RetryAttempts: 3, FallbackEnabled: true}, blocked, next)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := o.Execute(ctx, testChunk())
	assert.Equal(t, types.ErrKindCancelled, res.ErrKind)
	assert.Equal(t, int32(0), next.calls, "cancellation does not fall through the chain")
}

func TestCircuitBreakerSkipsDegradedProvider(t *testing.T) {
	a := alwaysFail("a", types.ErrKindTransient)
	b := alwaysSucceed("b", "ok")
	o := newTestOrchestrator(Config{
		RetryAttempts:    1,
		FallbackEnabled:  true,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	}, a, b)

	for i := 0; i < 2; i++ {
		res := o.Execute(context.Background(), testChunk())
		require.True(t, res.OK())
	}
	callsBefore := atomic.LoadInt32(&a.calls)

	res := o.Execute(context.Background(), testChunk())
	require.True(t, res.OK())
	assert.Equal(t, callsBefore, atomic.LoadInt32(&a.calls), "open circuit skips the provider")
	require.NotEmpty(t, res.Attempts)
	assert.Equal(t, types.ErrKindSkipped, res.Attempts[0].ErrKind)
}

func TestQuotaExceededNotRetried(t *testing.T) {
	a := alwaysFail("a", types.ErrKindQuotaExceeded)
	b := alwaysSucceed("b", "ok")
	o := newTestOrchestrator(Config{RetryAttempts: 5, FallbackEnabled: true}, a, b)

	res := o.Execute(context.Background(), testChunk())
	require.True(t, res.OK())
	assert.Equal(t, int32(1), a.calls)
}

func TestNextBackoffCaps(t *testing.T) {
	d := 500 * time.Millisecond
	max := 8 * time.Second
	for i := 0; i < 10; i++ {
		d = nextBackoff(d, max)
		assert.LessOrEqual(t, d, max)
	}
	assert.Equal(t, max, d)
}
