package fallback

import (
	"context"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"codexsum/internal/provider"
	"codexsum/internal/ratelimit"
	"codexsum/pkg/types"
)

// Config tunes chain execution.
type Config struct {
	// RetryAttempts is the total calls issued against one provider for
	// retryable failures before moving down the chain. Minimum 1.
	RetryAttempts int

	// FallbackEnabled controls whether the chain continues past the first
	// provider. When false only the highest-priority provider is tried.
	FallbackEnabled bool

	BaseBackoff time.Duration // first retry delay; doubles per attempt
	MaxBackoff  time.Duration // backoff cap

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c *Config) defaults() {
	if c.RetryAttempts < 1 {
		c.RetryAttempts = 1
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = defaultBaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
}

// Orchestrator executes one chunk against the provider chain in priority
// order, with per-provider retry and circuit breaking. It is shared by all
// dispatch workers; the limiter and breakers carry the shared mutable
// state, everything else is task-local.
type Orchestrator struct {
	providers []provider.Provider
	limiter   *ratelimit.Limiter
	breakers  map[string]*Breaker
	cfg       Config
	log       *zap.Logger
}

// New creates an orchestrator over a priority-sorted provider chain.
func New(providers []provider.Provider, limiter *ratelimit.Limiter, cfg Config, log *zap.Logger) *Orchestrator {
	cfg.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	breakers := make(map[string]*Breaker, len(providers))
	for _, p := range providers {
		breakers[p.Name()] = NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	return &Orchestrator{
		providers: providers,
		limiter:   limiter,
		breakers:  breakers,
		cfg:       cfg,
		log:       log,
	}
}

// Execute runs the chain for one chunk and always returns a terminal
// ChunkResult: a success, a failure aggregating every provider's outcome,
// or a cancellation.
func (o *Orchestrator) Execute(ctx context.Context, chunk *types.Chunk) *types.ChunkResult {
	return o.run(ctx, chunk, provider.ChunkPrompt(chunk))
}

// ExecuteFile summarizes a file that fits in a single chunk with the
// whole-file prompt instead of the chunk prompt. The result still carries
// the chunk's identity so it aggregates like any other chunk.
func (o *Orchestrator) ExecuteFile(ctx context.Context, chunk *types.Chunk, lang types.Language) *types.ChunkResult {
	return o.run(ctx, chunk, provider.FilePrompt(chunk.FilePath, lang, chunk.Text))
}

// ExecuteRequest runs an arbitrary request through the same chain. Used for
// overview aggregation.
func (o *Orchestrator) ExecuteRequest(ctx context.Context, req provider.Request) *types.ChunkResult {
	return o.run(ctx, nil, req)
}

func (o *Orchestrator) run(ctx context.Context, chunk *types.Chunk, req provider.Request) *types.ChunkResult {
	start := time.Now()
	result := &types.ChunkResult{}
	if chunk != nil {
		result.FilePath = chunk.FilePath
		result.Index = chunk.Index
		result.ChunkHash = hex.EncodeToString(chunk.ContentHash[:])
	}

	for _, p := range o.providers {
		if ctx.Err() != nil {
			result.ErrKind = types.ErrKindCancelled
			result.Elapsed = time.Since(start)
			return result
		}

		br := o.breakers[p.Name()]
		if !br.Allow() {
			o.log.Debug("provider skipped, circuit open", zap.String("provider", p.Name()))
			result.Attempts = append(result.Attempts, types.AttemptOutcome{
				Provider: p.Name(),
				Model:    p.Model(),
				ErrKind:  types.ErrKindSkipped,
				Err:      "circuit breaker open",
			})
			// A skipped slot still counts as the one permitted provider
			// when fallback is off.
			if !o.cfg.FallbackEnabled {
				break
			}
			continue
		}

		outcome, resp := o.tryProvider(ctx, p, req)
		result.Attempts = append(result.Attempts, outcome)

		if resp != nil {
			br.Success()
			result.Summary = resp.Summary
			result.Provider = p.Name()
			result.Model = resp.Model
			result.TokensUsed = resp.TokensIn + resp.TokensOut
			if result.TokensUsed == 0 {
				result.TokensUsed = types.EstimateTokens(req.User) + types.EstimateTokens(resp.Summary)
			}
			result.Cost = resp.Cost
			result.Elapsed = time.Since(start)
			return result
		}

		if outcome.ErrKind == types.ErrKindCancelled {
			result.ErrKind = types.ErrKindCancelled
			result.Elapsed = time.Since(start)
			return result
		}
		br.Failure()
		o.log.Warn("provider exhausted for chunk",
			zap.String("provider", p.Name()),
			zap.String("kind", string(outcome.ErrKind)),
			zap.Int("attempts", outcome.Attempts))

		if !o.cfg.FallbackEnabled {
			break
		}
	}

	// Chain exhausted: the terminal failure carries every provider's final
	// outcome and the kind of the last real attempt.
	result.ErrKind = types.ErrKindTransient
	for i := len(result.Attempts) - 1; i >= 0; i-- {
		if result.Attempts[i].ErrKind != types.ErrKindSkipped {
			result.ErrKind = result.Attempts[i].ErrKind
			break
		}
	}
	result.Elapsed = time.Since(start)
	return result
}

// tryProvider issues up to RetryAttempts calls against one provider.
// RateLimited, Timeout, and Transient failures back off exponentially and
// retry; AuthFailure, PermanentReject, and QuotaExceeded stop immediately
// since they cannot recover for this request.
func (o *Orchestrator) tryProvider(ctx context.Context, p provider.Provider, req provider.Request) (types.AttemptOutcome, *provider.Response) {
	outcome := types.AttemptOutcome{Provider: p.Name(), Model: p.Model()}
	backoff := o.cfg.BaseBackoff

	for attempt := 1; attempt <= o.cfg.RetryAttempts; attempt++ {
		if err := o.limiter.Wait(ctx, p.Name()); err != nil {
			outcome.ErrKind = types.ErrKindCancelled
			outcome.Err = err.Error()
			return outcome, nil
		}

		outcome.Attempts++
		resp, err := p.Summarize(ctx, req)
		if err == nil {
			outcome.ErrKind = types.ErrKindNone
			return outcome, resp
		}

		kind := provider.Classify(err)
		outcome.ErrKind = kind
		outcome.Err = err.Error()

		if kind == types.ErrKindCancelled || !kind.Retryable() {
			return outcome, nil
		}
		if attempt < o.cfg.RetryAttempts {
			o.log.Debug("retrying provider",
				zap.String("provider", p.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.String("kind", string(kind)))
			if err := sleep(ctx, backoff); err != nil {
				outcome.ErrKind = types.ErrKindCancelled
				outcome.Err = err.Error()
				return outcome, nil
			}
			backoff = nextBackoff(backoff, o.cfg.MaxBackoff)
		}
	}
	return outcome, nil
}
