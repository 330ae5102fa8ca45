package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"codexsum/pkg/types"
)

// Common construction errors.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
)

// Request is one summarization call against a single provider.
type Request struct {
	System string // system prompt
	User   string // rendered user prompt containing the chunk text
}

// Response is a successful summarization result.
type Response struct {
	Summary   string
	TokensIn  int
	TokensOut int
	Cost      float64
	Model     string
}

// Provider is the uniform adapter interface over a remote summarization
// backend. Implementations hide transport and auth details and normalize
// failures into the shared *Error taxonomy. Summarize respects ctx for
// cancellation and the per-call timeout configured in the spec.
type Provider interface {
	Name() string
	Model() string
	Summarize(ctx context.Context, req Request) (*Response, error)
	Usage() UsageSnapshot
}

// Error is a normalized provider failure.
type Error struct {
	Provider string
	Kind     types.ErrKind
	Status   int // HTTP status when applicable, 0 otherwise
	Msg      string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (http %d): %s", e.Provider, e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Msg)
}

// Classify maps any error surfaced by an adapter onto the taxonomy.
func Classify(err error) types.ErrKind {
	if err == nil {
		return types.ErrKindNone
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return types.ErrKindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrKindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return types.ErrKindTimeout
	}
	return types.ErrKindTransient
}

// classifyStatus maps an HTTP response status onto the taxonomy. Quota
// exhaustion rides on 429 at some providers, so the body is consulted.
func classifyStatus(status int, body string) types.ErrKind {
	switch {
	case status == 401 || status == 403:
		return types.ErrKindAuthFailure
	case status == 402:
		return types.ErrKindQuotaExceeded
	case status == 429:
		if containsQuotaMarker(body) {
			return types.ErrKindQuotaExceeded
		}
		return types.ErrKindRateLimited
	case status == 408:
		return types.ErrKindTimeout
	case status >= 500:
		return types.ErrKindTransient
	case status >= 400:
		return types.ErrKindPermanentReject
	default:
		return types.ErrKindTransient
	}
}

// UsageSnapshot is a point-in-time copy of an adapter's accounting.
type UsageSnapshot struct {
	Requests int
	Errors   int
	Tokens   int64
	Cost     float64
}

// usage accumulates token and cost counters. Shared across workers, so all
// updates hold the mutex.
type usage struct {
	mu       sync.Mutex
	requests int
	errors   int
	tokens   int64
	cost     float64
}

func (u *usage) recordSuccess(tokens int, cost float64) {
	u.mu.Lock()
	u.requests++
	u.tokens += int64(tokens)
	u.cost += cost
	u.mu.Unlock()
}

func (u *usage) recordError() {
	u.mu.Lock()
	u.requests++
	u.errors++
	u.mu.Unlock()
}

func (u *usage) snapshot() UsageSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsageSnapshot{
		Requests: u.requests,
		Errors:   u.errors,
		Tokens:   u.tokens,
		Cost:     u.cost,
	}
}
