package decorator

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/store"
)

// Retrying wraps a store.Store with bounded exponential backoff
// around VectorSearch, the one read path sensitive to a transient
// embedding/backend hiccup. It composes outside CircuitBreaking in
// the chain (Retrying wraps CircuitBreaking wraps the base store) so
// each retry attempt during an open breaker fails fast instead of
// reaching the backend; the backoff between attempts is still slept.
type Retrying struct {
	store.Store
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewRetrying builds the decorator with maxAttempts total tries
// (including the first) and baseDelay as the first backoff step.
func NewRetrying(base store.Store, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{Store: base, maxAttempts: maxAttempts, baseDelay: baseDelay, logger: logger}
}

func (r *Retrying) VectorSearch(ctx context.Context, vec []float32, k int, f store.Filter) ([]store.ScoredID, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int63n(int64(delay) + 1))
			select {
			case <-time.After(delay/2 + jitter/2):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		results, err := r.Store.VectorSearch(ctx, vec, k, f)
		if err == nil {
			return results, nil
		}
		lastErr = err
		r.logger.Warn("vector search attempt failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}
