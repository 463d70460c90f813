// Package decorator wraps a store.Store with cross-cutting resilience
// concerns, the same decorator-chain idiom the teacher applies to its
// repository layer (retry decorator wrapping a circuit-breaker
// decorator wrapping the base repository). Only the vector backend is
// wrapped here: per spec §4.1's failure semantics, vector operations
// are allowed to degrade independently of the store row, which is
// exactly what a breaker should protect — row writes must never trip
// open because an embedding backend is unhealthy.
package decorator

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/store"
)

// CircuitBreaking wraps a store.Store so that VectorSearch and
// VectorUpsert calls trip a breaker after a run of failures, failing
// fast instead of piling up latency against a degraded vector index.
// Every other method passes through unchanged.
type CircuitBreaking struct {
	store.Store
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewCircuitBreaking builds the breaker with the same threshold shape
// as the teacher's HTTP circuit breaker middleware: trip once at
// least minRequests have been seen and the failure ratio passes 60%.
func NewCircuitBreaking(base store.Store, logger *zap.Logger) *CircuitBreaking {
	settings := gobreaker.Settings{
		Name:        "vector-index",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("vector index circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &CircuitBreaking{
		Store:  base,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

func (c *CircuitBreaking) VectorSearch(ctx context.Context, vec []float32, k int, f store.Filter) ([]store.ScoredID, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.Store.VectorSearch(ctx, vec, k, f)
	})
	if err != nil {
		c.logger.Warn("vector search degraded, caller should fall back to keyword-only", zap.Error(err))
		return nil, err
	}
	return res.([]store.ScoredID), nil
}

func (c *CircuitBreaking) VectorUpsert(ctx context.Context, id string, vec []float32) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.Store.VectorUpsert(ctx, id, vec)
	})
	return err
}

var _ store.Store = (*CircuitBreaking)(nil)
