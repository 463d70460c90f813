// Package vectorindex provides the one vector index Cortex ships
// in-core: a brute-force cosine-distance index held in memory and
// mirrored to the vectors table for durability across restarts. Index
// is a concrete type used by the SQLite store; it does not implement
// providers.VectorBackend. External backends (pgvector, qdrant, ...)
// are out of core scope.
package vectorindex

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Index is a content-addressed, agent-unscoped vector store; callers
// filter by agent after Search returns, or pass a Predicate.
type Index struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	norms   map[string]float64
}

// New returns an empty index. Load callers should call Upsert for
// every row restored from durable storage before serving traffic.
func New() *Index {
	return &Index{
		vectors: make(map[string][]float32),
		norms:   make(map[string]float64),
	}
}

// Upsert replaces id's vector. Content-addressed: re-upserting the
// same id overwrites the prior entry.
func (idx *Index) Upsert(id string, vec []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = vec
	idx.norms[id] = norm(vec)
}

// Delete removes ids from the index. Missing ids are a no-op.
func (idx *Index) Delete(ids []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, id := range ids {
		delete(idx.vectors, id)
		delete(idx.norms, id)
	}
}

// Hit is a single scored candidate, cosine distance (lower = closer).
type Hit struct {
	ID       string
	Distance float64
}

// Predicate filters candidate ids before scoring; callers use it to
// restrict the scan to a single agent's live memories without the
// index needing to know anything about agents or liveness.
type Predicate func(id string) bool

// Search returns the k closest vectors to query, in ascending
// distance order, among ids for which pred returns true. A nil pred
// admits every id.
func (idx *Index) Search(query []float32, k int, pred Predicate) []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	qNorm := norm(query)
	hits := make([]Hit, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		if pred != nil && !pred(id) {
			continue
		}
		d := cosineDistance(query, vec, qNorm, idx.norms[id])
		hits = append(hits, Hit{ID: id, Distance: d})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Len reports the number of vectors currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

func norm(v []float32) float64 {
	f := toFloat64(v)
	return floats.Norm(f, 2)
}

// cosineDistance returns 1 - cosine_similarity, clamped to [0, 2] and
// defaulting to 1 (orthogonal) when either vector is zero-length.
func cosineDistance(a, b []float32, aNorm, bNorm float64) float64 {
	if len(a) != len(b) || len(a) == 0 || aNorm == 0 || bNorm == 0 {
		return 1
	}
	dot := floats.Dot(toFloat64(a), toFloat64(b))
	sim := dot / (aNorm * bNorm)
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
