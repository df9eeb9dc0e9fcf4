package numbering

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type sequenceKey struct {
	company uuid.UUID
	year    int
}

// MemoryGenerator is a process-local allocator used in tests and
// single-node setups. A mutex over the counter map gives the same
// per-key serialization guarantee as the Postgres upsert.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[sequenceKey]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[sequenceKey]int64)}
}

func (g *MemoryGenerator) Next(ctx context.Context, companyID uuid.UUID, fiscalYear int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := sequenceKey{company: companyID, year: fiscalYear}
	g.counters[key]++
	return Format(fiscalYear, g.counters[key]), nil
}
