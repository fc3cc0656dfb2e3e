package discovery

import (
	"sync"

	"github.com/sells-group/identity-resolver/internal/model"
)

// budgetTracker is the mutable, concurrency-safe counters backing one run's
// EnrichmentBudget enforcement (spec.md §4.5).
type budgetTracker struct {
	budget model.EnrichmentBudget

	mu              sync.Mutex
	queriesExecuted int
	platformsTried  int
	tier2Persisted  int
}

func newBudgetTracker(budget model.EnrichmentBudget) *budgetTracker {
	return &budgetTracker{budget: budget}
}

func (b *budgetTracker) recordQueries(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queriesExecuted += n
}

func (b *budgetTracker) recordPlatformAttempt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.platformsTried++
}

func (b *budgetTracker) queriesRemaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := b.budget.MaxTotalQueries - b.queriesExecuted
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *budgetTracker) queriesExhausted() bool {
	return b.queriesRemaining() <= 0
}

func (b *budgetTracker) platformsExhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.platformsTried >= b.budget.MaxPlatforms
}

func (b *budgetTracker) snapshot() (queriesExecuted, platformsTried int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queriesExecuted, b.platformsTried
}
