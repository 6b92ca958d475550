package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/ragstudio/embedgate/internal/domain"
)

type mockBudgetStore struct {
	mu     sync.Mutex
	values map[string]int64
	getErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{values: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.values[key], nil
}

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	b := NewBudgetTracker("prov", 100, 0, BudgetActionReject, zap.NewNop())

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("fresh budget must allow requests, got %v", err)
	}

	b.Record(100)

	err := b.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestBudgetTracker_UnlimitedWhenZeroLimits(t *testing.T) {
	b := NewBudgetTracker("prov", 0, 0, BudgetActionReject, zap.NewNop())
	b.Record(1 << 40)

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("zero limits mean unlimited, got %v", err)
	}
	if got := b.RemainingDaily(); got != -1 {
		t.Fatalf("expected -1 (unlimited), got %d", got)
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	b := NewBudgetTracker("prov", 1000, 2000, BudgetActionReject, zap.NewNop())
	b.Record(300)

	if got := b.RemainingDaily(); got != 700 {
		t.Fatalf("expected 700 daily remaining, got %d", got)
	}
	if got := b.RemainingMonthly(); got != 1700 {
		t.Fatalf("expected 1700 monthly remaining, got %d", got)
	}

	b.Record(5000)
	if got := b.RemainingDaily(); got != 0 {
		t.Fatalf("overrun must clamp to 0, got %d", got)
	}
}

func TestBudgetTracker_WriteBehindToStore(t *testing.T) {
	store := newMockBudgetStore()
	b := NewBudgetTracker("prov", 0, 0, BudgetActionWarn, zap.NewNop()).
		WithStore(context.Background(), store)

	b.Record(42)

	store.mu.Lock()
	defer store.mu.Unlock()
	var total int64
	for _, v := range store.values {
		total += v
	}
	// One daily key and one monthly key, both incremented by 42.
	if total != 84 {
		t.Fatalf("expected 84 persisted tokens across keys, got %d", total)
	}
}

func TestBudgetTracker_LoadsFromStore(t *testing.T) {
	store := newMockBudgetStore()
	seed := NewBudgetTracker("prov", 0, 0, BudgetActionWarn, zap.NewNop()).
		WithStore(context.Background(), store)
	seed.Record(500)

	restarted := NewBudgetTracker("prov", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(context.Background(), store)

	if got := restarted.RemainingDaily(); got != 500 {
		t.Fatalf("expected 500 remaining after restart, got %d", got)
	}
}
