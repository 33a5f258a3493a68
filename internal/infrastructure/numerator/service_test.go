package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockledger/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sequence_counters keyed by (user_id, key).
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	lastKey  string
	err      error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	k := args[0].(string) + "|" + args[1].(string)
	m.lastKey = args[1].(string)

	// Seed passes the target value as the third argument.
	if len(args) == 3 {
		if v := args[2].(int64); v > m.counters[k] {
			m.counters[k] = v
		}
		return &mockRow{val: m.counters[k]}
	}

	m.counters[k]++
	return &mockRow{val: m.counters[k]}
}

var day = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func TestNext_Sequential(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixInvoice)

	num, err := svc.Next(ctx, "user-1", cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "INV-20261014-0001", num)
	assert.Equal(t, "INV_20261014", q.lastKey)

	num, err = svc.Next(ctx, "user-1", cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "INV-20261014-0002", num)
}

func TestNext_ScopedByOwnerAndDay(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixDeliveryOrder)

	_, _ = svc.Next(ctx, "user-1", cfg, day)
	other, err := svc.Next(ctx, "user-2", cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "DO-20261014-0001", other)

	tomorrow, err := svc.Next(ctx, "user-1", cfg, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "DO-20261015-0001", tomorrow)
}

func TestNext_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixPurchaseRequest)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(context.Background(), "user-1", cfg, day)
			if err == nil {
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for num := range results {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestSeed_NeverMovesBackwards(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixInvoice)

	require.NoError(t, svc.Seed(ctx, "user-1", cfg, day, 41))
	require.NoError(t, svc.Seed(ctx, "user-1", cfg, day, 7))

	num, err := svc.Next(ctx, "user-1", cfg, day)
	require.NoError(t, err)
	assert.Equal(t, "INV-20261014-0042", num)
}

func TestNext_PropagatesQueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(q)

	_, err := svc.Next(context.Background(), "user-1", corenumerator.DefaultConfig("INV"), day)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNext_RequiresPrefix(t *testing.T) {
	svc := New(newMockQuerier())
	_, err := svc.Next(context.Background(), "user-1", corenumerator.Config{}, day)
	assert.Error(t, err)
}
