package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

func TestGetOrCreateThreadIdempotent(t *testing.T) {
	m := NewMemory()

	calls := 0
	create := func(ctx context.Context) (string, error) {
		calls++
		return fmt.Sprintf("thread_%d", calls), nil
	}

	for i := 0; i < 5; i++ {
		id, err := m.GetOrCreateThread(context.Background(), 42, create)
		require.NoError(t, err)
		require.Equal(t, "thread_1", id)
	}
	require.Equal(t, 1, calls)
}

func TestGetOrCreateThreadConcurrent(t *testing.T) {
	m := NewMemory()

	var calls int32
	create := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond) // окно для гонки
		return "thread_1", nil
	}

	const n = 20
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = m.GetOrCreateThread(context.Background(), 7, create)
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&calls), "тред должен создаваться ровно один раз")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "thread_1", ids[i])
	}
}

func TestGetOrCreateThreadPropagatesError(t *testing.T) {
	m := NewMemory()

	failing := func(ctx context.Context) (string, error) {
		return "", fmt.Errorf("сеть недоступна")
	}
	_, err := m.GetOrCreateThread(context.Background(), 1, failing)
	require.Error(t, err)

	// После ошибки следующий вызов снова пробует создать тред.
	id, err := m.GetOrCreateThread(context.Background(), 1, func(ctx context.Context) (string, error) {
		return "thread_ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "thread_ok", id)
}

func TestRecordDishDedupAndOrder(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.RecordDish(1, "Борщ"))
	require.NoError(t, m.RecordDish(1, "Плов"))
	require.NoError(t, m.RecordDish(1, "Борщ")) // дубликат не добавляется

	dishes, err := m.RecentDishes(1)
	require.NoError(t, err)
	require.Equal(t, []string{"Борщ", "Плов"}, dishes)
}

func TestRecordDishEvictsOldest(t *testing.T) {
	m := NewMemory()

	for i := 1; i <= models.MaxRecentDishes+1; i++ {
		require.NoError(t, m.RecordDish(1, fmt.Sprintf("Блюдо %d", i)))
	}

	dishes, err := m.RecentDishes(1)
	require.NoError(t, err)
	require.Len(t, dishes, models.MaxRecentDishes)
	require.NotContains(t, dishes, "Блюдо 1") // самое старое вытеснено
	require.Equal(t, "Блюдо 2", dishes[0])
	require.Equal(t, fmt.Sprintf("Блюдо %d", models.MaxRecentDishes+1), dishes[len(dishes)-1])
}

func TestPreferencesOverwrite(t *testing.T) {
	m := NewMemory()

	prefs, err := m.Preferences(5)
	require.NoError(t, err)
	require.Empty(t, prefs)

	require.NoError(t, m.SetPreferences(5, "без сахара"))
	require.NoError(t, m.SetPreferences(5, "больше белка"))

	prefs, err = m.Preferences(5)
	require.NoError(t, err)
	require.Equal(t, "больше белка", prefs) // перезапись целиком, без слияния
}
