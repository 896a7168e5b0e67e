package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteThreadCreatedOnce(t *testing.T) {
	s := newTestSQLite(t)

	calls := 0
	create := func(ctx context.Context) (string, error) {
		calls++
		return "thread_1", nil
	}

	for i := 0; i < 3; i++ {
		id, err := s.GetOrCreateThread(context.Background(), 42, create)
		require.NoError(t, err)
		require.Equal(t, "thread_1", id)
	}
	require.Equal(t, 1, calls)
}

func TestSQLitePreferencesAndDishes(t *testing.T) {
	s := newTestSQLite(t)

	prefs, err := s.Preferences(1)
	require.NoError(t, err)
	require.Empty(t, prefs)

	require.NoError(t, s.SetPreferences(1, "без глютена"))
	prefs, err = s.Preferences(1)
	require.NoError(t, err)
	require.Equal(t, "без глютена", prefs)

	for i := 1; i <= models.MaxRecentDishes+2; i++ {
		require.NoError(t, s.RecordDish(1, fmt.Sprintf("Блюдо %d", i)))
	}
	require.NoError(t, s.RecordDish(1, "Блюдо 5")) // дубликат

	dishes, err := s.RecentDishes(1)
	require.NoError(t, err)
	require.Len(t, dishes, models.MaxRecentDishes)
	require.NotContains(t, dishes, "Блюдо 1")
	require.NotContains(t, dishes, "Блюдо 2")
	require.Equal(t, "Блюдо 3", dishes[0])
}
