package audit

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AppendAndRecent(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(Record{
			ID:        fmt.Sprintf("inv-%d", i),
			ToolID:    "hackernews/get_front_page",
			Outcome:   "success",
			Duration:  120 * time.Millisecond,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "inv-4", recent[0].ID)
	require.Equal(t, "inv-2", recent[2].ID)
}

func TestStore_RecentOnEmptyStore(t *testing.T) {
	store := openTestStore(t)
	recent, err := store.Recent(10)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestStore_AppendRequiresID(t *testing.T) {
	store := openTestStore(t)
	require.Error(t, store.Append(Record{ToolID: "a/b"}))
}

func TestStore_Closed(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.ErrorIs(t, store.Append(Record{ID: "x", StartedAt: time.Now()}), ErrStoreClosed)
	_, err := store.Recent(1)
	require.ErrorIs(t, err, ErrStoreClosed)
	require.NoError(t, store.Close())
}
