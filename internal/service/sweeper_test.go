package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

func setupSweeperTest(t *testing.T, retention time.Duration) (*Sweeper, *ScoreboardService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "scoredeck-sweeper-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	index := ranking.NewIndex()
	svc := NewScoreboardService(
		s,
		index,
		ranking.NewCatalog(),
		NewNoopIndexer(),
		NewNoopEmitter(),
		nil,
		nil,
	)
	sw := NewSweeper(s, index, time.Hour, retention, nil)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return sw, svc, s, cleanup
}

func TestSweeper_PurgesExpiredTombstones(t *testing.T) {
	sw, svc, st, cleanup := setupSweeperTest(t, 0)
	defer cleanup()

	ctx := context.Background()

	sb, err := svc.CreateScoreboard(ctx, "user-author", CreateScoreboardRequest{Name: "Expired"})
	require.NoError(t, err)

	item, err := svc.CreateItem(ctx, "user-author", sb.ID, CreateItemRequest{
		UserID:   "user-alice",
		Username: "alice",
		Score:    10,
	})
	require.NoError(t, err)

	keep, err := svc.CreateScoreboard(ctx, "user-author", CreateScoreboardRequest{Name: "Live"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteScoreboard(ctx, "user-author", sb.ID))

	purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, purged) // the board and its one item

	// Purged means gone from the store, not just tombstoned
	_, err = st.GetScoreboard(ctx, sb.ID)
	assert.True(t, errors.Is(err, store.ErrScoreboardNotFound))
	_, err = st.GetItem(ctx, item.ID)
	assert.True(t, errors.Is(err, store.ErrItemNotFound))

	// Live boards are untouched
	_, err = st.GetScoreboard(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestSweeper_KeepsFreshTombstones(t *testing.T) {
	sw, svc, st, cleanup := setupSweeperTest(t, time.Hour)
	defer cleanup()

	ctx := context.Background()

	sb, err := svc.CreateScoreboard(ctx, "user-author", CreateScoreboardRequest{Name: "Recent"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteScoreboard(ctx, "user-author", sb.ID))

	purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, purged)

	// Still tombstoned in the store, waiting out the retention window
	raw, err := st.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	assert.NotNil(t, raw.DeletedAt)
}

func TestSweeper_LeavesNoShellForDroppedBoards(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "scoredeck-sweeper-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	index := ranking.NewIndex()
	svc := NewScoreboardService(st, index, ranking.NewCatalog(), NewNoopIndexer(), NewNoopEmitter(), nil, nil)
	sw := NewSweeper(st, index, time.Hour, time.Hour, nil)

	ctx := context.Background()

	sb, err := svc.CreateScoreboard(ctx, "user-author", CreateScoreboardRequest{Name: "Board"})
	require.NoError(t, err)
	item, err := svc.CreateItem(ctx, "user-author", sb.ID, CreateItemRequest{
		UserID:   "user-alice",
		Username: "alice",
		Score:    10,
	})
	require.NoError(t, err)

	// The item's tombstone predates the retention cutoff; the board's is
	// fresh, so only the item qualifies for this sweep.
	require.NoError(t, svc.DeleteItem(ctx, "user-author", sb.ID, item.ID))
	stale, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	stale.DeletedAt = &past
	require.NoError(t, st.UpdateItem(ctx, stale))

	require.NoError(t, svc.DeleteScoreboard(ctx, "user-author", sb.ID))
	require.Equal(t, 0, index.BoardCount())

	purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	// Purging the orphaned item must not leave a materialized ranking
	// shell behind for the dropped board.
	assert.Equal(t, 0, index.BoardCount())

	_, err = st.GetItem(ctx, item.ID)
	assert.True(t, errors.Is(err, store.ErrItemNotFound))
	raw, err := st.GetScoreboard(ctx, sb.ID)
	require.NoError(t, err)
	assert.NotNil(t, raw.DeletedAt)
}

func TestSweeper_PurgesIndividuallyDeletedItems(t *testing.T) {
	sw, svc, st, cleanup := setupSweeperTest(t, 0)
	defer cleanup()

	ctx := context.Background()

	sb, err := svc.CreateScoreboard(ctx, "user-author", CreateScoreboardRequest{Name: "Board"})
	require.NoError(t, err)

	gone, err := svc.CreateItem(ctx, "user-author", sb.ID, CreateItemRequest{
		UserID:   "user-alice",
		Username: "alice",
		Score:    10,
	})
	require.NoError(t, err)
	stays, err := svc.CreateItem(ctx, "user-author", sb.ID, CreateItemRequest{
		UserID:   "user-bob",
		Username: "bob",
		Score:    20,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, "user-author", sb.ID, gone.ID))

	purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = st.GetItem(ctx, gone.ID)
	assert.True(t, errors.Is(err, store.ErrItemNotFound))
	_, err = st.GetItem(ctx, stays.ID)
	assert.NoError(t, err)

	// The board itself is untouched and still serves its live item
	page, err := svc.ListItems(ctx, sb.ID, domain.DefaultPageParams())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, stays.ID, page.Items[0].ID)
}
