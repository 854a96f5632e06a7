package store

import (
	"context"
	"testing"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(id, scoreboardID string, score int32) *domain.ScoreboardItem {
	return &domain.ScoreboardItem{
		Syncable:     domain.Syncable{ID: id},
		ScoreboardID: scoreboardID,
		UserID:       "user-player",
		Username:     "player-one",
		Score:        score,
	}
}

func TestCreateItem(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	item := newTestItem("item-test123", "sb-board", 4200)
	err := store.CreateItem(ctx, item)
	require.NoError(t, err)

	assert.False(t, item.CreatedAt.IsZero())
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)

	retrieved, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, retrieved.ID)
	assert.Equal(t, item.ScoreboardID, retrieved.ScoreboardID)
	assert.Equal(t, item.Username, retrieved.Username)
	assert.Equal(t, int32(4200), retrieved.Score)
}

func TestCreateItem_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, newTestItem("item-test123", "sb-board", 100)))

	err := store.CreateItem(ctx, newTestItem("item-test123", "sb-board", 200))
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrItemExists)
}

func TestGetItem_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.GetItem(ctx, "item-nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGetItem_ReturnsTombstone(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	item := newTestItem("item-test123", "sb-board", 100)
	require.NoError(t, store.CreateItem(ctx, item))
	require.NoError(t, store.SoftDeleteItem(ctx, item.ID))

	// A tombstoned item is still readable until the sweep purges it
	retrieved, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.IsDeleted())
	assert.Equal(t, int32(100), retrieved.Score)
}

func TestSoftDeleteItem_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	item := newTestItem("item-test123", "sb-board", 100)
	require.NoError(t, store.CreateItem(ctx, item))

	require.NoError(t, store.SoftDeleteItem(ctx, item.ID))

	first, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	time.Sleep(10 * time.Millisecond)

	require.NoError(t, store.SoftDeleteItem(ctx, item.ID))

	second, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, second.DeletedAt)
	assert.True(t, first.DeletedAt.Equal(*second.DeletedAt))
}

func TestSoftDeleteItem_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	err := store.SoftDeleteItem(ctx, "item-nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItemsByScoreboard(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, newTestItem("item-a", "sb-board", 100)))
	require.NoError(t, store.CreateItem(ctx, newTestItem("item-b", "sb-board", 200)))
	require.NoError(t, store.CreateItem(ctx, newTestItem("item-other", "sb-other", 300)))

	items, err := store.ListItemsByScoreboard(ctx, "sb-board")
	require.NoError(t, err)
	require.Len(t, items, 2)

	ids := map[string]bool{}
	for _, item := range items {
		ids[item.ID] = true
		assert.Equal(t, "sb-board", item.ScoreboardID)
	}
	assert.True(t, ids["item-a"])
	assert.True(t, ids["item-b"])
}

func TestListItemsByScoreboard_SkipsDeleted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, newTestItem("item-live", "sb-board", 100)))
	require.NoError(t, store.CreateItem(ctx, newTestItem("item-deleted", "sb-board", 200)))
	require.NoError(t, store.SoftDeleteItem(ctx, "item-deleted"))

	items, err := store.ListItemsByScoreboard(ctx, "sb-board")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item-live", items[0].ID)
}

func TestListItemsByScoreboard_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	items, err := store.ListItemsByScoreboard(ctx, "sb-noitems")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetItemsByIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, newTestItem("item-a", "sb-board", 100)))
	require.NoError(t, store.CreateItem(ctx, newTestItem("item-b", "sb-board", 200)))
	require.NoError(t, store.CreateItem(ctx, newTestItem("item-c", "sb-board", 300)))

	// Input order is preserved, absent ids are skipped
	items, err := store.GetItemsByIDs(ctx, []string{"item-c", "item-missing", "item-a"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-c", items[0].ID)
	assert.Equal(t, "item-a", items[1].ID)
}
