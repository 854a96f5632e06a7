package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func newTestDocument(id, name string) *Document {
	return &Document{
		ID:        id,
		Name:      name,
		Slug:      domain.Slugify(name),
		CreatedAt: time.Now().UnixMilli(),
	}
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexScoreboard(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexScoreboard(newTestDocument("sb-1", "Friday Night Bowling"))
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexScoreboards_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*Document{
		newTestDocument("sb-1", "Friday Night Bowling"),
		newTestDocument("sb-2", "Chess Masters"),
		newTestDocument("sb-3", "Spring Darts Cup"),
	}

	err := index.IndexScoreboards(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteScoreboard(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexScoreboard(newTestDocument("sb-1", "Friday Night Bowling"))
	require.NoError(t, err)

	err = index.DeleteScoreboard("sb-1")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*Document{
		newTestDocument("sb-1", "Friday Night Bowling"),
		newTestDocument("sb-2", "Saturday Bowling League"),
		newTestDocument("sb-3", "Chess Masters"),
	}

	err := index.IndexScoreboards(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, Params{
		Query: "bowling",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
	for _, hit := range result.Hits {
		assert.NotEqual(t, "sb-3", hit.ID)
		assert.NotEmpty(t, hit.Name)
		assert.NotEmpty(t, hit.Slug)
	}
}

func TestSearchIndex_Search_Prefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexScoreboard(newTestDocument("sb-1", "Tournament of Champions"))
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, Params{
		Query: "Tourna", // Prefix of Tournament
		Limit: 10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestSearchIndex_Search_SlugPrefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*Document{
		newTestDocument("sb-1", "Friday Night Bowling"),
		newTestDocument("sb-2", "Chess Masters"),
	}

	err := index.IndexScoreboards(docs)
	require.NoError(t, err)

	ctx := context.Background()

	// The query is slugified before the slug prefix match, so punctuation
	// and case don't matter.
	result, err := index.Search(ctx, Params{
		Query: "Friday Night!",
		Limit: 10,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Total, uint64(1))
	assert.Equal(t, "sb-1", result.Hits[0].ID)
}

func TestSearchIndex_Search_Fuzzy(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexScoreboard(newTestDocument("sb-1", "Chess Masters"))
	require.NoError(t, err)

	ctx := context.Background()

	// One edit away from "chess".
	result, err := index.Search(ctx, Params{
		Query: "chss",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestSearchIndex_Search_MatchAll(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*Document{
		newTestDocument("sb-1", "Friday Night Bowling"),
		newTestDocument("sb-2", "Chess Masters"),
	}

	err := index.IndexScoreboards(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, Params{Query: "", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestSearchIndex_Search_Pagination(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := make([]*Document, 5)
	for i := range docs {
		docs[i] = newTestDocument(fmt.Sprintf("sb-%d", i+1), fmt.Sprintf("League Board %d", i+1))
	}

	err := index.IndexScoreboards(docs)
	require.NoError(t, err)

	ctx := context.Background()

	seen := map[string]bool{}
	for offset := 0; offset < 5; offset += 2 {
		result, err := index.Search(ctx, Params{
			Query:  "league",
			Limit:  2,
			Offset: offset,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), result.Total)
		for _, hit := range result.Hits {
			assert.False(t, seen[hit.ID], "hit %s returned on two pages", hit.ID)
			seen[hit.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexScoreboard(newTestDocument("sb-1", "Friday Night Bowling"))
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Rebuild clears the index; callers reindex from the store.
	err = index.Rebuild()
	require.NoError(t, err)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	index1, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	err = index1.IndexScoreboard(newTestDocument("sb-1", "Friday Night Bowling"))
	require.NoError(t, err)

	err = index1.Close()
	require.NoError(t, err)

	index2, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ctx := context.Background()
	result, err := index2.Search(ctx, Params{Query: "bowling", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestSearchIndex_MappingVersionChangeRebuilds(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-version-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	index1, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	err = index1.IndexScoreboard(newTestDocument("sb-1", "Friday Night Bowling"))
	require.NoError(t, err)
	require.NoError(t, index1.Close())

	// Simulate an index written by an older mapping.
	versionPath := filepath.Join(tmpDir, "search.version")
	require.NoError(t, os.WriteFile(versionPath, []byte("0"), 0644))

	index2, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "stale index should be dropped")

	// Version file is rewritten with the current mapping version.
	data, err := os.ReadFile(versionPath)
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(data))
}

func TestScoreboardToDocument(t *testing.T) {
	created := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{
			ID:        "sb-123",
			CreatedAt: created,
			UpdatedAt: created,
		},
		Name:     "Friday Night Bowling",
		Slug:     "friday-night-bowling",
		AuthorID: "user-abc",
	}

	doc := ScoreboardToDocument(sb)

	assert.Equal(t, "sb-123", doc.ID)
	assert.Equal(t, "Friday Night Bowling", doc.Name)
	assert.Equal(t, "friday-night-bowling", doc.Slug)
	assert.Equal(t, created.UnixMilli(), doc.CreatedAt)
}
