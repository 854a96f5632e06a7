package api

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoredeck/scoredeck-server/internal/domain"
)

func TestScoreboardCRUD(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "crud@test.com")

	// Create.
	resp := ts.api.Post("/api/scoreboards", "Authorization: Bearer "+token, map[string]any{
		"name": "Friday Night Bowling",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ScoreboardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Friday Night Bowling", created.Name)
	assert.Equal(t, "friday-night-bowling", created.Slug)
	assert.Equal(t, userID, created.AuthorID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Read back.
	resp = ts.api.Get("/api/scoreboards/"+created.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched ScoreboardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	// Rename.
	resp = ts.api.Put("/api/scoreboards/"+created.ID, "Authorization: Bearer "+token, map[string]any{
		"name": "Saturday Bowling",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var renamed ScoreboardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &renamed))
	assert.Equal(t, "Saturday Bowling", renamed.Name)
	assert.Equal(t, "saturday-bowling", renamed.Slug)
	assert.True(t, renamed.UpdatedAt.After(renamed.CreatedAt) || renamed.UpdatedAt.Equal(renamed.CreatedAt))

	// Delete.
	resp = ts.api.Delete("/api/scoreboards/"+created.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	// Gone from reads.
	resp = ts.api.Get("/api/scoreboards/"+created.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScoreboardDelete_SecondDeleteIsNotFound(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "double-delete@test.com")
	boardID := ts.createTestScoreboard(t, token, "Short Lived")

	resp := ts.api.Delete("/api/scoreboards/"+boardID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete("/api/scoreboards/"+boardID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScoreboardUpdate_Validation(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "rename@test.com")
	boardID := ts.createTestScoreboard(t, token, "Valid Name")

	tests := []struct {
		name     string
		body     map[string]any
		expected int
	}{
		{"empty name", map[string]any{"name": ""}, http.StatusBadRequest},
		{"whitespace name", map[string]any{"name": "   "}, http.StatusBadRequest},
		{"valid name", map[string]any{"name": "Renamed"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Put("/api/scoreboards/"+boardID, "Authorization: Bearer "+token, tt.body)
			assert.Equal(t, tt.expected, resp.Code, resp.Body.String())
		})
	}

	// Renaming a missing scoreboard is not found, not a validation error.
	resp := ts.api.Put("/api/scoreboards/sb-missing", "Authorization: Bearer "+token, map[string]any{
		"name": "Whatever",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func listScoreboards(t *testing.T, ts *testServer, token, query string) domain.PaginatedResponse[ScoreboardResponse] {
	t.Helper()
	resp := ts.api.Get("/api/scoreboards"+query, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var page domain.PaginatedResponse[ScoreboardResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	return page
}

func TestListScoreboards_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "pages@test.com")

	for i := 0; i < 25; i++ {
		ts.createTestScoreboard(t, token, fmt.Sprintf("Board %02d", i))
	}

	page := listScoreboards(t, ts, token, "?page=1&size=10")
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 10, page.PageSize)
	assert.True(t, page.HasNextPage)

	page = listScoreboards(t, ts, token, "?page=3&size=10")
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.CurrentPage)
	assert.False(t, page.HasNextPage)

	// Beyond the last page: empty items, no error.
	page = listScoreboards(t, ts, token, "?page=9&size=10")
	assert.Empty(t, page.Items)
	assert.Equal(t, 9, page.CurrentPage)
	assert.False(t, page.HasNextPage)

	// hasNextPage == currentPage < totalPages on every page.
	for p := 1; p <= 4; p++ {
		page = listScoreboards(t, ts, token, fmt.Sprintf("?page=%d&size=10", p))
		assert.Equal(t, p < page.TotalPages, page.HasNextPage, "page %d", p)
	}
}

func TestListScoreboards_ParameterPolicy(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "params@test.com")
	ts.createTestScoreboard(t, token, "Only Board")

	t.Run("defaults applied when absent", func(t *testing.T) {
		page := listScoreboards(t, ts, token, "")
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, 10, page.PageSize)
	})

	t.Run("page below one clamps to one", func(t *testing.T) {
		page := listScoreboards(t, ts, token, "?page=-3")
		assert.Equal(t, 1, page.CurrentPage)
	})

	t.Run("size clamps into range", func(t *testing.T) {
		page := listScoreboards(t, ts, token, "?size=500")
		assert.Equal(t, 100, page.PageSize)

		page = listScoreboards(t, ts, token, "?size=-1")
		assert.Equal(t, 1, page.PageSize)
	})

	t.Run("unknown sortBy falls back to createdAt", func(t *testing.T) {
		page := listScoreboards(t, ts, token, "?sortBy=nonsense")
		assert.Len(t, page.Items, 1)
	})

	t.Run("malformed sort literal is rejected", func(t *testing.T) {
		resp := ts.api.Get("/api/scoreboards?sort=upwards", "Authorization: Bearer "+token)
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		var problem problemDoc
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
		assert.Contains(t, problem.Detail, "sort direction")
	})
}

func TestListScoreboards_SortByName(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "sorting@test.com")

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		ts.createTestScoreboard(t, token, name)
	}

	page := listScoreboards(t, ts, token, "?sortBy=name&sort=asc")
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Alpha", page.Items[0].Name)
	assert.Equal(t, "Bravo", page.Items[1].Name)
	assert.Equal(t, "Charlie", page.Items[2].Name)

	page = listScoreboards(t, ts, token, "?sortBy=name&sort=desc")
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Charlie", page.Items[0].Name)
}
