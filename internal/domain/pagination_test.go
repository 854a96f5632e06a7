package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
	}{
		{"asc", DirectionAsc},
		{"desc", DirectionDesc},
		{"", DirectionAsc},
		{"descending", DirectionAsc},
		{"DESC", DirectionAsc},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDirection(tt.input))
		})
	}
}

func TestPageParams_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       PageParams
		expected PageParams
	}{
		{
			"zero value gets defaults",
			PageParams{},
			PageParams{Page: 1, Size: 10, Sort: DirectionAsc, SortBy: SortByCreatedAt},
		},
		{
			"negative page floors at one",
			PageParams{Page: -3, Size: 20, Sort: DirectionDesc, SortBy: SortByScore},
			PageParams{Page: 1, Size: 20, Sort: DirectionDesc, SortBy: SortByScore},
		},
		{
			"oversized page size clamps to max",
			PageParams{Page: 2, Size: 5000, Sort: DirectionAsc, SortBy: SortByUsername},
			PageParams{Page: 2, Size: 100, Sort: DirectionAsc, SortBy: SortByUsername},
		},
		{
			"negative size clamps to one",
			PageParams{Page: 1, Size: -5},
			PageParams{Page: 1, Size: 1, Sort: DirectionAsc, SortBy: SortByCreatedAt},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestPageParams_Offset(t *testing.T) {
	p := PageParams{Page: 3, Size: 10}
	assert.Equal(t, 20, p.Offset())

	p = PageParams{Page: 1, Size: 25}
	assert.Equal(t, 0, p.Offset())
}

func TestNewPaginatedResponse_TotalPages(t *testing.T) {
	tests := []struct {
		name          string
		totalItems    int
		page, size    int
		expectedPages int
		expectedNext  bool
	}{
		{"empty set has zero pages", 0, 1, 10, 0, false},
		{"exact multiple", 20, 1, 10, 2, true},
		{"partial last page rounds up", 21, 1, 10, 3, true},
		{"single item", 1, 1, 10, 1, false},
		{"last page has no next", 21, 3, 10, 3, false},
		{"beyond last page has no next", 21, 9, 10, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPaginatedResponse([]string{}, tt.totalItems, tt.page, tt.size)
			assert.Equal(t, tt.expectedPages, resp.TotalPages)
			assert.Equal(t, tt.expectedNext, resp.HasNextPage)
			assert.Equal(t, tt.page, resp.CurrentPage)
			assert.Equal(t, tt.size, resp.PageSize)
		})
	}
}

func TestNewPaginatedResponse_NilItemsBecomeEmptySlice(t *testing.T) {
	resp := NewPaginatedResponse[string](nil, 0, 1, 10)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestNewPaginatedResponse_HasNextMatchesPageMath(t *testing.T) {
	// hasNextPage must equal currentPage < totalPages for every combination.
	for total := 0; total <= 35; total += 7 {
		for page := 1; page <= 5; page++ {
			resp := NewPaginatedResponse([]int{}, total, page, 10)
			assert.Equal(t, resp.CurrentPage < resp.TotalPages, resp.HasNextPage,
				"total=%d page=%d", total, page)
		}
	}
}
