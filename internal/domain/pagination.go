package domain

// Direction is a sort direction for paginated listings.
type Direction string

const (
	// DirectionAsc sorts ascending on the requested field.
	DirectionAsc Direction = "asc"
	// DirectionDesc sorts descending on the requested field.
	DirectionDesc Direction = "desc"
)

// ParseDirection maps a direction literal to a Direction, defaulting to
// ascending for anything unrecognized. Callers that must reject malformed
// literals (the HTTP boundary) validate before parsing.
func ParseDirection(s string) Direction {
	if s == string(DirectionDesc) {
		return DirectionDesc
	}
	return DirectionAsc
}

// Supported sort fields. sortBy is a free string in the contract, so these
// are fallback targets rather than an enforced enum: anything else resolves
// to SortByCreatedAt.
const (
	SortByCreatedAt = "createdAt"
	SortByScore     = "score"
	SortByUsername  = "username"
	SortByName      = "name"
)

// Pagination bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams carries the page/size/sort parameters of a listing request.
type PageParams struct {
	Page   int
	Size   int
	Sort   Direction
	SortBy string
}

// DefaultPageParams returns params for the first page with default size,
// sorted ascending by creation time.
func DefaultPageParams() PageParams {
	return PageParams{
		Page:   DefaultPage,
		Size:   DefaultPageSize,
		Sort:   DirectionAsc,
		SortBy: SortByCreatedAt,
	}
}

// Normalize applies defaults for absent values and clamps numeric ranges:
// page floors at 1, size defaults to 10 and is clamped into [1, 100].
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Sort == "" {
		p.Sort = DirectionAsc
	}
	if p.SortBy == "" {
		p.SortBy = SortByCreatedAt
	}
}

// Offset returns the starting position within the ordered live set.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Size
}

// PaginatedResponse is the wire shape for every paginated listing.
type PaginatedResponse[T any] struct {
	Items       []T  `json:"items"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	HasNextPage bool `json:"hasNextPage"`
}

// NewPaginatedResponse assembles a response page. totalPages is
// ceil(totalItems/size) and 0 for an empty set; currentPage always echoes
// the requested page, so a page past the end yields empty items with
// hasNextPage false rather than an error.
func NewPaginatedResponse[T any](items []T, totalItems, page, size int) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + size - 1) / size
	}
	return PaginatedResponse[T]{
		Items:       items,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		CurrentPage: page,
		PageSize:    size,
		HasNextPage: page < totalPages,
	}
}
