package ranking

import (
	"strings"
	"sync"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// CatalogEntry is the projection of a scoreboard the catalog orders.
type CatalogEntry struct {
	ID        string
	CreatedAt time.Time
	Name      string
}

// catalogSortFields are the fields with maintained orderings for the
// scoreboard listing. Anything else requested falls back to createdAt.
var catalogSortFields = []string{domain.SortByCreatedAt, domain.SortByName}

func resolveCatalogSortBy(sortBy string) string {
	if sortBy == domain.SortByName {
		return domain.SortByName
	}
	return domain.SortByCreatedAt
}

func catalogCompareField(sortBy string) func(a, b CatalogEntry) int {
	if sortBy == domain.SortByName {
		return func(a, b CatalogEntry) int { return strings.Compare(a.Name, b.Name) }
	}
	return func(a, b CatalogEntry) int { return a.CreatedAt.Compare(b.CreatedAt) }
}

func catalogLessFor(sortBy string, dir domain.Direction) func(a, b CatalogEntry) bool {
	fieldCmp := catalogCompareField(sortBy)
	desc := dir == domain.DirectionDesc
	return func(a, b CatalogEntry) bool {
		if c := fieldCmp(a, b); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return a.ID < b.ID
	}
}

// Catalog maintains the ordered views of live scoreboards that back the
// top-level listing. One collection, one lock: cross-board parallelism
// matters for item reads, not for the board directory itself.
type Catalog struct {
	mu    sync.RWMutex
	views map[view]*skipList[CatalogEntry]
	byID  map[string]CatalogEntry
}

// NewCatalog creates an empty scoreboard catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		views: make(map[view]*skipList[CatalogEntry], len(catalogSortFields)*len(directions)),
		byID:  make(map[string]CatalogEntry),
	}
	for _, field := range catalogSortFields {
		for _, dir := range directions {
			c.views[view{field, dir}] = newSkipList(catalogLessFor(field, dir))
		}
	}
	return c
}

// Upsert inserts a scoreboard or replaces its entry after a rename, so
// name-ordered views pick up the new position.
func (c *Catalog) Upsert(sb domain.Scoreboard) {
	e := CatalogEntry{
		ID:        sb.ID,
		CreatedAt: sb.CreatedAt,
		Name:      sb.Name,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byID[e.ID]; ok {
		for _, sl := range c.views {
			sl.remove(old)
		}
	}
	c.byID[e.ID] = e
	for _, sl := range c.views {
		sl.insert(e)
	}
}

// Remove drops a scoreboard from the catalog. Returns false when the
// scoreboard is not listed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[id]
	if !ok {
		return false
	}
	for _, sl := range c.views {
		sl.remove(e)
	}
	delete(c.byID, id)
	return true
}

// Len returns the number of live scoreboards in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Query returns one page of scoreboard ids in the requested order plus
// the total count of live scoreboards.
func (c *Catalog) Query(params domain.PageParams) ([]string, int) {
	params.Normalize()
	v := view{
		sortBy: resolveCatalogSortBy(params.SortBy),
		dir:    domain.ParseDirection(string(params.Sort)),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	total := len(c.byID)
	entries := c.views[v].page(params.Offset(), params.Size)
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, total
}
