// Package ranking maintains per-scoreboard ordered projections of live
// items so paginated reads are served from standing order rather than
// re-sorting on every request. Each scoreboard carries one skip list per
// supported (field, direction) pair; the fan-out is fixed and small.
package ranking

import (
	"cmp"
	"strings"
	"sync"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// Entry is the projection the index orders: the item id plus the sortable
// fields. Full records stay in the entry store and are hydrated per page.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Score     int32
	Username  string
}

// EntryOf projects a stored item into its index entry.
func EntryOf(item domain.ScoreboardItem) Entry {
	return Entry{
		ID:        item.ID,
		CreatedAt: item.CreatedAt,
		Score:     item.Score,
		Username:  item.Username,
	}
}

// view identifies one maintained ordering.
type view struct {
	sortBy string
	dir    domain.Direction
}

var directions = []domain.Direction{domain.DirectionAsc, domain.DirectionDesc}

// itemSortFields are the fields with maintained orderings for items.
// Anything else requested falls back to createdAt.
var itemSortFields = []string{domain.SortByCreatedAt, domain.SortByScore, domain.SortByUsername}

func resolveItemSortBy(sortBy string) string {
	switch sortBy {
	case domain.SortByScore, domain.SortByUsername:
		return sortBy
	default:
		return domain.SortByCreatedAt
	}
}

// compareField is the three-way comparison for one sortable item field.
func compareField(sortBy string) func(a, b Entry) int {
	switch sortBy {
	case domain.SortByScore:
		return func(a, b Entry) int { return cmp.Compare(a.Score, b.Score) }
	case domain.SortByUsername:
		return func(a, b Entry) int { return strings.Compare(a.Username, b.Username) }
	default:
		return func(a, b Entry) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// lessFor builds the comparator for a view. Ties on the requested field
// always break ascending by id, regardless of direction, so consecutive
// page fetches never skip or duplicate an item.
func lessFor(sortBy string, dir domain.Direction) func(a, b Entry) bool {
	fieldCmp := compareField(sortBy)
	desc := dir == domain.DirectionDesc
	return func(a, b Entry) bool {
		if c := fieldCmp(a, b); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return a.ID < b.ID
	}
}

// board holds the orderings for a single scoreboard.
type board struct {
	mu    sync.RWMutex
	views map[view]*skipList[Entry]
	byID  map[string]Entry
}

func newBoard() *board {
	b := &board{
		views: make(map[view]*skipList[Entry], len(itemSortFields)*len(directions)),
		byID:  make(map[string]Entry),
	}
	for _, field := range itemSortFields {
		for _, dir := range directions {
			b.views[view{field, dir}] = newSkipList(lessFor(field, dir))
		}
	}
	return b
}

// Index maintains the ranking views for every scoreboard. Boards lock
// independently, so operations on different scoreboards run in parallel;
// within a board, reads share a lock and writes are exclusive.
type Index struct {
	mu     sync.RWMutex
	boards map[string]*board
}

// NewIndex creates an empty ranking index.
func NewIndex() *Index {
	return &Index{boards: make(map[string]*board)}
}

func (ix *Index) getBoard(scoreboardID string) (*board, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	b, ok := ix.boards[scoreboardID]
	return b, ok
}

func (ix *Index) getOrCreateBoard(scoreboardID string) *board {
	ix.mu.RLock()
	b, ok := ix.boards[scoreboardID]
	ix.mu.RUnlock()
	if ok {
		return b
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if b, ok := ix.boards[scoreboardID]; ok {
		return b
	}
	b = newBoard()
	ix.boards[scoreboardID] = b
	return b
}

// Insert adds an item to every maintained ordering of its scoreboard,
// replacing any previous entry with the same id. The item is visible to
// queries as soon as Insert returns.
func (ix *Index) Insert(item domain.ScoreboardItem) {
	b := ix.getOrCreateBoard(item.ScoreboardID)
	e := EntryOf(item)

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.byID[e.ID]; ok {
		for _, sl := range b.views {
			sl.remove(old)
		}
	}
	b.byID[e.ID] = e
	for _, sl := range b.views {
		sl.insert(e)
	}
}

// Remove drops an item from every ordering of its scoreboard. Returns
// false when the item is not indexed.
func (ix *Index) Remove(scoreboardID, itemID string) bool {
	b, ok := ix.getBoard(scoreboardID)
	if !ok {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byID[itemID]
	if !ok {
		return false
	}
	for _, sl := range b.views {
		sl.remove(e)
	}
	delete(b.byID, itemID)
	return true
}

// Query returns one page of item ids in the requested order plus the
// total count of live items. Unknown sortBy values fall back to createdAt
// and unknown directions to ascending; page and size are clamped to the
// pagination defaults. A page past the end yields an empty slice.
func (ix *Index) Query(scoreboardID string, params domain.PageParams) ([]string, int) {
	params.Normalize()
	v := view{
		sortBy: resolveItemSortBy(params.SortBy),
		dir:    domain.ParseDirection(string(params.Sort)),
	}

	b, ok := ix.getBoard(scoreboardID)
	if !ok {
		return nil, 0
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	total := len(b.byID)
	entries := b.views[v].page(params.Offset(), params.Size)
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, total
}

// DropBoard discards every ordering for a scoreboard in one step, making
// the scoreboard-delete cascade O(1) instead of one removal per item.
func (ix *Index) DropBoard(scoreboardID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.boards, scoreboardID)
}

// DropBoardIfEmpty discards a scoreboard's orderings only when no entries
// remain. The tombstone sweep uses it to reclaim the empty shells that
// Exclusive materializes for boards whose projection was already dropped,
// without touching boards that still rank live items.
func (ix *Index) DropBoardIfEmpty(scoreboardID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	b, ok := ix.boards[scoreboardID]
	if !ok {
		return
	}
	b.mu.RLock()
	empty := len(b.byID) == 0
	b.mu.RUnlock()
	if empty {
		delete(ix.boards, scoreboardID)
	}
}

// BoardCount returns the number of scoreboards with a materialized ranking.
func (ix *Index) BoardCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.boards)
}

// Exclusive runs fn while holding the scoreboard's write lock, keeping fn
// serialized against every insert, removal, and query for that board. The
// tombstone sweep wraps physical purges in this so they never interleave
// with index mutation for the same scoreboard.
func (ix *Index) Exclusive(scoreboardID string, fn func()) {
	b := ix.getOrCreateBoard(scoreboardID)
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}
