// Package service implements ScoreDeck's business logic: scoreboard and
// item lifecycle, accounts and sessions, and the tombstone retention
// sweep. Services are the sole writers of the entry store and the
// ranking projections, which is what keeps the two consistent without
// cross-layer locking.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/audit"
	"github.com/scoredeck/scoredeck-server/internal/domain"
	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
	"github.com/scoredeck/scoredeck-server/internal/id"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/search"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100

	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// SearchIndexer mirrors scoreboard writes into the full-text index and
// serves queries back. The bleve-backed implementation lives in
// internal/search; NoopIndexer stands in when search is disabled.
type SearchIndexer interface {
	IndexScoreboard(doc *search.Document) error
	IndexScoreboards(docs []*search.Document) error
	DeleteScoreboard(id string) error
	Search(ctx context.Context, params search.Params) (*search.Result, error)
	DocumentCount() (uint64, error)
	Rebuild() error
}

// EventEmitter receives change notifications for live subscribers. The
// realtime hub implements it; NoopEmitter stands in for tests.
type EventEmitter interface {
	Emit(event domain.Event)
}

// NoopIndexer ignores all indexing work and matches nothing.
type NoopIndexer struct{}

// NewNoopIndexer creates a search indexer that does nothing.
func NewNoopIndexer() *NoopIndexer { return &NoopIndexer{} }

// IndexScoreboard implements SearchIndexer.
func (*NoopIndexer) IndexScoreboard(*search.Document) error { return nil }

// IndexScoreboards implements SearchIndexer.
func (*NoopIndexer) IndexScoreboards([]*search.Document) error { return nil }

// DeleteScoreboard implements SearchIndexer.
func (*NoopIndexer) DeleteScoreboard(string) error { return nil }

// Search implements SearchIndexer. It always returns an empty result.
func (*NoopIndexer) Search(context.Context, search.Params) (*search.Result, error) {
	return &search.Result{Hits: []search.Hit{}}, nil
}

// DocumentCount implements SearchIndexer.
func (*NoopIndexer) DocumentCount() (uint64, error) { return 0, nil }

// Rebuild implements SearchIndexer.
func (*NoopIndexer) Rebuild() error { return nil }

// NoopEmitter discards all events.
type NoopEmitter struct{}

// NewNoopEmitter creates an event emitter that does nothing.
func NewNoopEmitter() *NoopEmitter { return &NoopEmitter{} }

// Emit implements EventEmitter.
func (*NoopEmitter) Emit(domain.Event) {}

// ScoreboardService owns the scoreboard and item lifecycle. Every write
// lands in the entry store first and then in the ranking views, so a
// crash between the two loses only projection state, which the next
// startup rebuild restores from the store.
type ScoreboardService struct {
	store   *store.Store
	index   *ranking.Index
	catalog *ranking.Catalog
	search  SearchIndexer
	events  EventEmitter
	audit   *audit.Log
	logger  *slog.Logger
}

// NewScoreboardService creates the scoreboard service. The audit log may
// be nil, in which case no audit entries are recorded.
func NewScoreboardService(
	st *store.Store,
	index *ranking.Index,
	catalog *ranking.Catalog,
	searchIndexer SearchIndexer,
	events EventEmitter,
	auditLog *audit.Log,
	logger *slog.Logger,
) *ScoreboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreboardService{
		store:   st,
		index:   index,
		catalog: catalog,
		search:  searchIndexer,
		events:  events,
		audit:   auditLog,
		logger:  logger,
	}
}

// CreateScoreboardRequest contains the fields for creating a scoreboard.
type CreateScoreboardRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// UpdateScoreboardRequest contains the fields for renaming a scoreboard.
type UpdateScoreboardRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateItemRequest contains the fields for submitting a score.
type CreateItemRequest struct {
	UserID   string `json:"userId" validate:"required,max=100"`
	Username string `json:"username" validate:"required,max=100"`
	Score    int32  `json:"score"`
}

// ScoreboardSearchResult is one page of full-text matches, hydrated from
// the entry store.
type ScoreboardSearchResult struct {
	Scoreboards []*domain.Scoreboard
	Total       uint64
	TookMs      int64
}

// CreateScoreboard creates a scoreboard owned by the given author.
func (s *ScoreboardService) CreateScoreboard(ctx context.Context, authorID string, req CreateScoreboardRequest) (*domain.Scoreboard, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	boardID, err := id.Generate("sb")
	if err != nil {
		return nil, fmt.Errorf("generate scoreboard ID: %w", err)
	}

	sb := &domain.Scoreboard{
		Syncable: domain.Syncable{ID: boardID},
		Name:     req.Name,
		Slug:     domain.Slugify(req.Name),
		AuthorID: authorID,
	}

	if err := s.store.CreateScoreboard(ctx, sb); err != nil {
		return nil, fmt.Errorf("create scoreboard: %w", err)
	}
	s.catalog.Upsert(*sb)
	s.indexForSearch(sb)

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      authorID,
		Action:     audit.ActionScoreboardCreated,
		TargetType: audit.TargetScoreboard,
		TargetID:   boardID,
		Detail:     fmt.Sprintf("name %q", sb.Name),
	})

	s.logger.Info("Scoreboard created",
		"scoreboard_id", boardID,
		"name", sb.Name,
		"author_id", authorID,
	)

	return sb, nil
}

// GetScoreboard retrieves a live scoreboard. Tombstoned and absent ids
// are both not found.
func (s *ScoreboardService) GetScoreboard(ctx context.Context, scoreboardID string) (*domain.Scoreboard, error) {
	sb, err := s.store.GetScoreboard(ctx, scoreboardID)
	if err != nil {
		if errors.Is(err, store.ErrScoreboardNotFound) {
			return nil, domainerrors.NotFound("scoreboard not found")
		}
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	if sb.IsDeleted() {
		return nil, domainerrors.NotFound("scoreboard not found")
	}
	return sb, nil
}

// UpdateScoreboard renames a scoreboard. The slug is recomputed from the
// new name so search keeps matching what users see.
func (s *ScoreboardService) UpdateScoreboard(ctx context.Context, actorID, scoreboardID string, req UpdateScoreboardRequest) (*domain.Scoreboard, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sb, err := s.GetScoreboard(ctx, scoreboardID)
	if err != nil {
		return nil, err
	}

	previous := sb.Name
	sb.Name = req.Name
	sb.Slug = domain.Slugify(req.Name)

	if err := s.store.UpdateScoreboard(ctx, sb); err != nil {
		return nil, fmt.Errorf("update scoreboard: %w", err)
	}
	s.catalog.Upsert(*sb)
	s.indexForSearch(sb)

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      actorID,
		Action:     audit.ActionScoreboardRenamed,
		TargetType: audit.TargetScoreboard,
		TargetID:   scoreboardID,
		Detail:     fmt.Sprintf("renamed %q to %q", previous, sb.Name),
	})
	s.events.Emit(domain.Event{
		Type:         domain.EventScoreboardUpdated,
		ScoreboardID: scoreboardID,
		Name:         sb.Name,
	})

	s.logger.Info("Scoreboard renamed",
		"scoreboard_id", scoreboardID,
		"name", sb.Name,
	)

	return sb, nil
}

// DeleteScoreboard tombstones a scoreboard and drops its ranking views.
// Items keep their records untouched; they become invisible because every
// listing goes through the board. Deleting an already deleted scoreboard
// is not found, so clients can tell a repeat delete from a first one.
func (s *ScoreboardService) DeleteScoreboard(ctx context.Context, actorID, scoreboardID string) error {
	sb, err := s.GetScoreboard(ctx, scoreboardID)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteScoreboard(ctx, scoreboardID); err != nil {
		return fmt.Errorf("delete scoreboard: %w", err)
	}
	s.catalog.Remove(scoreboardID)
	s.index.DropBoard(scoreboardID)
	if err := s.search.DeleteScoreboard(scoreboardID); err != nil {
		s.logger.Warn("Failed to remove scoreboard from search index",
			"scoreboard_id", scoreboardID,
			"error", err,
		)
	}

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      actorID,
		Action:     audit.ActionScoreboardDeleted,
		TargetType: audit.TargetScoreboard,
		TargetID:   scoreboardID,
		Detail:     fmt.Sprintf("name %q", sb.Name),
	})
	s.events.Emit(domain.Event{
		Type:         domain.EventScoreboardDeleted,
		ScoreboardID: scoreboardID,
		Name:         sb.Name,
	})

	s.logger.Info("Scoreboard deleted", "scoreboard_id", scoreboardID)

	return nil
}

// ListScoreboards returns one page of live scoreboards in the requested
// order, hydrated from the entry store.
func (s *ScoreboardService) ListScoreboards(ctx context.Context, params domain.PageParams) (*domain.PaginatedResponse[*domain.Scoreboard], error) {
	params.Normalize()

	ids, total := s.catalog.Query(params)
	boards, err := s.store.GetScoreboardsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate scoreboards: %w", err)
	}

	resp := domain.NewPaginatedResponse(boards, total, params.Page, params.Size)
	return &resp, nil
}

// CreateItem submits a score to a scoreboard. The username is snapshotted
// on the item and never re-synced from the user record.
func (s *ScoreboardService) CreateItem(ctx context.Context, actorID, scoreboardID string, req CreateItemRequest) (*domain.ScoreboardItem, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, err := s.GetScoreboard(ctx, scoreboardID); err != nil {
		return nil, err
	}

	itemID, err := id.Generate("item")
	if err != nil {
		return nil, fmt.Errorf("generate item ID: %w", err)
	}

	item := &domain.ScoreboardItem{
		Syncable:     domain.Syncable{ID: itemID},
		ScoreboardID: scoreboardID,
		UserID:       req.UserID,
		Username:     req.Username,
		Score:        req.Score,
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.index.Insert(*item)

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      actorID,
		Action:     audit.ActionItemCreated,
		TargetType: audit.TargetScoreboard,
		TargetID:   scoreboardID,
		Detail:     fmt.Sprintf("item %s: %s scored %d", itemID, item.Username, item.Score),
	})
	s.events.Emit(domain.Event{
		Type:         domain.EventItemCreated,
		ScoreboardID: scoreboardID,
		ItemID:       itemID,
		Name:         item.Username,
	})

	s.logger.Info("Item created",
		"scoreboard_id", scoreboardID,
		"item_id", itemID,
		"score", item.Score,
	)

	return item, nil
}

// DeleteItem tombstones an item and removes it from the ranking views.
// An item reached through the wrong scoreboard is not found, the same as
// an id that never existed.
func (s *ScoreboardService) DeleteItem(ctx context.Context, actorID, scoreboardID, itemID string) error {
	if _, err := s.GetScoreboard(ctx, scoreboardID); err != nil {
		return err
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return domainerrors.NotFound("scoreboard item not found")
		}
		return fmt.Errorf("get item: %w", err)
	}
	if item.ScoreboardID != scoreboardID || item.IsDeleted() {
		return domainerrors.NotFound("scoreboard item not found")
	}

	if err := s.store.SoftDeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.index.Remove(scoreboardID, itemID)

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      actorID,
		Action:     audit.ActionItemDeleted,
		TargetType: audit.TargetScoreboard,
		TargetID:   scoreboardID,
		Detail:     fmt.Sprintf("item %s: %s", itemID, item.Username),
	})
	s.events.Emit(domain.Event{
		Type:         domain.EventItemDeleted,
		ScoreboardID: scoreboardID,
		ItemID:       itemID,
		Name:         item.Username,
	})

	s.logger.Info("Item deleted",
		"scoreboard_id", scoreboardID,
		"item_id", itemID,
	)

	return nil
}

// ListItems returns one page of a scoreboard's live items in the
// requested order. A missing or deleted scoreboard is not found.
func (s *ScoreboardService) ListItems(ctx context.Context, scoreboardID string, params domain.PageParams) (*domain.PaginatedResponse[*domain.ScoreboardItem], error) {
	if _, err := s.GetScoreboard(ctx, scoreboardID); err != nil {
		return nil, err
	}

	params.Normalize()

	ids, total := s.index.Query(scoreboardID, params)
	items, err := s.store.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate items: %w", err)
	}

	resp := domain.NewPaginatedResponse(items, total, params.Page, params.Size)
	return &resp, nil
}

// SearchScoreboards runs a full-text query over scoreboard names and
// slugs, hydrating hits from the entry store. Tombstoned boards are
// filtered on hydrate, so a stale index entry can shorten a page but
// never resurrect a deleted board.
func (s *ScoreboardService) SearchScoreboards(ctx context.Context, query string, limit int) (*ScoreboardSearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	res, err := s.search.Search(ctx, search.Params{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("search scoreboards: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}

	boards, err := s.store.GetScoreboardsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate search hits: %w", err)
	}

	live := make([]*domain.Scoreboard, 0, len(boards))
	for _, sb := range boards {
		if !sb.IsDeleted() {
			live = append(live, sb)
		}
	}

	return &ScoreboardSearchResult{
		Scoreboards: live,
		Total:       res.Total,
		TookMs:      res.TookMs,
	}, nil
}

// AuditTrail returns a scoreboard's audit entries, newest first. It
// answers for tombstoned and even purged boards, which is the point of
// the trail: the id stays valid for audit after the board is gone. Only
// an id with no record and no history is not found.
func (s *ScoreboardService) AuditTrail(ctx context.Context, scoreboardID string, limit int, before *time.Time, beforeID string) ([]*audit.Entry, error) {
	if s.audit == nil {
		return nil, domainerrors.Internal("audit log unavailable")
	}

	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.audit.ListByTarget(ctx, audit.TargetScoreboard, scoreboardID, limit, before, beforeID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	if len(entries) == 0 {
		exists, err := s.store.ExistsScoreboard(ctx, scoreboardID)
		if err != nil {
			return nil, fmt.Errorf("check scoreboard exists: %w", err)
		}
		if !exists {
			return nil, domainerrors.NotFound("scoreboard not found")
		}
	}

	return entries, nil
}

// WarmProjections rebuilds the in-memory catalog and ranking views from
// the entry store. Called once at startup before the server accepts
// requests.
func (s *ScoreboardService) WarmProjections(ctx context.Context) error {
	boards, err := s.store.ListScoreboards(ctx)
	if err != nil {
		return fmt.Errorf("list scoreboards: %w", err)
	}

	itemCount := 0
	for _, sb := range boards {
		s.catalog.Upsert(*sb)

		items, err := s.store.ListItemsByScoreboard(ctx, sb.ID)
		if err != nil {
			return fmt.Errorf("list items for scoreboard %s: %w", sb.ID, err)
		}
		for _, item := range items {
			s.index.Insert(*item)
		}
		itemCount += len(items)
	}

	s.logger.Info("Ranking projections loaded",
		"scoreboards", len(boards),
		"items", itemCount,
	)

	return nil
}

// SyncSearchIndex reconciles the search index with the entry store. The
// bleve index persists across restarts, so this is a no-op unless the
// index is empty (fresh or rebuilt after a mapping change) or its count
// drifted from the store.
func (s *ScoreboardService) SyncSearchIndex(ctx context.Context) error {
	count, err := s.search.DocumentCount()
	if err != nil {
		return fmt.Errorf("search document count: %w", err)
	}

	boards, err := s.store.ListScoreboards(ctx)
	if err != nil {
		return fmt.Errorf("list scoreboards: %w", err)
	}

	if count == uint64(len(boards)) {
		return nil
	}

	if count > 0 {
		// Drop stale documents before the bulk load.
		if err := s.search.Rebuild(); err != nil {
			return fmt.Errorf("rebuild search index: %w", err)
		}
	}

	docs := make([]*search.Document, 0, len(boards))
	for _, sb := range boards {
		docs = append(docs, search.ScoreboardToDocument(sb))
	}
	if len(docs) > 0 {
		if err := s.search.IndexScoreboards(docs); err != nil {
			return fmt.Errorf("index scoreboards: %w", err)
		}
	}

	s.logger.Info("Search index synced", "documents", len(docs))

	return nil
}

// indexForSearch mirrors a scoreboard write into the search index. Index
// failures are logged, not returned: the entry store stays authoritative
// and SyncSearchIndex heals the index on the next startup.
func (s *ScoreboardService) indexForSearch(sb *domain.Scoreboard) {
	if err := s.search.IndexScoreboard(search.ScoreboardToDocument(sb)); err != nil {
		s.logger.Warn("Failed to index scoreboard for search",
			"scoreboard_id", sb.ID,
			"error", err,
		)
	}
}

// recordAudit writes an audit entry without failing the caller: audit is
// best-effort and the primary operation has already succeeded.
func recordAudit(ctx context.Context, log *audit.Log, logger *slog.Logger, entry *audit.Entry) {
	if log == nil {
		return
	}
	if err := log.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record audit entry",
			"action", entry.Action,
			"target_id", entry.TargetID,
			"error", err,
		)
	}
}
