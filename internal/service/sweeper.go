package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// Sweeper physically purges records that stayed tombstoned longer than
// the retention window. Soft deletes hide records immediately; the
// sweeper is what eventually reclaims the space. Each board's purge runs
// under the ranking index's per-board lock so a rebuild or query never
// observes a half-purged cascade.
type Sweeper struct {
	store     *store.Store
	index     *ranking.Index
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a retention sweeper. Interval controls how often the
// sweep runs, retention how long tombstones are kept before purging.
func NewSweeper(st *store.Store, index *ranking.Index, interval, retention time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:     st,
		index:     index,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run sweeps on a ticker until the context is cancelled. An initial sweep
// runs immediately so a restart doesn't postpone overdue purges by a full
// interval.
func (sw *Sweeper) Run(ctx context.Context) {
	sw.logger.Info("Tombstone sweeper starting",
		"interval", sw.interval.String(),
		"retention", sw.retention.String())

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.sweepAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			sw.sweepAndLog(ctx)
		case <-ctx.Done():
			sw.logger.Info("Tombstone sweeper stopping")
			return
		}
	}
}

func (sw *Sweeper) sweepAndLog(ctx context.Context) {
	purged, err := sw.Sweep(ctx)
	if err != nil {
		sw.logger.Warn("Tombstone sweep failed", "error", err, "purged", purged)
	}
}

// Sweep purges every record tombstoned before the retention cutoff and
// returns how many records were removed. Purging a scoreboard cascades to
// all of its items, tombstoned or not.
func (sw *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-sw.retention)
	purged := 0

	boards, err := sw.store.ListDeletedScoreboards(ctx, cutoff)
	if err != nil {
		return purged, fmt.Errorf("list tombstoned scoreboards: %w", err)
	}

	for _, sb := range boards {
		var sweepErr error
		var items int

		sw.index.Exclusive(sb.ID, func() {
			ids, listErr := sw.store.ListItemIDsByScoreboard(ctx, sb.ID)
			if listErr != nil {
				sweepErr = fmt.Errorf("list items of scoreboard %s: %w", sb.ID, listErr)
				return
			}

			for _, itemID := range ids {
				if purgeErr := sw.store.PurgeItem(ctx, sb.ID, itemID); purgeErr != nil {
					sweepErr = fmt.Errorf("purge item %s: %w", itemID, purgeErr)
					return
				}
			}

			items = len(ids)
			sweepErr = sw.store.PurgeScoreboard(ctx, sb.ID)
		})

		// Exclusive materializes an empty ranking board for unknown ids;
		// drop it so purged boards leave nothing behind.
		sw.index.DropBoard(sb.ID)

		if sweepErr != nil {
			return purged, sweepErr
		}

		purged += items + 1
		sw.logger.Info("Purged tombstoned scoreboard",
			"scoreboard_id", sb.ID,
			"items", items)
	}

	// Items tombstoned individually, on boards that still exist. Boards
	// purged above already took their items with them.
	items, err := sw.store.ListDeletedItems(ctx, cutoff)
	if err != nil {
		return purged, fmt.Errorf("list tombstoned items: %w", err)
	}

	for _, item := range items {
		var sweepErr error
		sw.index.Exclusive(item.ScoreboardID, func() {
			sweepErr = sw.store.PurgeItem(ctx, item.ScoreboardID, item.ID)
		})
		// Exclusive materializes an empty shell when the parent board's
		// projection was already dropped; reclaim it without touching
		// boards that still rank live items.
		sw.index.DropBoardIfEmpty(item.ScoreboardID)
		if sweepErr != nil {
			return purged, sweepErr
		}
		purged++
	}

	if purged > 0 {
		sw.logger.Info("Tombstone sweep complete", "purged", purged)
	}

	return purged, nil
}
