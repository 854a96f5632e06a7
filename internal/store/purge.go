package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// ListDeletedScoreboards returns scoreboards tombstoned before the cutoff.
// The retention sweep purges these together with all their items.
func (s *Store) ListDeletedScoreboards(_ context.Context, cutoff time.Time) ([]*domain.Scoreboard, error) {
	prefix := []byte(scoreboardPrefix)
	var boards []*domain.Scoreboard

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var sb domain.Scoreboard
				if unmarshalErr := json.Unmarshal(val, &sb); unmarshalErr != nil {
					// Skip malformed records
					return nil //nolint:nilerr // intentionally skip malformed entries
				}

				if sb.DeletedAt == nil || !sb.DeletedAt.Before(cutoff) {
					return nil
				}

				boards = append(boards, &sb)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list deleted scoreboards: %w", err)
	}

	return boards, nil
}

// ListDeletedItems returns items tombstoned before the cutoff.
func (s *Store) ListDeletedItems(_ context.Context, cutoff time.Time) ([]*domain.ScoreboardItem, error) {
	prefix := []byte(itemPrefix)
	var items []*domain.ScoreboardItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			badgerItem := it.Item()

			err := badgerItem.Value(func(val []byte) error {
				var record domain.ScoreboardItem
				if unmarshalErr := json.Unmarshal(val, &record); unmarshalErr != nil {
					// Skip malformed records
					return nil //nolint:nilerr // intentionally skip malformed entries
				}

				if record.DeletedAt == nil || !record.DeletedAt.Before(cutoff) {
					return nil
				}

				items = append(items, &record)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list deleted items: %w", err)
	}

	return items, nil
}

// ListItemIDsByScoreboard returns the ids of every item stored under a
// scoreboard, tombstoned or not. Used to cascade a scoreboard purge.
func (s *Store) ListItemIDsByScoreboard(_ context.Context, scoreboardID string) ([]string, error) {
	indexPrefix := []byte(itemsByBoardPrefix + scoreboardID + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = indexPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(indexPrefix); it.ValidForPrefix(indexPrefix); it.Next() {
			itemID := extractItemIDFromBoardKey(string(it.Item().Key()), scoreboardID)
			if itemID == "" {
				continue
			}
			ids = append(ids, itemID)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list item ids by scoreboard: %w", err)
	}

	return ids, nil
}

// PurgeItem physically removes an item record and its board index entry.
// Purging an already purged item is a no-op.
func (s *Store) PurgeItem(_ context.Context, scoreboardID, itemID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(itemPrefix + itemID)); err != nil {
			return err
		}
		return txn.Delete(itemBoardIndexKey(scoreboardID, itemID))
	})
	if err != nil {
		return fmt.Errorf("purge item: %w", err)
	}
	return nil
}

// PurgeScoreboard physically removes a scoreboard record. Items must be
// purged first via ListItemIDsByScoreboard and PurgeItem.
func (s *Store) PurgeScoreboard(_ context.Context, id string) error {
	if err := s.delete([]byte(scoreboardPrefix + id)); err != nil {
		return fmt.Errorf("purge scoreboard: %w", err)
	}
	return nil
}
