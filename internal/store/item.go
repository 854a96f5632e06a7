package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/scoredeck/scoredeck-server/internal/domain"
)

const (
	itemPrefix = "item:"

	// Index key: idx:items:board:{scoreboardID}:{itemID} -> empty.
	itemsByBoardPrefix = "idx:items:board:"
)

func itemBoardIndexKey(scoreboardID, itemID string) []byte {
	return []byte(itemsByBoardPrefix + scoreboardID + ":" + itemID)
}

// CreateItem persists a new scoreboard item and its board index entry in
// one transaction, assigning createdAt = updatedAt = now.
func (s *Store) CreateItem(_ context.Context, item *domain.ScoreboardItem) error {
	key := buildKey(itemPrefix, item.ID)
	exists, err := s.exists(key)
	releaseKey(key)
	if err != nil {
		return fmt.Errorf("check item exists: %w", err)
	}
	if exists {
		return ErrItemExists
	}

	item.InitTimestamps()

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}

		if err := txn.Set([]byte(itemPrefix+item.ID), data); err != nil {
			return err
		}

		return txn.Set(itemBoardIndexKey(item.ScoreboardID, item.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by ID. Tombstoned records are returned with
// DeletedAt set; only an absent or purged id yields ErrItemNotFound.
func (s *Store) GetItem(_ context.Context, id string) (*domain.ScoreboardItem, error) {
	key := buildKey(itemPrefix, id)
	defer releaseKey(key)

	var item domain.ScoreboardItem
	if err := s.get(key, &item); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &item, nil
}

// UpdateItem replaces an item record and bumps updatedAt. The board
// index entry is keyed by scoreboard and item id only, so no index
// maintenance is needed here.
func (s *Store) UpdateItem(ctx context.Context, item *domain.ScoreboardItem) error {
	if _, err := s.GetItem(ctx, item.ID); err != nil {
		return err
	}

	item.Touch()

	if err := s.set([]byte(itemPrefix+item.ID), item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// SoftDeleteItem tombstones an item. Deleting an already deleted item
// succeeds without changing its deletedAt. The board index entry stays
// until the retention sweep purges the record.
func (s *Store) SoftDeleteItem(ctx context.Context, id string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	if item.IsDeleted() {
		return nil
	}
	item.MarkDeleted()

	if err := s.set([]byte(itemPrefix+id), item); err != nil {
		return fmt.Errorf("soft delete item: %w", err)
	}
	return nil
}

// ExistsItem reports whether an item record is present, tombstoned or not.
func (s *Store) ExistsItem(_ context.Context, id string) (bool, error) {
	key := buildKey(itemPrefix, id)
	defer releaseKey(key)
	return s.exists(key)
}

// ListItemsByScoreboard returns all live items of a scoreboard. Used to
// rebuild the in-memory ranking views at startup.
func (s *Store) ListItemsByScoreboard(_ context.Context, scoreboardID string) ([]*domain.ScoreboardItem, error) {
	indexPrefix := []byte(itemsByBoardPrefix + scoreboardID + ":")
	var items []*domain.ScoreboardItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Key-only index, no values to fetch
		opts.Prefix = indexPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(indexPrefix); it.ValidForPrefix(indexPrefix); it.Next() {
			itemID := extractItemIDFromBoardKey(string(it.Item().Key()), scoreboardID)
			if itemID == "" {
				continue
			}

			record, err := s.getItemInTxn(txn, itemID)
			if err != nil {
				continue
			}
			if record.IsDeleted() {
				continue
			}

			items = append(items, record)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list items by scoreboard: %w", err)
	}

	return items, nil
}

// GetItemsByIDs fetches items in the given order within one read
// transaction. Ids that are absent are silently skipped, so a purge
// racing a listing shortens the page instead of failing it.
func (s *Store) GetItemsByIDs(_ context.Context, ids []string) ([]*domain.ScoreboardItem, error) {
	items := make([]*domain.ScoreboardItem, 0, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			record, err := s.getItemInTxn(txn, id)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, record)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("get items by ids: %w", err)
	}

	return items, nil
}

// getItemInTxn retrieves an item within an existing transaction.
func (s *Store) getItemInTxn(txn *badger.Txn, id string) (*domain.ScoreboardItem, error) {
	item, err := txn.Get([]byte(itemPrefix + id))
	if err != nil {
		return nil, err
	}

	var record domain.ScoreboardItem
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// extractItemIDFromBoardKey extracts the item ID from a board index key.
// Key format: idx:items:board:{scoreboardID}:{itemID}.
func extractItemIDFromBoardKey(key, scoreboardID string) string {
	prefix := itemsByBoardPrefix + scoreboardID + ":"
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	return key[len(prefix):]
}
