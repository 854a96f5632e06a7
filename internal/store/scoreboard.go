package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/scoredeck/scoredeck-server/internal/domain"
)

const scoreboardPrefix = "scoreboard:"

// CreateScoreboard persists a new scoreboard, assigning
// createdAt = updatedAt = now.
func (s *Store) CreateScoreboard(_ context.Context, sb *domain.Scoreboard) error {
	key := buildKey(scoreboardPrefix, sb.ID)
	exists, err := s.exists(key)
	releaseKey(key)
	if err != nil {
		return fmt.Errorf("check scoreboard exists: %w", err)
	}
	if exists {
		return ErrScoreboardExists
	}

	sb.InitTimestamps()

	if err := s.set([]byte(scoreboardPrefix+sb.ID), sb); err != nil {
		return fmt.Errorf("create scoreboard: %w", err)
	}
	return nil
}

// GetScoreboard retrieves a scoreboard by ID. Tombstoned records are
// returned with DeletedAt set; callers decide whether a tombstone counts
// as found. Only an absent or purged id yields ErrScoreboardNotFound.
func (s *Store) GetScoreboard(_ context.Context, id string) (*domain.Scoreboard, error) {
	key := buildKey(scoreboardPrefix, id)
	defer releaseKey(key)

	var sb domain.Scoreboard
	if err := s.get(key, &sb); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrScoreboardNotFound
		}
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}

	return &sb, nil
}

// UpdateScoreboard replaces a scoreboard record and bumps updatedAt.
func (s *Store) UpdateScoreboard(ctx context.Context, sb *domain.Scoreboard) error {
	if _, err := s.GetScoreboard(ctx, sb.ID); err != nil {
		return err
	}

	sb.Touch()

	if err := s.set([]byte(scoreboardPrefix+sb.ID), sb); err != nil {
		return fmt.Errorf("update scoreboard: %w", err)
	}
	return nil
}

// SoftDeleteScoreboard tombstones a scoreboard. Deleting an already
// deleted scoreboard succeeds without changing its deletedAt.
func (s *Store) SoftDeleteScoreboard(ctx context.Context, id string) error {
	sb, err := s.GetScoreboard(ctx, id)
	if err != nil {
		return err
	}

	if sb.IsDeleted() {
		return nil
	}
	sb.MarkDeleted()

	if err := s.set([]byte(scoreboardPrefix+id), sb); err != nil {
		return fmt.Errorf("soft delete scoreboard: %w", err)
	}
	return nil
}

// ExistsScoreboard reports whether a scoreboard record is present,
// tombstoned or not.
func (s *Store) ExistsScoreboard(_ context.Context, id string) (bool, error) {
	key := buildKey(scoreboardPrefix, id)
	defer releaseKey(key)
	return s.exists(key)
}

// ListScoreboards returns all live scoreboards. Used to rebuild the
// in-memory catalog and ranking views at startup.
func (s *Store) ListScoreboards(_ context.Context) ([]*domain.Scoreboard, error) {
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

				if sb.IsDeleted() {
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
		return nil, fmt.Errorf("list scoreboards: %w", err)
	}

	return boards, nil
}

// GetScoreboardsByIDs fetches scoreboards in the given order within one
// read transaction. Ids that are absent are silently skipped, so a purge
// racing a listing shortens the page instead of failing it.
func (s *Store) GetScoreboardsByIDs(_ context.Context, ids []string) ([]*domain.Scoreboard, error) {
	boards := make([]*domain.Scoreboard, 0, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get([]byte(scoreboardPrefix + id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			err = item.Value(func(val []byte) error {
				var sb domain.Scoreboard
				if unmarshalErr := json.Unmarshal(val, &sb); unmarshalErr != nil {
					return unmarshalErr
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
		return nil, fmt.Errorf("get scoreboards by ids: %w", err)
	}

	return boards, nil
}
