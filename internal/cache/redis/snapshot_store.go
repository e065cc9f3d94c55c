package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quantframe/simtrader/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore on Redis string values.
// Snapshots are full trader states and deliberately carry no TTL: a backtest
// state stays restorable until overwritten or deleted.
//
// Key schema:
//
//	snapshot:{key} - JSON blob of the trader state
type SnapshotStore struct {
	rdb *redis.Client
}

// NewSnapshotStore creates a SnapshotStore backed by the given Client.
func NewSnapshotStore(c *Client) *SnapshotStore {
	return &SnapshotStore{rdb: c.Underlying()}
}

func snapshotKey(key string) string { return "snapshot:" + key }

// Save stores blob under key, replacing any previous snapshot.
func (s *SnapshotStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.rdb.Set(ctx, snapshotKey(key), blob, 0).Err(); err != nil {
		return fmt.Errorf("redis: save snapshot %s: %w", key, err)
	}
	return nil
}

// Load retrieves the snapshot stored under key.
// It returns domain.ErrNotFound when the key does not exist.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: load snapshot %s: %w", key, err)
	}
	return blob, nil
}
