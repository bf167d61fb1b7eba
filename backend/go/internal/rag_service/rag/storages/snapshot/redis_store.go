package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
)

// DefaultRedisKey is used when no key is configured.
const DefaultRedisKey = "docsearch:snapshot"

// RedisStore keeps the snapshot JSON under a single Redis key.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a RedisStore on top of an existing client.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load fetches the snapshot. A missing key is an empty snapshot.
func (s *RedisStore) Load(ctx context.Context) (*schema.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return schema.NewSnapshot(), nil
	}
	if err != nil {
		return schema.NewSnapshot(), fmt.Errorf("snapshot: redis get %s: %w", s.key, err)
	}
	return Decode(data)
}

// Save overwrites the key with the encoded snapshot. The key has no expiry.
func (s *RedisStore) Save(ctx context.Context, snap *schema.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("snapshot: redis set %s: %w", s.key, err)
	}
	return nil
}

// compile-time check to ensure RedisStore implements the SnapshotStore interface
var _ interfaces.SnapshotStore = (*RedisStore)(nil)
