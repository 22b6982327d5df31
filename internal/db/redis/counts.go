package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// GetCount reads a cached count. A missing key returns db.ErrKeyNotFound.
func (s *Store) GetCount(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsInt64()
	switch {
	case err == nil:
		return n, nil
	case rueidis.IsRedisNil(err):
		return 0, db.ErrKeyNotFound
	default:
		return 0, &db.Error{Op: db.OpGet, Err: err}
	}
}

// PutCount stores a count that expires after ttl. A non-positive ttl is rejected.
func (s *Store) PutCount(ctx context.Context, key string, n int64, ttl time.Duration) error {
	if ttl <= 0 {
		return &db.Error{Op: db.OpSet, Err: errNoTTL}
	}
	cmd := s.client.B().Set().Key(key).Value(strconv.FormatInt(n, 10)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
