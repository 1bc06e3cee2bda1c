package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// VisitedStore hands out Redis sets namespaced by run id. Every key it
// creates is removed by Cleanup so nothing survives the run.
type VisitedStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration

	mu   sync.Mutex
	keys []string
}

func NewVisitedStore(redisClient *redis.Client, keyPrefix, runID string, ttl time.Duration) *VisitedStore {
	return &VisitedStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix + runID + ":",
		ttl:         ttl,
	}
}

// Set returns the visited set called name. Matches traversal.VisitedSetFactory.
func (s *VisitedStore) Set(name string) *VisitedSet {
	key := s.keyPrefix + name

	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.mu.Unlock()

	return &VisitedSet{redisClient: s.redisClient, key: key, ttl: s.ttl}
}

// Cleanup deletes every set handed out by this store.
func (s *VisitedStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	keys := append([]string(nil), s.keys...)
	s.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}

	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete visited sets: %w", err)
	}

	log.Debugf("🗑️ Removed %d visited sets", len(keys))
	return nil
}

// VisitedSet is one Redis set. SADD reports how many members were new, which
// makes it an atomic check-and-insert.
type VisitedSet struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
}

func (v *VisitedSet) Claim(ctx context.Context, identity string) (bool, error) {
	pipe := v.redisClient.TxPipeline()
	added := pipe.SAdd(ctx, v.key, identity)
	if v.ttl > 0 {
		pipe.Expire(ctx, v.key, v.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to claim %s in %s: %w", identity, v.key, err)
	}

	return added.Val() == 1, nil
}
