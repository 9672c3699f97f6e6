// Package presence mirrors live-connection state into Redis with a TTL so
// liveness is authoritative even after an unclean shutdown, and pushes the
// online-user snapshot to connected clients whenever it changes.
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
)

const (
	TTL       = 60 * time.Second
	onlineSet = "presence:online"
)

// Store tracks which users currently hold a live session. Entries expire
// on their own; a connected session refreshes its entry on a heartbeat.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func userKey(userID string) string {
	return "presence:user:" + userID
}

func (s *Store) Register(ctx context.Context, userID string) error {
	pipe := s.client.TxPipeline()

	pipe.Set(ctx, userKey(userID), time.Now().Format(time.RFC3339), TTL)
	pipe.SAdd(ctx, onlineSet, userID)
	pipe.Expire(ctx, onlineSet, TTL+time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Unregister(ctx context.Context, userID string) error {
	pipe := s.client.TxPipeline()

	pipe.Del(ctx, userKey(userID))
	pipe.SRem(ctx, onlineSet, userID)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Refresh(ctx context.Context, userID string) error {
	pipe := s.client.TxPipeline()
	pipe.Expire(ctx, userKey(userID), TTL)
	pipe.Expire(ctx, onlineSet, TTL+time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// Online returns every user whose presence entry is still alive. Set
// members whose per-user key has expired are dropped from the result and
// cleaned out of the set asynchronously.
func (s *Store) Online(ctx context.Context) ([]string, error) {
	log := observability.GetLogger(ctx)

	ids, err := s.client.SMembers(ctx, onlineSet).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	online := make([]string, 0, len(ids))
	var stale []any

	for i, v := range values {
		if v == nil {
			stale = append(stale, ids[i])
			continue
		}
		online = append(online, ids[i])
	}

	// Async cleanup of expired entries
	if len(stale) > 0 {
		go func() {
			if err := s.client.SRem(context.Background(), onlineSet, stale...).Err(); err != nil {
				log.Error("presence: fail to cleanup stale entries", zap.Error(err))
			}
		}()
	}

	return online, nil
}
