// Package cache keeps user profiles in Redis so sidebar and search
// responses do not hit Postgres for every contact row.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sparrowchat/sparrow/internal/domain"
)

type UserCache struct{ R *redis.Client }

func key(id string) string { return "user:" + id }

func (c *UserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	b, err := c.R.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var u domain.User
	return &u, json.Unmarshal(b, &u)
}

func (c *UserCache) Set(ctx context.Context, u *domain.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key(u.ID), b, time.Hour).Err()
}

func (c *UserCache) Delete(ctx context.Context, id string) error {
	return c.R.Del(ctx, key(id)).Err()
}
