package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshots stores snapshots as JSON under dashboard:snapshot:<session>.
type RedisSnapshots struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{
		client:    client,
		keyPrefix: "dashboard:snapshot:",
	}
}

func (s *RedisSnapshots) Save(ctx context.Context, sessionID string, r Records, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keyPrefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshots) Load(ctx context.Context, sessionID string) (Records, bool, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Records{}, false, nil
		}
		return Records{}, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var r Records
	if err := json.Unmarshal(data, &r); err != nil {
		return Records{}, false, err
	}
	return r, true, nil
}
