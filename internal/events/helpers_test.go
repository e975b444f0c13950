package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

func publishOn(ctx context.Context, rdb *redis.Client, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, channel, data).Err()
}
