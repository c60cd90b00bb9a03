package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var ErrEmptyURL = errors.New("redis url is not set")

// Open parses a redis:// url into a client and pings it. Caller must Close
// the client.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
