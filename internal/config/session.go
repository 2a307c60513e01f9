package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phantom-go/phantom/session"
)

const redisConnectTimeout = 5 * time.Second

// SessionStores opens the stores that hold the token: the keyring, plus
// Redis when RedisURL is set. The returned function closes them.
func (s Settings) SessionStores(ctx context.Context) ([]session.Store, func() error, error) {
	ring, err := OpenKeyringStore()
	if err != nil {
		return nil, nil, err
	}
	stores := []session.Store{ring}
	if s.RedisURL == "" {
		return stores, func() error { return nil }, nil
	}

	client, err := connectRedis(ctx, s.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	stores = append(stores, session.NewRedisStore(client, "", 0))
	return stores, client.Close, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis is not reachable at %s", opts.Addr), err, client.Close())
	}
	return client, nil
}

// LoadToken returns the first token found in stores.
func LoadToken(ctx context.Context, stores []session.Store) (string, error) {
	for _, store := range stores {
		token, err := store.Get(ctx, session.TokenKey)
		if errors.Is(err, session.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", session.ErrNotFound
}
