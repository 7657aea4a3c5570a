package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrConfParamMissing = errors.New("configuration parameter missing")

type RedisConfig struct {
	Addr       string        `toml:"addr"`
	Username   string        `toml:"username"`
	Password   string        `toml:"-"`
	DB         int           `toml:"db"`
	Expiration time.Duration `toml:"-"`
}

// NewRedisConfig reads the address and credentials from the environment.
func NewRedisConfig() (*RedisConfig, error) {
	conf := new(RedisConfig)
	conf.Addr = os.Getenv("REDIS_ADDR")
	if conf.Addr == "" {
		return nil, fmt.Errorf("%w: REDIS_ADDR", ErrConfParamMissing)
	}
	conf.Username = os.Getenv("REDIS_USER")
	conf.Password = os.Getenv("REDIS_PASSWORD")
	return conf, nil
}

func (c RedisConfig) String() string {
	c.Password = strings.Repeat("*", len([]rune(c.Password)))
	return fmt.Sprintf("%#v", c)
}

// Redis is a Store backed by a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and pings it.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging Redis: %w", err)
	}
	return &Redis{client: client, ttl: cfg.Expiration}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) AddMember(ctx context.Context, set, member string) error {
	return r.client.SAdd(ctx, set, member).Err()
}

func (r *Redis) Members(ctx context.Context, set string) ([]string, error) {
	return r.client.SMembers(ctx, set).Result()
}
