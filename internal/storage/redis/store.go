// Package redis keeps every item in a single Redis hash so one HGETALL
// returns the whole state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/storage"
)

type Store struct {
	url       string
	namespace string
	client    *goredis.Client
}

// New creates a store for a redis:// URL. An empty namespace falls back to
// the application name.
func New(url, namespace string) *Store {
	if namespace == "" {
		namespace = constants.AppName
	}
	return &Store{url: url, namespace: namespace}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, namespace string) *Store {
	s := New("", namespace)
	s.client = client
	return s
}

// Key joins the namespace and parts with ':'.
func (s *Store) Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(s.namespace)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (s *Store) hash() string {
	return s.Key("store")
}

func (s *Store) Init() error {
	return s.Load()
}

func (s *Store) Load() error {
	if s.client == nil {
		opts, err := goredis.ParseURL(s.url)
		if err != nil {
			return fmt.Errorf("invalid redis URL: %w", err)
		}
		opts.DialTimeout = 5 * time.Second
		opts.ReadTimeout = 3 * time.Second
		opts.WriteTimeout = 3 * time.Second
		opts.MaxRetries = 3
		s.client = goredis.NewClient(opts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.HGet(ctx, s.hash(), key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) GetAll(ctx context.Context) (map[string][]byte, error) {
	all, err := s.client.HGetAll(ctx, s.hash()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	items := make(map[string][]byte, len(all))
	for k, v := range all {
		items[k] = []byte(v)
	}
	return items, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.HSet(ctx, s.hash(), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.hash(), keys...).Err(); err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.hash()).Err(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return "redis:" + s.namespace
}
