package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

const redisKeyPrefix = "gangsheet:job:"

// RedisStore keeps jobs in Redis so multiple instances can share one
// job space. Expiry is delegated to the server via per-key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis instance named by url
// (redis://[user:pass@]host:port/db) and verifies it responds.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "invalid redis url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to connect to redis")
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Put stores a job under its ID.
func (s *RedisStore) Put(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to encode job %s", job.ID)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+job.ID, data, s.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to store job %s", job.ID)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to load job %s", id)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to decode job %s", id)
	}
	return &job, nil
}

// Delete removes a job.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to delete job %s", id)
	}
	return nil
}

// Close shuts down the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
