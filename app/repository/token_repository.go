package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository tracks revoked JWT ids until they would have expired anyway.
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewTokenRepository stores revocations in Redis, or in process memory when
// rdb is nil (single-instance and test setups).
func NewTokenRepository(rdb *redis.Client) TokenRepository {
	if rdb == nil {
		return &memoryTokenRepository{revoked: map[string]time.Time{}, now: time.Now}
	}
	return &redisTokenRepository{rdb: rdb}
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}

type redisTokenRepository struct {
	rdb *redis.Client
}

func (r *redisTokenRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.rdb.Get(ctx, revokedKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type memoryTokenRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func (r *memoryTokenRepository) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for k, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, k)
		}
	}
	r.revoked[jti] = now.Add(ttl)
	return nil
}

func (r *memoryTokenRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.revoked[jti]
	return ok && exp.After(r.now()), nil
}
