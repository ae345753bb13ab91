/**
 * @description
 * Redis-backed staging store for pending account registrations. Records are
 * JSON blobs under a transient id with a TTL; redemption uses GETDEL so a
 * verification code can only be consumed once even under concurrent attempts.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhnhat165/banking-be/internal/domain"
)

const stagingKeyPrefix = "registration:pending:"

// RedisStagingStore implements StagingStore on a Redis client.
type RedisStagingStore struct {
	client *redis.Client
}

// NewRedisStagingStore creates a staging store on the given client.
func NewRedisStagingStore(client *redis.Client) *RedisStagingStore {
	return &RedisStagingStore{client: client}
}

// StagePendingRegistration stores a registration under its transient id for
// the given TTL. Staging the same id twice overwrites and refreshes the TTL.
func (s *RedisStagingStore) StagePendingRegistration(ctx context.Context, id string, registration *domain.PendingRegistration, ttl time.Duration) error {
	payload, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	return s.client.Set(ctx, stagingKeyPrefix+id, payload, ttl).Err()
}

// TakePendingRegistration atomically reads and deletes a staged registration.
func (s *RedisStagingStore) TakePendingRegistration(ctx context.Context, id string) (*domain.PendingRegistration, error) {
	payload, err := s.client.GetDel(ctx, stagingKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStagingNotFound
		}
		return nil, err
	}
	var registration domain.PendingRegistration
	if err := json.Unmarshal(payload, &registration); err != nil {
		return nil, fmt.Errorf("unmarshal pending registration: %w", err)
	}
	return &registration, nil
}
