// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

// ErrNotFound is returned when no credential is stored for a session id.
var ErrNotFound = errors.New("session not found")

const sessionKeyPrefix = "console:session:"

// Store persists the credential issued at login. There are no hidden
// process-wide globals: everything goes through get/set/clear.
type Store interface {
	Get(ctx context.Context, sessionID string) (*models.Credential, error)
	Set(ctx context.Context, sessionID string, cred *models.Credential, ttl time.Duration) error
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore keeps credentials in Redis so console sessions survive
// service restarts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.Credential, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &cred, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, cred *models.Credential, ttl time.Duration) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is an in-process Store for tests and local development
// without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*models.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*models.Credential)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cred, nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID string, cred *models.Credential, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sessionID] = cred
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionID)
	return nil
}
