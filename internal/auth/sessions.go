package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions tracks outstanding refresh tokens by token id. Take consumes a
// session so each refresh token works once.
type Sessions interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Take(ctx context.Context, tokenID string) (userID string, ok bool, err error)
}

// RedisSessions keeps sessions as expiring keys.
type RedisSessions struct {
	client *redis.Client
	prefix string
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, prefix: "roster:session:"}
}

func (s *RedisSessions) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+tokenID, userID, ttl).Err()
}

func (s *RedisSessions) Take(ctx context.Context, tokenID string) (string, bool, error) {
	userID, err := s.client.GetDel(ctx, s.prefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// MemorySessions is the single-process fallback.
type MemorySessions struct {
	mu    sync.Mutex
	items map[string]memorySession
	now   func() time.Time
}

type memorySession struct {
	userID  string
	expires time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{items: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessions) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, it := range s.items {
		if now.After(it.expires) {
			delete(s.items, id)
		}
	}
	s.items[tokenID] = memorySession{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (s *MemorySessions) Take(ctx context.Context, tokenID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[tokenID]
	if !ok {
		return "", false, nil
	}
	delete(s.items, tokenID)
	if s.now().After(it.expires) {
		return "", false, nil
	}
	return it.userID, true, nil
}
