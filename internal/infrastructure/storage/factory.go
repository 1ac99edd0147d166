package storage

import (
	"sync"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/redis/go-redis/v9"
)

// Factory returns the token storage for one dashboard client
type Factory func(clientID string) domain.TokenStorage

// RedisFactory scopes a shared Redis client per dashboard client
func RedisFactory(client *redis.Client, ttl time.Duration) Factory {
	return func(clientID string) domain.TokenStorage {
		return NewRedisTokenStorage(client, clientID, ttl)
	}
}

// MemoryFactory hands out one in-memory storage per client id and keeps it
// for the life of the process, so workspace eviction does not drop tokens.
func MemoryFactory() Factory {
	var mu sync.Mutex
	stores := make(map[string]*MemoryTokenStorage)
	return func(clientID string) domain.TokenStorage {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[clientID]
		if !ok {
			s = NewMemoryTokenStorage()
			stores[clientID] = s
		}
		return s
	}
}
