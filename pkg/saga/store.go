package saga

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrSagaNotFound is returned when a saga instance is not found
	ErrSagaNotFound = errors.New("saga instance not found")
	// ErrSagaAlreadyExists is returned when trying to create a duplicate saga
	ErrSagaAlreadyExists = errors.New("saga instance already exists")
)

// Store persists saga instances for later inspection
type Store interface {
	// Save persists a new saga instance
	Save(ctx context.Context, instance *Instance) error
	// Get retrieves a saga instance by ID
	Get(ctx context.Context, id string) (*Instance, error)
	// Update overwrites an existing saga instance
	Update(ctx context.Context, instance *Instance) error
	// GetByStatus retrieves saga instances by status, oldest first
	GetByStatus(ctx context.Context, status Status, limit int) ([]*Instance, error)
	// GetByLabel retrieves saga instances carrying label key=value, oldest first
	GetByLabel(ctx context.Context, key, value string, limit int) ([]*Instance, error)
}

// MemoryStore is an in-memory implementation of Store.
// Finished instances are dropped once they outlive the retention window or
// the store grows past its cap; running instances are never evicted.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[string]*memoryEntry

	maxInstances int
	retention    time.Duration
}

type memoryEntry struct {
	data        []byte
	completedAt *time.Time
}

// MemoryStoreOption configures a MemoryStore
type MemoryStoreOption func(*MemoryStore)

// WithMaxInstances caps how many instances are kept; 0 means no cap
func WithMaxInstances(n int) MemoryStoreOption {
	return func(s *MemoryStore) { s.maxInstances = n }
}

// WithRetention drops finished instances older than d; 0 keeps them until the cap evicts them
func WithRetention(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.retention = d }
}

// NewMemoryStore creates a new in-memory saga store
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		instances: make(map[string]*memoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newMemoryEntry(instance *Instance) (*memoryEntry, error) {
	data, err := instance.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize saga instance: %w", err)
	}
	instance.mu.RLock()
	completedAt := instance.CompletedAt
	instance.mu.RUnlock()
	return &memoryEntry{data: data, completedAt: completedAt}, nil
}

// Save persists a saga instance
func (s *MemoryStore) Save(ctx context.Context, instance *Instance) error {
	entry, err := newMemoryEntry(instance)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instance.ID]; exists {
		return ErrSagaAlreadyExists
	}
	s.instances[instance.ID] = entry
	s.evictLocked(time.Now())
	return nil
}

// Get retrieves a saga instance by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*Instance, error) {
	s.mu.RLock()
	entry, exists := s.instances[id]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrSagaNotFound
	}
	return FromJSON(entry.data)
}

// Update updates an existing saga instance
func (s *MemoryStore) Update(ctx context.Context, instance *Instance) error {
	entry, err := newMemoryEntry(instance)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instance.ID]; !exists {
		return ErrSagaNotFound
	}
	s.instances[instance.ID] = entry
	s.evictLocked(time.Now())
	return nil
}

// evictLocked drops expired finished instances, then the oldest finished ones while over the cap
func (s *MemoryStore) evictLocked(now time.Time) {
	type finished struct {
		id string
		at time.Time
	}
	var done []finished
	for id, e := range s.instances {
		if e.completedAt == nil {
			continue
		}
		if s.retention > 0 && now.Sub(*e.completedAt) > s.retention {
			delete(s.instances, id)
			continue
		}
		done = append(done, finished{id: id, at: *e.completedAt})
	}

	over := len(s.instances) - s.maxInstances
	if s.maxInstances <= 0 || over <= 0 {
		return
	}
	sort.Slice(done, func(a, b int) bool { return done[a].at.Before(done[b].at) })
	for i := 0; i < over && i < len(done); i++ {
		delete(s.instances, done[i].id)
	}
}

// GetByStatus retrieves saga instances by status
func (s *MemoryStore) GetByStatus(ctx context.Context, status Status, limit int) ([]*Instance, error) {
	return s.filter(limit, func(i *Instance) bool { return i.Status == status })
}

// GetByLabel retrieves saga instances by label
func (s *MemoryStore) GetByLabel(ctx context.Context, key, value string, limit int) ([]*Instance, error) {
	return s.filter(limit, func(i *Instance) bool { return i.Labels[key] == value })
}

func (s *MemoryStore) filter(limit int, match func(*Instance) bool) ([]*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Instance
	for _, entry := range s.instances {
		instance, err := FromJSON(entry.data)
		if err != nil {
			return nil, err
		}
		if match(instance) {
			result = append(result, instance)
		}
	}
	return oldestFirst(result, limit), nil
}

// Count returns the number of stored instances
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

func oldestFirst(instances []*Instance, limit int) []*Instance {
	sort.Slice(instances, func(a, b int) bool {
		return instances[a].CreatedAt.Before(instances[b].CreatedAt)
	})
	if limit > 0 && len(instances) > limit {
		instances = instances[:limit]
	}
	return instances
}

// RedisClient defines the Redis operations needed by the saga store.
// Get returns ErrSagaNotFound for a missing key.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error)
	SetXX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error)
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
}

// RedisStore is a Redis-based implementation of Store
type RedisStore struct {
	client     RedisClient
	keyPrefix  string
	expiration time.Duration
}

// NewRedisStore creates a new Redis-based saga store
func NewRedisStore(client RedisClient, keyPrefix string, expiration time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "saga:"
	}
	if expiration == 0 {
		expiration = 24 * time.Hour
	}
	return &RedisStore{
		client:     client,
		keyPrefix:  keyPrefix,
		expiration: expiration,
	}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Save persists a saga instance
func (s *RedisStore) Save(ctx context.Context, instance *Instance) error {
	data, err := instance.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize saga instance: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(instance.ID), data, s.expiration)
	if err != nil {
		return fmt.Errorf("failed to save saga instance: %w", err)
	}
	if !ok {
		return ErrSagaAlreadyExists
	}
	return nil
}

// Get retrieves a saga instance by ID
func (s *RedisStore) Get(ctx context.Context, id string) (*Instance, error) {
	data, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return nil, err
	}
	return FromJSON([]byte(data))
}

// Update updates an existing saga instance
func (s *RedisStore) Update(ctx context.Context, instance *Instance) error {
	data, err := instance.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize saga instance: %w", err)
	}

	ok, err := s.client.SetXX(ctx, s.key(instance.ID), data, s.expiration)
	if err != nil {
		return fmt.Errorf("failed to update saga instance: %w", err)
	}
	if !ok {
		return ErrSagaNotFound
	}
	return nil
}

// GetByStatus retrieves saga instances by status
func (s *RedisStore) GetByStatus(ctx context.Context, status Status, limit int) ([]*Instance, error) {
	return s.filter(ctx, limit, func(i *Instance) bool { return i.Status == status })
}

// GetByLabel retrieves saga instances by label
func (s *RedisStore) GetByLabel(ctx context.Context, key, value string, limit int) ([]*Instance, error) {
	return s.filter(ctx, limit, func(i *Instance) bool { return i.Labels[key] == value })
}

// filter walks the key space with SCAN; instances that expire mid-walk are skipped
func (s *RedisStore) filter(ctx context.Context, limit int, match func(*Instance) bool) ([]*Instance, error) {
	var (
		result []*Instance
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", 100)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saga keys: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key)
			if err != nil {
				continue
			}
			instance, err := FromJSON([]byte(data))
			if err != nil {
				continue
			}
			if match(instance) {
				result = append(result, instance)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return oldestFirst(result, limit), nil
}

// RedisClientAdapter adapts go-redis client to RedisClient interface
type RedisClientAdapter struct {
	client redis.UniversalClient
}

// NewRedisClientAdapter creates a new adapter for go-redis client
func NewRedisClientAdapter(client redis.UniversalClient) *RedisClientAdapter {
	return &RedisClientAdapter{client: client}
}

func (a *RedisClientAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := a.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSagaNotFound
	}
	return val, err
}

func (a *RedisClientAdapter) SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	return a.client.SetNX(ctx, key, value, expiration).Result()
}

func (a *RedisClientAdapter) SetXX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	return a.client.SetXX(ctx, key, value, expiration).Result()
}

func (a *RedisClientAdapter) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return a.client.Scan(ctx, cursor, match, count).Result()
}
