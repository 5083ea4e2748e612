package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var errNotInteger = errors.New("ERR value is not an integer or out of range")

// MockStore is an in-memory stand-in for a redis server that implements
// RemoteClient. It honors expirations against its own clock and can be told
// to fail every command. Safe for concurrent use.
type MockStore struct {
	mu    sync.Mutex
	data  map[string]mockItem
	now   Clock
	err   error
	calls atomic.Int64
}

type mockItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

var _ RemoteClient = (*MockStore)(nil)

// NewMockStore creates an empty mock store using time.Now.
func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]mockItem),
		now:  time.Now,
	}
}

// SetClock replaces the store clock.
func (m *MockStore) SetClock(now Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailWith makes every subsequent command return err. Pass nil to recover.
func (m *MockStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of commands received.
func (m *MockStore) Calls() int64 {
	return m.calls.Load()
}

// TTL returns the remaining expiry of key and whether it has one.
func (m *MockStore) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.liveLocked(key)
	if !ok || it.expiresAt.IsZero() {
		return 0, false
	}
	return it.expiresAt.Sub(m.now()), true
}

// Len returns the number of live keys.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if _, ok := m.liveLocked(k); ok {
			n++
		}
	}
	return n
}

// begin counts the command, takes the lock and returns the injected error.
// Callers must unlock.
func (m *MockStore) begin() error {
	m.calls.Add(1)
	m.mu.Lock()
	return m.err
}

func (m *MockStore) liveLocked(key string) (mockItem, bool) {
	it, ok := m.data[key]
	if !ok {
		return mockItem{}, false
	}
	if !it.expiresAt.IsZero() && !m.now().Before(it.expiresAt) {
		delete(m.data, key)
		return mockItem{}, false
	}
	return it, true
}

func (m *MockStore) Ping(ctx context.Context) *redis.StatusCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewStatusResult("", err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (m *MockStore) Get(ctx context.Context, key string) *redis.StringCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewStringResult("", err)
	}
	it, ok := m.liveLocked(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(it.value, nil)
}

func (m *MockStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewStatusResult("", err)
	}
	it := mockItem{value: fmt.Sprint(value)}
	if expiration > 0 {
		it.expiresAt = m.now().Add(expiration)
	}
	m.data[key] = it
	return redis.NewStatusResult("OK", nil)
}

func (m *MockStore) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewBoolResult(false, err)
	}
	it, ok := m.liveLocked(key)
	if !ok {
		return redis.NewBoolResult(false, nil)
	}
	it.expiresAt = m.now().Add(expiration)
	m.data[key] = it
	return redis.NewBoolResult(true, nil)
}

func (m *MockStore) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewIntResult(0, err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.liveLocked(k); ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *MockStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewIntResult(0, err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.liveLocked(k); ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *MockStore) IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd {
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return redis.NewIntResult(0, err)
	}
	it, _ := m.liveLocked(key)
	var cur int64
	if it.value != "" {
		v, err := strconv.ParseInt(it.value, 10, 64)
		if err != nil {
			return redis.NewIntResult(0, errNotInteger)
		}
		cur = v
	}
	cur += value
	it.value = strconv.FormatInt(cur, 10)
	m.data[key] = it
	return redis.NewIntResult(cur, nil)
}
