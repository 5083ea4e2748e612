package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendPolicy(t *testing.T) {
	healthy := NewMockStore()
	failing := NewMockStore()
	failing.FailWith(errors.New("connection refused"))
	var typedNil *redis.Client

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"no configuration", Options{}, LocalName},
		{"bounded ttl", Options{Strategy: StrategyBoundedTTL, Remote: healthy}, LocalName},
		{"differentiated ttl wins over remote", Options{Strategy: StrategyEvictingDifferentiatedTTL, Remote: healthy}, ExpiringName},
		{"fixed window", Options{Strategy: StrategyEvictingFixedWindow}, OriginName},
		{"healthy remote", Options{Remote: healthy}, RemoteName},
		{"failing remote degrades", Options{Remote: failing}, LocalName},
		{"typed nil client degrades", Options{Remote: typedNil}, LocalName},
		{"unknown strategy falls through", Options{Strategy: Strategy(99)}, LocalName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend(context.Background(), tt.opts)
			defer b.Close()
			assert.Equal(t, tt.want, b.Name())
		})
	}
}

func TestNewBackendDisabledRemoteIsNotProbed(t *testing.T) {
	store := NewMockStore()
	b := NewBackend(context.Background(), Options{Remote: store, RemoteDisabled: true})
	defer b.Close()

	assert.Equal(t, RemoteName, b.Name())
	b.Set(context.Background(), "k", "v", 60)
	assert.Zero(t, store.Calls())
}

func TestSelectorBuildsOnce(t *testing.T) {
	store := NewMockStore()
	s := NewSelector()
	defer s.Close()

	const n = 32
	results := make([]Backend, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Select(context.Background(), Options{Remote: store})
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, results[0], results[i])
	}
	assert.Equal(t, RemoteName, results[0].Name())
	assert.EqualValues(t, 1, store.Calls(), "the remote store is probed exactly once")
}

func TestSelectorIgnoresLaterConfiguration(t *testing.T) {
	ctx := context.Background()
	s := NewSelector()
	defer s.Close()

	first := s.Select(ctx, Options{Strategy: StrategyBoundedTTL})
	require.True(t, first.Set(ctx, "k", "v", 60))

	second := s.Select(ctx, Options{Strategy: StrategyEvictingFixedWindow})
	assert.Same(t, first, second)
	v, ok := second.Get(ctx, "k")
	assert.True(t, ok, "entries survive a second Select")
	assert.Equal(t, "v", v)
	assert.Same(t, first, s.Backend(ctx))
}

func TestSelectorDefaultBackend(t *testing.T) {
	s := NewSelector()
	defer s.Close()
	assert.Equal(t, LocalName, s.Backend(context.Background()).Name())
}

func TestSelectorCloseAllowsReselect(t *testing.T) {
	ctx := context.Background()
	s := NewSelector()

	first := s.Select(ctx, Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	second := s.Select(ctx, Options{Strategy: StrategyEvictingFixedWindow})
	defer s.Close()
	assert.NotSame(t, first, second)
	assert.Equal(t, OriginName, second.Name())
}

// An unusable remote handle must leave the process with a backend that
// behaves like the default local one: per-key TTL, no counters, sweepable.
func TestNewBackendInvalidRemoteBehavesLikeLocal(t *testing.T) {
	failing := NewMockStore()
	failing.FailWith(errors.New("no route to host"))
	var typedNil *redis.Client

	for name, remote := range map[string]RemoteClient{"failing": failing, "typed nil": typedNil} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			b := NewBackend(ctx, Options{Remote: remote, Clock: clock.Now})
			defer b.Close()

			require.True(t, b.Set(ctx, "short", "1", 1))
			require.True(t, b.Set(ctx, "long", "2", 3600))
			v, ok := b.Get(ctx, "short")
			assert.True(t, ok)
			assert.Equal(t, "1", v)

			_, err := b.IncrementBy(ctx, "n", 1, 60)
			assert.ErrorIs(t, err, ErrUnsupportedOperation)

			clock.Advance(1100 * time.Millisecond)
			s, ok := b.(interface{ SweepOnce() int })
			require.True(t, ok, "fallback backend must own a sweeper")
			assert.Equal(t, 1, s.SweepOnce())
			assert.False(t, b.Exists(ctx, "short"))
			assert.True(t, b.Exists(ctx, "long"))
		})
	}
	assert.EqualValues(t, 1, failing.Calls(), "only the selection probe reaches the store")
}

func TestSelectorSelectDuringClose(t *testing.T) {
	ctx := context.Background()
	s := NewSelector()
	defer s.Close()

	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			b := s.Select(ctx, Options{Strategy: StrategyBoundedTTL})
			if b == nil {
				t.Error("Select returned a nil backend")
				return
			}
			b.Get(ctx, "k")
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Close())
		}()
		wg.Wait()
	}
	assert.NotNil(t, s.Select(ctx, Options{Strategy: StrategyBoundedTTL}))
}
