package cache

import "context"

// Remember returns the cached value for key, or calls compute on a miss and
// stores its result for ttlSeconds. A rejected or failed store still returns
// the computed value; a compute error is returned and nothing is stored.
func Remember(ctx context.Context, b Backend, key string, ttlSeconds int, compute func(context.Context) (string, error)) (string, error) {
	if v, ok := b.Get(ctx, key); ok {
		return v, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return "", err
	}
	b.Set(ctx, key, v, ttlSeconds)
	return v, nil
}
