package settings

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendMeili    = "meili"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	MeiliURL   string
	MeiliKey   string
	MeiliIndex string

	RedisURL    string
	RedisPrefix string

	DatabaseURL string
}

// Open returns the Store for opts.Backend. An empty backend selects memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendMeili:
		return NewMeiliStore(opts.MeiliURL, opts.MeiliKey, opts.MeiliIndex)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendPostgres:
		return NewGormStore(ctx, opts.DatabaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
