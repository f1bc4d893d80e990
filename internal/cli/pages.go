package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/pages"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// pageBackend is the page manager of a long-running command and the resources
// it holds.
type pageBackend struct {
	Pages *pages.Manager
	close func() error
}

// Close releases the storage connection, if any.
func (b *pageBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// newPageBackend builds the page manager from the configuration. With a Redis
// address, snapshots and page locks live in Redis and every update call is
// also published on the page's channel. Otherwise snapshots go to the store
// directory, or stay in memory.
func newPageBackend(ctx context.Context, opts Options, host pages.HostFactory, hooks ...domain.LifecycleHooks) (*pageBackend, error) {
	docSchema, err := loadSchema(opts.Config)
	if err != nil {
		return nil, err
	}
	engineOpts, err := engineOptions(opts, docSchema)
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		engineOpts = append(engineOpts, arbor.WithLifecycleHooks(h))
	}
	if host == nil {
		host = func(string) ports.Host { return memory.NewHost() }
	}

	managerOpts := []pages.Option{
		pages.WithLogger(opts.logger()),
		pages.WithEngineOptions(engineOpts...),
	}

	rc := opts.Config.Redis
	if rc.Addr == "" {
		var store ports.SnapshotStore = memory.NewStore()
		if dir := opts.Config.Store.Dir; dir != "" {
			store = file.New(dir)
		}
		if store, err = encryptStore(opts, store); err != nil {
			return nil, err
		}
		managerOpts = append(managerOpts, pages.WithHostFactory(host))
		return &pageBackend{Pages: pages.NewManager(store, managerOpts...)}, nil
	}

	client := backend.NewClient(&backend.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
	}

	store, err := encryptStore(opts, redis.NewFromClient(client, redis.WithPrefix(rc.Prefix+"page:"), redis.WithTTL(rc.TTL)))
	if err != nil {
		client.Close()
		return nil, err
	}
	managerOpts = append(managerOpts,
		pages.WithLocker(redis.NewLocker(client, rc.Prefix)),
		pages.WithHostFactory(func(pageID string) ports.Host {
			return ports.Tee(host(pageID), redis.NewHost(client, rc.Prefix+"updates:"+pageID))
		}),
	)
	return &pageBackend{
		Pages: pages.NewManager(store, managerOpts...),
		close: client.Close,
	}, nil
}

// encryptStore wraps store with encryption at rest when a key is configured.
func encryptStore(opts Options, store ports.SnapshotStore) (ports.SnapshotStore, error) {
	active, fallback, err := opts.Config.Store.Keys()
	if err != nil || active == nil {
		return store, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}
