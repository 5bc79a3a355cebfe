package store

import (
	"context"
	"time"

	"github.com/kilianp07/evtariff/core/factory"
	"github.com/kilianp07/evtariff/core/pricecache"
)

const openTimeout = 10 * time.Second

// init registers built-in persistent stores.
func init() {
	_ = pricecache.RegisterStore("memory", func(map[string]any) (pricecache.Store, error) {
		return NewMemoryStore(), nil
	})

	_ = pricecache.RegisterStore("badger", func(conf map[string]any) (pricecache.Store, error) {
		var c BadgerConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return OpenBadger(c)
	})

	_ = pricecache.RegisterStore("sqlite", func(conf map[string]any) (pricecache.Store, error) {
		var c SQLiteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return OpenSQLite(ctx, c)
	})

	_ = pricecache.RegisterStore("redis", func(conf map[string]any) (pricecache.Store, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return OpenRedis(ctx, c)
	})
}
