package pricecache

import "github.com/kilianp07/evtariff/core/factory"

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a persistent store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates a Store from the provided configuration. An empty type
// yields a nil Store, which makes the cache memory-only.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return nil, nil
	}
	return storeRegistry.Create(cfg)
}
