// Package factory provides a small generic registry used to instantiate
// pluggable modules (persistent stores, tariff data sources, metrics sinks)
// from configuration. A module is described by a type string and a map of
// raw settings; its factory decodes the settings and returns the concrete
// implementation.
//
//	reg := factory.NewRegistry[pricecache.Store]()
//	reg.Register("badger", func(conf map[string]any) (pricecache.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return store.OpenBadger(c.Path)
//	})
package factory
