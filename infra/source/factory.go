package source

import (
	"fmt"

	"github.com/kilianp07/evtariff/core/factory"
	"github.com/kilianp07/evtariff/core/pricing"
)

type staticConfig struct {
	Path string `json:"path"`
}

// init registers built-in data sources.
func init() {
	rest := func(conf map[string]any) (pricing.DataSource, error) {
		var c RESTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRESTSource(c)
	}
	_ = pricing.RegisterDataSource("postgrest", rest)
	_ = pricing.RegisterDataSource("rest", rest)

	_ = pricing.RegisterDataSource("sql", func(conf map[string]any) (pricing.DataSource, error) {
		var c SQLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return OpenSQL(c)
	})

	_ = pricing.RegisterDataSource("static", func(conf map[string]any) (pricing.DataSource, error) {
		var c staticConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("static source: path is required")
		}
		return LoadStatic(c.Path)
	})
}
