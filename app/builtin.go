package app

// Built-in stores, data sources and metrics sinks register themselves with
// the factory registries on import.
import (
	_ "github.com/kilianp07/evtariff/infra/metrics"
	_ "github.com/kilianp07/evtariff/infra/source"
	_ "github.com/kilianp07/evtariff/infra/store"
)
