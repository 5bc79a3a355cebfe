package pricing

import (
	"context"
	"time"

	"github.com/kilianp07/evtariff/core/factory"
	"github.com/kilianp07/evtariff/core/model"
)

// DataSource gives read-only access to the tariff records. Missing records
// are reported either as model.ErrNotFound or as a nil result; the resolver
// treats both, and any other error, as "nothing to offer".
type DataSource interface {
	GetStation(ctx context.Context, stationID string) (*model.Station, error)
	// GetActiveClientTariff returns the client's active tariff valid at now.
	GetActiveClientTariff(ctx context.Context, clientID string, now time.Time) (*model.ClientTariff, error)
	// GetActiveRules returns the active rules of a plan, highest priority first.
	GetActiveRules(ctx context.Context, planID string) ([]model.TariffRule, error)
	GetTariffPlan(ctx context.Context, planID string) (*model.TariffPlan, error)
}

var sourceRegistry = factory.NewRegistry[DataSource]()

// RegisterDataSource adds a data source factory identified by name.
func RegisterDataSource(name string, f factory.Factory[DataSource]) error {
	return sourceRegistry.Register(name, f)
}

// NewDataSource creates a DataSource from the provided configuration.
func NewDataSource(cfg factory.ModuleConfig) (DataSource, error) {
	return sourceRegistry.Create(cfg)
}
