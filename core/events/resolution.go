package events

import "time"

// Resolution sources, one per branch of the resolver.
const (
	SourceCache          = "cache"
	SourceClientFixed    = "client_fixed"
	SourceClientDiscount = "client_discount"
	SourceStation        = "station"
	SourceRule           = "rule"
	SourceDefault        = "default"
	SourcePreview        = "preview"
)

// ResolutionEvent is published for every resolved price.
type ResolutionEvent struct {
	ID            string
	StationID     string
	ConnectorType string
	ClientID      string
	Source        string
	CacheTier     string
	RatePerKWh    float64
	Currency      string
	TariffPlanID  string
	RuleID        string
	Degraded      bool
	Latency       time.Duration
	Time          time.Time
}
