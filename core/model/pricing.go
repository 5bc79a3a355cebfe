package model

import "time"

const (
	// DefaultCurrency is used whenever neither a rule nor a station carries a currency.
	DefaultCurrency = "KGS"
	// DefaultRatePerKWh is the base tariff applied when nothing more specific resolves.
	DefaultRatePerKWh = 13.5
	// DefaultRuleLabel labels the base tariff.
	DefaultRuleLabel = "base tariff"
	// StationRuleLabel labels a price configured directly on a station.
	StationRuleLabel = "station-specific tariff"
	// ClientRuleLabel labels a client fixed-rate tariff without a description.
	ClientRuleLabel = "personal tariff"
	// ScheduledRuleLabel labels a matched rule without a name.
	ScheduledRuleLabel = "scheduled tariff"
)

// Detail types stored under RuleDetails["type"].
const (
	DetailDefault         = "default"
	DetailStationSpecific = "station_specific"
	DetailClientFixed     = "client_fixed"
	DetailClientDiscount  = "client_discount"
	DetailRule            = "rule"
)

// PricingResult is the resolved price for a charging point. Values are
// produced once by the resolver and never modified afterwards.
//
// RuleDetails holds JSON-native values only (string, float64, bool, []any),
// so a result read back from a persistent store equals the one written.
type PricingResult struct {
	RatePerKWh          float64        `json:"rate_per_kwh"`
	RatePerMinute       float64        `json:"rate_per_minute"`
	SessionFee          float64        `json:"session_fee"`
	ParkingFeePerMinute float64        `json:"parking_fee_per_minute"`
	Currency            string         `json:"currency"`
	ActiveRule          string         `json:"active_rule"`
	RuleDetails         map[string]any `json:"rule_details,omitempty"`
	TimeBased           bool           `json:"time_based"`
	NextRateChange      *time.Time     `json:"next_rate_change,omitempty"`
	TariffPlanID        string         `json:"tariff_plan_id,omitempty"`
	IsClientTariff      bool           `json:"is_client_tariff"`
}

// DetailType returns the provenance type recorded in RuleDetails.
func (p PricingResult) DetailType() string {
	if p.RuleDetails == nil {
		return ""
	}
	s, _ := p.RuleDetails["type"].(string)
	return s
}

// ValidCurrency reports whether code is a three-letter upper-case currency
// code such as KGS or EUR.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// DefaultPricing returns the base tariff with the given rate and currency.
// Non-positive rates and malformed currencies fall back to the package
// defaults.
func DefaultPricing(rate float64, currency string) PricingResult {
	if rate <= 0 {
		rate = DefaultRatePerKWh
	}
	if !ValidCurrency(currency) {
		currency = DefaultCurrency
	}
	return PricingResult{
		RatePerKWh:  rate,
		Currency:    currency,
		ActiveRule:  DefaultRuleLabel,
		RuleDetails: map[string]any{"type": DetailDefault},
	}
}

// SessionCostBreakdown itemizes the cost of a charging session.
type SessionCostBreakdown struct {
	EnergyCost     float64 `json:"energy_cost"`
	TimeCost       float64 `json:"time_cost"`
	SessionFee     float64 `json:"session_fee"`
	ParkingFee     float64 `json:"parking_fee"`
	BaseAmount     float64 `json:"base_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
	Currency       string  `json:"currency"`
}
