package model

import "time"

// ConnectorAll matches every connector type.
const ConnectorAll = "ALL"

// TariffPlan groups tariff rules.
type TariffPlan struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	IsDefault   bool      `json:"is_default" yaml:"is_default"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// TariffRule is one priced condition inside a tariff plan. Nil pointer
// fields are unconstrained.
type TariffRule struct {
	ID                  string     `json:"id" yaml:"id"`
	TariffPlanID        string     `json:"tariff_plan_id" yaml:"tariff_plan_id"`
	Name                string     `json:"name" yaml:"name"`
	Description         string     `json:"description,omitempty" yaml:"description"`
	ConnectorType       string     `json:"connector_type" yaml:"connector_type"`
	PowerMin            *float64   `json:"power_min,omitempty" yaml:"power_min"`
	PowerMax            *float64   `json:"power_max,omitempty" yaml:"power_max"`
	TimeStart           *TimeOfDay `json:"time_start,omitempty" yaml:"time_start"`
	TimeEnd             *TimeOfDay `json:"time_end,omitempty" yaml:"time_end"`
	DaysOfWeek          []int      `json:"days_of_week,omitempty" yaml:"days_of_week"`
	IsWeekend           *bool      `json:"is_weekend,omitempty" yaml:"is_weekend"`
	Price               float64    `json:"price" yaml:"price"`
	PricePerMinute      *float64   `json:"price_per_minute,omitempty" yaml:"price_per_minute"`
	SessionFee          *float64   `json:"session_fee,omitempty" yaml:"session_fee"`
	ParkingFeePerMinute *float64   `json:"parking_fee_per_minute,omitempty" yaml:"parking_fee_per_minute"`
	Currency            string     `json:"currency,omitempty" yaml:"currency"`
	Priority            int        `json:"priority" yaml:"priority"`
	IsActive            bool       `json:"is_active" yaml:"is_active"`
	ValidFrom           *time.Time `json:"valid_from,omitempty" yaml:"valid_from"`
	ValidUntil          *time.Time `json:"valid_until,omitempty" yaml:"valid_until"`
	MinDurationMinutes  *int       `json:"min_duration_minutes,omitempty" yaml:"min_duration_minutes"`
	MaxDurationMinutes  *int       `json:"max_duration_minutes,omitempty" yaml:"max_duration_minutes"`
}

// HasTimeWindow reports whether both ends of the daily window are set.
func (r TariffRule) HasTimeWindow() bool {
	return r.TimeStart != nil && r.TimeEnd != nil
}

// ClientTariff is a per-account override of station pricing.
type ClientTariff struct {
	ID                 string     `json:"id" yaml:"id"`
	ClientID           string     `json:"client_id" yaml:"client_id"`
	TariffPlanID       string     `json:"tariff_plan_id,omitempty" yaml:"tariff_plan_id"`
	DiscountPercent    *float64   `json:"discount_percent,omitempty" yaml:"discount_percent"`
	FixedRatePerKWh    *float64   `json:"fixed_rate_per_kwh,omitempty" yaml:"fixed_rate_per_kwh"`
	FixedRatePerMinute *float64   `json:"fixed_rate_per_minute,omitempty" yaml:"fixed_rate_per_minute"`
	SessionFee         *float64   `json:"session_fee,omitempty" yaml:"session_fee"`
	ValidFrom          time.Time  `json:"valid_from" yaml:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until,omitempty" yaml:"valid_until"`
	IsActive           bool       `json:"is_active" yaml:"is_active"`
	Description        string     `json:"description,omitempty" yaml:"description"`
}

// ValidAt reports whether the tariff is active and inside its validity window at now.
func (c ClientTariff) ValidAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// HasFixedRate reports whether the tariff overrides the station rate
// outright. Only a positive per-kWh rate does; a per-minute rate alone
// rides along with it but never replaces the energy price.
func (c ClientTariff) HasFixedRate() bool {
	return c.FixedRatePerKWh != nil && *c.FixedRatePerKWh > 0
}

// Discount returns the discount percentage clamped to [0, 100].
func (c ClientTariff) Discount() float64 {
	if c.DiscountPercent == nil {
		return 0
	}
	d := *c.DiscountPercent
	switch {
	case d < 0:
		return 0
	case d > 100:
		return 100
	}
	return d
}

// Station is a charging point as seen by pricing.
type Station struct {
	ID           string   `json:"id" yaml:"id"`
	SerialNumber string   `json:"serial_number" yaml:"serial_number"`
	PricePerKWh  *float64 `json:"price_per_kwh,omitempty" yaml:"price_per_kwh"`
	SessionFee   *float64 `json:"session_fee,omitempty" yaml:"session_fee"`
	Currency     string   `json:"currency,omitempty" yaml:"currency"`
	TariffPlanID string   `json:"tariff_plan_id,omitempty" yaml:"tariff_plan_id"`
	LocationID   string   `json:"location_id,omitempty" yaml:"location_id"`
}

// FavoriteBundle is the offline snapshot kept for a favorite station.
type FavoriteBundle struct {
	StationID  string        `json:"station_id"`
	Pricing    PricingResult `json:"pricing"`
	TariffPlan *TariffPlan   `json:"tariff_plan,omitempty"`
	Rules      []TariffRule  `json:"rules,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Deref returns *p, or 0 when p is nil.
func Deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
