package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricing"
)

// PricingConfig holds the base tariff and the evaluation time zone.
type PricingConfig struct {
	DefaultRate     float64 `json:"default_rate"`
	DefaultCurrency string  `json:"default_currency"`
	// Timezone is an IANA name; rules are matched against local time in it.
	Timezone    string               `json:"timezone"`
	SampleHours []pricing.SampleHour `json:"sample_hours"`
}

// SetDefaults applies the standard base tariff and sample hours.
func (c *PricingConfig) SetDefaults() {
	if c.DefaultRate == 0 {
		c.DefaultRate = model.DefaultRatePerKWh
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = model.DefaultCurrency
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if len(c.SampleHours) == 0 {
		c.SampleHours = append([]pricing.SampleHour(nil), pricing.DefaultSampleHours...)
	}
}

// Validate checks the rate, the time zone and the sample hours.
func (c PricingConfig) Validate() error {
	if c.DefaultRate < 0 {
		return fmt.Errorf("default_rate must not be negative")
	}
	if !model.ValidCurrency(c.DefaultCurrency) {
		return fmt.Errorf("default_currency %q is not a three-letter code", c.DefaultCurrency)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, h := range c.SampleHours {
		if h.Hour < 0 || h.Hour > 23 {
			return fmt.Errorf("sample hour %d out of range", h.Hour)
		}
	}
	return nil
}

// Location loads the configured time zone.
func (c PricingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
