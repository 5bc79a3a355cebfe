package pricing

import (
	"time"

	"github.com/kilianp07/evtariff/core/model"
)

// BuildFromRule maps a matched rule to a PricingResult evaluated at now.
func BuildFromRule(r model.TariffRule, planID, defaultCurrency string, now time.Time) model.PricingResult {
	currency := r.Currency
	if !model.ValidCurrency(currency) {
		currency = defaultCurrency
	}
	label := r.Name
	if label == "" {
		label = model.ScheduledRuleLabel
	}
	details := map[string]any{
		"type":       model.DetailRule,
		"rule_id":    r.ID,
		"time_based": r.HasTimeWindow(),
	}
	if r.Description != "" {
		details["description"] = r.Description
	}
	if len(r.DaysOfWeek) > 0 {
		days := make([]any, len(r.DaysOfWeek))
		for i, d := range r.DaysOfWeek {
			days[i] = float64(d)
		}
		details["days"] = days
	}
	if r.IsWeekend != nil {
		details["weekend"] = *r.IsWeekend
	}
	if r.MinDurationMinutes != nil {
		details["min_duration_minutes"] = float64(*r.MinDurationMinutes)
	}
	if r.MaxDurationMinutes != nil {
		details["max_duration_minutes"] = float64(*r.MaxDurationMinutes)
	}
	return model.PricingResult{
		RatePerKWh:          nonNegative(r.Price),
		RatePerMinute:       nonNegative(model.Deref(r.PricePerMinute)),
		SessionFee:          nonNegative(model.Deref(r.SessionFee)),
		ParkingFeePerMinute: nonNegative(model.Deref(r.ParkingFeePerMinute)),
		Currency:            currency,
		ActiveRule:          label,
		RuleDetails:         details,
		TimeBased:           r.HasTimeWindow(),
		NextRateChange:      NextRateChange(r, now),
		TariffPlanID:        planID,
	}
}

// NextRateChange returns the next occurrence of the rule's end time strictly
// after now, or nil when the rule has no end time.
func NextRateChange(r model.TariffRule, now time.Time) *time.Time {
	if r.TimeEnd == nil {
		return nil
	}
	next := r.TimeEnd.On(now)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return &next
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
