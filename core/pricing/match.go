package pricing

import (
	"slices"
	"time"

	"github.com/kilianp07/evtariff/core/model"
)

// MatchContext carries the conditions a rule is matched against. An empty
// ConnectorType only matches rules for all connectors; a nil PowerKW skips
// the power bounds.
type MatchContext struct {
	ConnectorType string
	PowerKW       *float64
	Now           time.Time
}

// Match returns a copy of the applicable rule with the highest priority, or
// nil. Rules of equal priority keep their input order.
func Match(rules []model.TariffRule, mc MatchContext) *model.TariffRule {
	best := -1
	for i := range rules {
		if !Applicable(rules[i], mc) {
			continue
		}
		if best < 0 || rules[i].Priority > rules[best].Priority {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	r := rules[best]
	return &r
}

// Applicable reports whether every condition of r holds for mc.
func Applicable(r model.TariffRule, mc MatchContext) bool {
	if r.ConnectorType != model.ConnectorAll && (mc.ConnectorType == "" || r.ConnectorType != mc.ConnectorType) {
		return false
	}
	if mc.PowerKW != nil {
		if r.PowerMin != nil && *mc.PowerKW < *r.PowerMin {
			return false
		}
		if r.PowerMax != nil && *mc.PowerKW > *r.PowerMax {
			return false
		}
	}
	switch {
	case len(r.DaysOfWeek) > 0:
		if !slices.Contains(r.DaysOfWeek, model.ISOWeekday(mc.Now)) {
			return false
		}
	case r.IsWeekend != nil:
		if *r.IsWeekend != model.IsWeekend(mc.Now) {
			return false
		}
	}
	if r.HasTimeWindow() && !model.TimeOfDayOf(mc.Now).InWindow(*r.TimeStart, *r.TimeEnd) {
		return false
	}
	if r.ValidFrom != nil && r.ValidFrom.After(mc.Now) {
		return false
	}
	if r.ValidUntil != nil && r.ValidUntil.Before(mc.Now) {
		return false
	}
	return true
}
