package pricing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kilianp07/evtariff/core/clock"
	"github.com/kilianp07/evtariff/core/events"
	"github.com/kilianp07/evtariff/core/logger"
	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/monitoring"
	"github.com/kilianp07/evtariff/core/pricecache"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

// Request identifies what to price. Empty ConnectorType and ClientID mean
// "any connector" and "anonymous caller".
type Request struct {
	StationID     string
	ConnectorType string
	ClientID      string
	PowerKW       *float64
}

// Key returns the cache key of the request.
func (r Request) Key() pricecache.Key {
	return pricecache.Key{StationID: r.StationID, ConnectorType: r.ConnectorType, ClientID: r.ClientID}
}

// Options configures a Resolver. Zero values select the defaults.
type Options struct {
	// Cache is optional; without it every call hits the data source.
	Cache           *pricecache.Cache
	Clock           clock.Clock
	Location        *time.Location
	DefaultRate     float64
	DefaultCurrency string
	Logger          logger.Logger
	Bus             eventbus.EventBus
}

// Resolver runs the pricing waterfall.
type Resolver struct {
	source   DataSource
	cache    *pricecache.Cache
	clock    clock.Clock
	loc      *time.Location
	fallback model.PricingResult
	log      logger.Logger
	bus      eventbus.EventBus
}

type outcome struct {
	result    model.PricingResult
	source    string
	ruleID    string
	cacheable bool
	degraded  bool
}

// NewResolver creates a Resolver reading from src.
func NewResolver(src DataSource, opts Options) (*Resolver, error) {
	if src == nil {
		return nil, fmt.Errorf("pricing: nil data source")
	}
	r := &Resolver{
		source:   src,
		cache:    opts.Cache,
		clock:    opts.Clock,
		loc:      opts.Location,
		fallback: model.DefaultPricing(opts.DefaultRate, opts.DefaultCurrency),
		log:      opts.Logger,
		bus:      opts.Bus,
	}
	if r.clock == nil {
		r.clock = clock.Real{}
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.log == nil {
		r.log = logger.Nop{}
	}
	return r, nil
}

// Default returns a copy of the default tariff.
func (r *Resolver) Default() model.PricingResult {
	d := r.fallback
	d.RuleDetails = maps.Clone(r.fallback.RuleDetails)
	return d
}

// Cache returns the cache used by the resolver, possibly nil.
func (r *Resolver) Cache() *pricecache.Cache { return r.cache }

// Location returns the time zone rules are evaluated in.
func (r *Resolver) Location() *time.Location { return r.loc }

// Now returns the current time in the resolver's location.
func (r *Resolver) Now() time.Time { return r.clock.Now().In(r.loc) }

// Resolve returns the price applying to req now. It consults the cache first
// and stores every result that did not fall back to the default tariff.
func (r *Resolver) Resolve(ctx context.Context, req Request) model.PricingResult {
	start := time.Now()
	key := req.Key()
	if r.cache != nil {
		if res, tier, ok := r.cache.GetPricing(ctx, key); ok {
			ruleID, _ := res.RuleDetails["rule_id"].(string)
			r.record(req, outcome{result: res, source: events.SourceCache, ruleID: ruleID}, string(tier), start)
			return res
		}
	}
	out := r.evaluate(ctx, req, r.Now(), true)
	if out.cacheable && r.cache != nil {
		r.cache.PutPricing(ctx, key, out.result)
	}
	r.record(req, out, "", start)
	return out.result
}

// ResolveAt evaluates the waterfall as if the current time were at. It
// neither reads nor writes any cache tier.
func (r *Resolver) ResolveAt(ctx context.Context, req Request, at time.Time) model.PricingResult {
	start := time.Now()
	out := r.evaluate(ctx, req, at.In(r.loc), false)
	out.source = events.SourcePreview
	r.record(req, out, "", start)
	return out.result
}

func (r *Resolver) evaluate(ctx context.Context, req Request, now time.Time, useCache bool) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.warn("evaluate", req, fmt.Errorf("panic during resolution: %v", p))
			out = outcome{result: r.Default(), source: events.SourceDefault, degraded: true}
		}
	}()

	station, err := r.source.GetStation(ctx, req.StationID)
	switch {
	case err != nil && !errors.Is(err, model.ErrNotFound):
		r.warn("station", req, err)
		return outcome{result: r.Default(), source: events.SourceDefault, degraded: true}
	case err != nil || station == nil:
		r.log.Debugf("station %s not found, using default tariff", req.StationID)
		return outcome{result: r.Default(), source: events.SourceDefault}
	}

	if req.ClientID != "" {
		if o, ok := r.clientOverride(ctx, req, station, now, useCache); ok {
			return o
		}
	}
	return r.stationPricing(ctx, req, station, now, useCache)
}

func (r *Resolver) clientOverride(ctx context.Context, req Request, station *model.Station, now time.Time, useCache bool) (outcome, bool) {
	ct, err := r.source.GetActiveClientTariff(ctx, req.ClientID, now)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			r.warn("client_tariff", req, err)
		}
		return outcome{}, false
	}
	if ct == nil || !ct.ValidAt(now) {
		return outcome{}, false
	}

	if ct.HasFixedRate() {
		label := ct.Description
		if label == "" {
			label = model.ClientRuleLabel
		}
		return outcome{
			result: model.PricingResult{
				RatePerKWh:     nonNegative(model.Deref(ct.FixedRatePerKWh)),
				RatePerMinute:  nonNegative(model.Deref(ct.FixedRatePerMinute)),
				SessionFee:     nonNegative(model.Deref(ct.SessionFee)),
				Currency:       r.fallback.Currency,
				ActiveRule:     label,
				RuleDetails:    map[string]any{"type": model.DetailClientFixed, "tariff_id": ct.ID},
				TariffPlanID:   ct.TariffPlanID,
				IsClientTariff: true,
			},
			source:    events.SourceClientFixed,
			cacheable: true,
		}, true
	}

	d := ct.Discount()
	if d <= 0 || ct.TariffPlanID == "" {
		return outcome{}, false
	}
	baseReq := req
	baseReq.ClientID = ""
	base := r.stationPricing(ctx, baseReq, station, now, useCache)

	res := base.result
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(d).Div(decimal.NewFromInt(100)))
	res.RatePerKWh = decimal.NewFromFloat(base.result.RatePerKWh).Mul(factor).InexactFloat64()
	res.ActiveRule = fmt.Sprintf("%s (discount %s%%)", base.result.ActiveRule, decimal.NewFromFloat(d).String())
	res.RuleDetails = maps.Clone(base.result.RuleDetails)
	if res.RuleDetails == nil {
		res.RuleDetails = map[string]any{}
	}
	res.RuleDetails["base_type"] = base.result.DetailType()
	res.RuleDetails["type"] = model.DetailClientDiscount
	res.RuleDetails["tariff_id"] = ct.ID
	res.RuleDetails["discount_percent"] = d
	res.IsClientTariff = true
	return outcome{
		result:    res,
		source:    events.SourceClientDiscount,
		ruleID:    base.ruleID,
		cacheable: base.source != events.SourceDefault,
		degraded:  base.degraded,
	}, true
}

func (r *Resolver) stationPricing(ctx context.Context, req Request, station *model.Station, now time.Time, useCache bool) outcome {
	if station.PricePerKWh != nil && *station.PricePerKWh > 0 {
		currency := station.Currency
		if !model.ValidCurrency(currency) {
			if currency != "" {
				r.log.Debugf("station %s has malformed currency %q, using %s", station.ID, currency, r.fallback.Currency)
			}
			currency = r.fallback.Currency
		}
		return outcome{
			result: model.PricingResult{
				RatePerKWh:  *station.PricePerKWh,
				SessionFee:  nonNegative(model.Deref(station.SessionFee)),
				Currency:    currency,
				ActiveRule:  model.StationRuleLabel,
				RuleDetails: map[string]any{"type": model.DetailStationSpecific},
			},
			source:    events.SourceStation,
			cacheable: true,
		}
	}

	if station.TariffPlanID != "" {
		rules, degraded := r.activeRules(ctx, req, station.TariffPlanID, useCache)
		mc := MatchContext{ConnectorType: req.ConnectorType, PowerKW: req.PowerKW, Now: now}
		if rule := Match(rules, mc); rule != nil {
			return outcome{
				result:    BuildFromRule(*rule, station.TariffPlanID, r.fallback.Currency, now),
				source:    events.SourceRule,
				ruleID:    rule.ID,
				cacheable: true,
				degraded:  degraded,
			}
		}
		return outcome{result: r.Default(), source: events.SourceDefault, degraded: degraded}
	}
	return outcome{result: r.Default(), source: events.SourceDefault}
}

// activeRules fetches the active rules of a plan. When the data source fails
// it falls back to fresh cached rules; successful fetches are written behind
// together with the plan itself.
func (r *Resolver) activeRules(ctx context.Context, req Request, planID string, useCache bool) ([]model.TariffRule, bool) {
	rules, err := r.source.GetActiveRules(ctx, planID)
	cache := r.cache
	if !useCache {
		cache = nil
	}
	if err != nil {
		r.warn("rules", req, err)
		if cache != nil {
			if cached, ok := cache.GetRules(ctx, planID); ok {
				r.log.Infof("using cached rules for plan %s", planID)
				return cached, true
			}
		}
		return nil, true
	}
	if cache == nil || !cache.Persistent() {
		return rules, false
	}
	cache.PutRules(ctx, planID, rules)
	if _, ok := cache.GetPlan(ctx, planID); !ok {
		plan, err := r.source.GetTariffPlan(ctx, planID)
		switch {
		case err != nil && !errors.Is(err, model.ErrNotFound):
			r.log.Debugf("tariff plan %s not cached: %v", planID, err)
		case err == nil && plan != nil:
			cache.PutPlan(ctx, *plan)
		}
	}
	return rules, false
}

func (r *Resolver) warn(step string, req Request, err error) {
	resolverErrors.WithLabelValues(step).Inc()
	r.log.Warnw("pricing lookup failed", map[string]any{
		"step":       step,
		"station_id": req.StationID,
		"error":      err.Error(),
	})
	monitoring.Report("resolver", err, map[string]string{"step": step, "station_id": req.StationID})
}

func (r *Resolver) record(req Request, out outcome, tier string, start time.Time) {
	lat := time.Since(start)
	resolutions.WithLabelValues(out.source).Inc()
	resolveLatency.WithLabelValues(out.source).Observe(lat.Seconds())
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.ResolutionEvent{
		ID:            uuid.NewString(),
		StationID:     req.StationID,
		ConnectorType: req.ConnectorType,
		ClientID:      req.ClientID,
		Source:        out.source,
		CacheTier:     tier,
		RatePerKWh:    out.result.RatePerKWh,
		Currency:      out.result.Currency,
		TariffPlanID:  out.result.TariffPlanID,
		RuleID:        out.ruleID,
		Degraded:      out.degraded,
		Latency:       lat,
		Time:          r.clock.Now(),
	})
}
