// Package pricing resolves the tariff that applies to a charging point.
//
// Resolution follows a fixed waterfall: cached result, station lookup,
// client override (fixed rate, then discount), station fixed price,
// scheduled rule of the station's tariff plan, default tariff. Resolve never
// fails; every error along the way degrades to the next step and finally to
// the default tariff.
//
// Match, ComputeCost and BuildFromRule are pure. Projector previews the rate
// at fixed hours of a day without touching either cache tier.
package pricing
