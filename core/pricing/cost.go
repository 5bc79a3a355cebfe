package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kilianp07/evtariff/core/model"
)

// ComputeCost itemizes the cost of a session. Each component is charged only
// when its rate is positive. A session without energy or duration costs
// nothing, session fee included. Discounts are already part of RatePerKWh, so
// DiscountAmount is always zero here. Negative quantities count as zero.
func ComputeCost(energyKWh, durationMinutes float64, p model.PricingResult) model.SessionCostBreakdown {
	energyKWh = nonNegative(energyKWh)
	durationMinutes = nonNegative(durationMinutes)
	if energyKWh == 0 && durationMinutes == 0 {
		return model.SessionCostBreakdown{Currency: p.Currency}
	}
	energy := decimal.NewFromFloat(energyKWh)
	minutes := decimal.NewFromFloat(durationMinutes)

	var energyCost, timeCost, sessionFee, parkingFee decimal.Decimal
	if p.RatePerKWh > 0 {
		energyCost = energy.Mul(decimal.NewFromFloat(p.RatePerKWh))
	}
	if p.RatePerMinute > 0 {
		timeCost = minutes.Mul(decimal.NewFromFloat(p.RatePerMinute))
	}
	if p.SessionFee > 0 {
		sessionFee = decimal.NewFromFloat(p.SessionFee)
	}
	if p.ParkingFeePerMinute > 0 {
		parkingFee = minutes.Mul(decimal.NewFromFloat(p.ParkingFeePerMinute))
	}
	base := energyCost.Add(timeCost).Add(sessionFee).Add(parkingFee)
	discount := decimal.Zero

	return model.SessionCostBreakdown{
		EnergyCost:     energyCost.InexactFloat64(),
		TimeCost:       timeCost.InexactFloat64(),
		SessionFee:     sessionFee.InexactFloat64(),
		ParkingFee:     parkingFee.InexactFloat64(),
		BaseAmount:     base.InexactFloat64(),
		DiscountAmount: discount.InexactFloat64(),
		FinalAmount:    base.Sub(discount).InexactFloat64(),
		Currency:       p.Currency,
	}
}
