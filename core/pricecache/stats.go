package pricecache

import (
	"context"
	"errors"
)

// Approximate record sizes used by Stats.
const (
	approxPricingBytes  = 1024
	approxPlanBytes     = 512
	approxRuleBytes     = 256
	approxFavoriteBytes = 2048
)

// Stats summarizes cache occupancy.
type Stats struct {
	Pricing     int   `json:"pricing_count"`
	Plans       int   `json:"tariff_plans_count"`
	Rules       int   `json:"tariff_rules_count"`
	Favorites   int   `json:"favorites_count"`
	Memory      int   `json:"memory_count"`
	ApproxBytes int64 `json:"total_size"`
}

// Stats counts entries per partition. Counting failures leave the affected
// partition at zero and are returned joined.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	c.mu.RLock()
	s := Stats{Memory: len(c.memory)}
	c.mu.RUnlock()
	if c.store == nil {
		return s, nil
	}
	var errs []error
	count := func(p Partition) int {
		n, err := c.store.Count(ctx, p)
		if err != nil {
			c.storeFailure(p, "count", err)
			errs = append(errs, err)
			return 0
		}
		return n
	}
	s.Pricing = count(PartitionPricing)
	s.Plans = count(PartitionPlans)
	s.Rules = count(PartitionRules)
	s.Favorites = count(PartitionFavorites)
	s.ApproxBytes = int64(s.Pricing)*approxPricingBytes +
		int64(s.Plans)*approxPlanBytes +
		int64(s.Rules)*approxRuleBytes +
		int64(s.Favorites)*approxFavoriteBytes
	return s, errors.Join(errs...)
}
