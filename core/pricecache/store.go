package pricecache

import "context"

// Partition names a logical key space of the persistent store.
type Partition string

const (
	PartitionPricing   Partition = "pricing"
	PartitionPlans     Partition = "tariffPlans"
	PartitionRules     Partition = "tariffRules"
	PartitionFavorites Partition = "favorites"
	PartitionMeta      Partition = "meta"
)

// DataPartitions lists the partitions holding cached data, in sweep order.
var DataPartitions = []Partition{PartitionPricing, PartitionPlans, PartitionRules, PartitionFavorites}

// Store is the persistent tier. Get returns model.ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, p Partition, key string) ([]byte, error)
	Put(ctx context.Context, p Partition, key string, value []byte) error
	Delete(ctx context.Context, p Partition, key string) error
	Keys(ctx context.Context, p Partition) ([]string, error)
	Count(ctx context.Context, p Partition) (int, error)
	Clear(ctx context.Context, p Partition) error
	Close() error
}
