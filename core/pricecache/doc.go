// Package pricecache implements the two-tier cache used by the pricing
// resolver. The first tier is an in-process map with a short TTL, the second
// a persistent Store partitioned into pricing, tariffPlans, tariffRules and
// favorites. Every persisted record carries its write timestamp and a schema
// version; stale or foreign-version records are treated as misses and
// removed on sight.
//
// A Cache built with a nil Store runs memory-only.
package pricecache
