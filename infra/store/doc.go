// Package store provides the persistent tiers of the pricing cache: an
// in-process map, an embedded Badger database, an embedded SQLite file and
// a shared Redis instance. Each registers itself with pricecache under its
// type name.
package store
