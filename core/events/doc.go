// Package events defines the pricing related events emitted on the event bus.
//
// Available event types:
//   - ResolutionEvent: a price was resolved for a charging point
//   - CacheEvent: outcome of a cache lookup or write for one tier
//   - InvalidationEvent: cached prices were dropped
//   - InvalidationRequest: a remote party asked for cached prices to be dropped
package events
