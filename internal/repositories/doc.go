// Package repositories implements SQLite persistence for cached tracks and replacement history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TrackRepository] : Track metadata cache with ISRC lookups
//   - [TrackCacheAdapter] : Write-through persister for services.TrackCache
//   - [ReplacementJobRepository] : One row per executed playlist plan, grouped by run
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
