// Package models defines domain entities and persistence interfaces for tvx.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs describing Spotify data and the results computed from it
//   - [Track], [Playlist], [TrackSlot], [User] : Spotify entities reduced to the fields tvx reads
//   - [StolenVariants], [PreReleaseTrack] : catalog entries keyed by ISRC
//   - [StolenTrack], [ScannedPlaylist], [ScanResult], [ScanError] : scanner output
//   - [PlaylistSelection], [TrackInsert], [ReplaceError] : replacement plans and their failures
//   - [Progress] : progress reports for long running operations
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [PersistedTrack] : cached Spotify track metadata with ISRC
//   - [ReplacementJob] : one executed playlist plan, kept as history
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
