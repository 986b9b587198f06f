// Package tasks scans a user's Spotify playlists for stolen tracks and replaces them with
// their Taylor's Version recordings, with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.ScanUserPlaylists] : Find stolen tracks
//     - Resolves the catalog (waits for the pre-release availability probe)
//     - Enumerates the user's playlists page by page
//     - Scans every owned playlist concurrently as soon as it is discovered
//     - Returns affected playlists and per-playlist failures
//
//  2. [Engine.ReplaceTracks] : Apply replacement plans
//     - Inserts each replacement next to the stolen track, highest position first
//     - Removes the stolen tracks in batches of up to 100
//     - Returns the plans that failed; the others are applied regardless
//
// # Progress Reporting
//
// Operations accept a [ProgressFunc]. Calls are serialized, and the reported current value
// never goes backwards. [Channel] adapts a [ProgressUpdate] channel for CLI consumers;
// updates use select with default to prevent blocking.
//
// # Concurrency
//
// Per-playlist work runs on a [Settler], which waits for every task to finish regardless of
// failures and optionally bounds how many run at once.
package tasks
