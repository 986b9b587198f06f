// Package services implements the Spotify Web API client used by tvx.
//
// # Spotify Client
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh. New tokens are
// handed to the callback set with [SpotifyService.SetTokenRefreshCallback] so the CLI can save them.
//
// # Transport
//
// Every request passes through a [RetryTransport] beneath the oauth2 layer. It paces requests
// with a [rate.Limiter] and retries 429 responses up to three times, waiting i² seconds plus
// the server's Retry-After, with up to 50% jitter.
//
// # Pagination
//
// Collection endpoints return a [Pager] that fetches pages lazily. A "next" cursor outside the
// API root fails the walk with [shared.ErrUnexpectedCursor].
//
// # Track Cache
//
// [TrackCache] batches GET /tracks lookups (50 ids per request) and remembers both found and
// missing tracks for the life of the cache.
//
// # Error Handling
//
// Non-2xx responses become [APIError], which unwraps to a sentinel from the shared package:
//   - [shared.ErrTokenExpired] : 401, reauthorization needed
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrRateLimited] : 429 after retries are exhausted
//   - [shared.ErrAPIRequest] : any other failure
package services
