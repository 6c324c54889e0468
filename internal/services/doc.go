// Package services implements the [SpotifyAPI] interface against the Spotify
// Web API and owns the shared outbound-call [Throttle].
//
// # Rate limiting
//
// Spotify enforces a global rate limit, so every request, no matter which
// background job issues it, passes through one shared [Throttle] before
// leaving the process. The throttle is a simple minimum-spacing
// limiter (default 5s), not a token bucket: jobs process one item at a time,
// so at most one call is ever in flight.
//
// # Error Handling
//
// The client distinguishes three failure classes using shared sentinels:
//   - [shared.ErrUnauthorized] : HTTP 401, token invalid or revoked
//   - [shared.ErrAPIRequest] : transport failure or any other non-2xx status
//   - [shared.ErrMalformedPayload] : undecodable response body
//
// Callers treat all three as transient; the distinction exists for logging.
package services
