// Package models defines the domain entities of the airplay pipeline.
//
// Three entities are persisted:
//   - [Station] : crawl configuration and playlist reference per station
//   - [PlayedTrack] : one scraped (artist, title, playedAt) tuple per play
//   - [CatalogEntry] : canonical (artist, title) → Spotify id/uri mapping
//
// Uniqueness invariants are enforced by the store, not by callers:
//   - PlayedTrack: (station, artist, title, playedAt) unique
//   - CatalogEntry: (artist, title) unique, compared case-insensitively
//
// Opaque Spotify payloads (search results, audio features) are carried as
// [encoding/json.RawMessage] so the pipeline never depends on their shape.
package models
