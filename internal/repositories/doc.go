// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [StationRepository] : station configuration and crawl scheduling lookups
//   - [PlayedTrackRepository] : scraped plays, resolution bookkeeping, and the
//     windowed queries feeding the playlist synchronizer
//   - [CatalogRepository] : canonical Spotify mappings and audio features
//
// Uniqueness constraints are part of the contract: duplicate played tracks and
// racing catalog inserts surface as [shared.ErrDuplicate] so callers can treat
// them as "already exists" rather than failures.
package repositories
