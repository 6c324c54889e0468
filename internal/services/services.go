// package services defines the Spotify Web API surface the pipeline consumes
package services

import (
	"context"
	"encoding/json"
)

// SpotifyAPI is the slice of the Spotify Web API the background jobs use.
// [SpotifyService] implements it; tests substitute mocks.
type SpotifyAPI interface {
	// SearchTracks runs a track search and returns the ranked candidates.
	SearchTracks(ctx context.Context, query string) ([]TrackCandidate, error)

	// AudioFeatures retrieves audio features for up to 100 track ids in one call.
	AudioFeatures(ctx context.Context, ids []string) ([]AudioFeatures, error)

	// PlaylistTracks retrieves one page of a playlist's tracks.
	PlaylistTracks(ctx context.Context, user, playlistID string, limit, offset int) (*PlaylistTracksPage, error)

	// AddTracksToPlaylist appends up to 100 track uris to a playlist.
	AddTracksToPlaylist(ctx context.Context, user, playlistID string, uris []string) error
}

// TrackCandidate is one search result. Raw carries the full track object as
// returned by Spotify so callers can persist it without depending on its shape.
type TrackCandidate struct {
	ID   string
	URI  string
	Name string
	Raw  json.RawMessage
}

// AudioFeatures is the audio-feature payload for a single track.
type AudioFeatures struct {
	ID  string
	Raw json.RawMessage
}

// PlaylistTrackRef identifies one track inside a playlist.
type PlaylistTrackRef struct {
	ID  string
	URI string
}

// PlaylistTracksPage is one page of a playlist enumeration. HasNext reports
// whether the service advertises a further page.
type PlaylistTracksPage struct {
	Items   []PlaylistTrackRef
	HasNext bool
}

// SearchQuery builds the structured Spotify search query for an
// (artist, title) pair.
func SearchQuery(title, artist string) string {
	return "track:'" + title + "' artist:'" + artist + "'"
}
