// package models defines the data model for the radio airplay pipeline
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Station is a radio station whose public "now playing" page is crawled.
//
// The SpotifyPlaylistID field holds an opaque playlist reference of the form
// "spotify:user:<user>:playlist:<id>". A malformed reference is a
// configuration error and is rejected when the playlist is first loaded.
type Station struct {
	ID                string
	Name              string
	CrawlURL          string
	CrawlStrategy     string
	NextCrawlDate     time.Time
	SpotifyPlaylistID string
	Enabled           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks that all required station fields are present.
func (s *Station) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("station name is required")
	}
	if strings.TrimSpace(s.CrawlURL) == "" {
		return fmt.Errorf("station crawl URL is required")
	}
	if strings.TrimSpace(s.CrawlStrategy) == "" {
		return fmt.Errorf("station crawl strategy is required")
	}
	if strings.TrimSpace(s.SpotifyPlaylistID) == "" {
		return fmt.Errorf("station playlist reference is required")
	}
	return nil
}

// PlayedTrack is a single (artist, title, timestamp) tuple scraped from a
// station page. The combination (station, artist, title, playedAt) is unique;
// a second scrape of the same play is rejected by the store, not overwritten.
//
// Rows start unresolved. The resolver either attaches a Spotify id/uri and
// sets Resolved, or increments Attempts. Rows whose Attempts exceed the
// configured ceiling are never selected again.
type PlayedTrack struct {
	ID              string
	StationID       string
	Artist          string
	Title           string
	PlayedAt        time.Time
	SpotifyTrackID  string
	SpotifyTrackURI string
	Resolved        bool
	ResolvedAt      time.Time
	Attempts        int
	CreatedAt       time.Time
}

// Validate checks that all required played track fields are present.
func (p *PlayedTrack) Validate() error {
	if p.StationID == "" {
		return fmt.Errorf("played track station id is required")
	}
	if strings.TrimSpace(p.Artist) == "" {
		return fmt.Errorf("played track artist is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("played track title is required")
	}
	if p.PlayedAt.IsZero() {
		return fmt.Errorf("played track play time is required")
	}
	return nil
}

// CatalogEntry is the canonical (artist, title) → Spotify mapping. One entry
// exists per unique pair regardless of how many stations played the track.
//
// ExtraData holds the raw search payload the match was taken from; Analysis
// holds the raw audio-feature payload once the enricher has attached it.
type CatalogEntry struct {
	ID         string
	Artist     string
	Title      string
	SpotifyID  string
	SpotifyURI string
	AddedAt    time.Time
	ExtraData  json.RawMessage
	Analysis   json.RawMessage
}

// Validate checks that all required catalog entry fields are present.
func (c *CatalogEntry) Validate() error {
	if strings.TrimSpace(c.Artist) == "" {
		return fmt.Errorf("catalog entry artist is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("catalog entry title is required")
	}
	if c.SpotifyID == "" || c.SpotifyURI == "" {
		return fmt.Errorf("catalog entry spotify id and uri are required")
	}
	return nil
}

// Analysed reports whether audio features have been attached to the entry.
func (c *CatalogEntry) Analysed() bool {
	return len(c.Analysis) > 0
}
