// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rsmeets/radiolist/internal/services"
	"github.com/rsmeets/radiolist/internal/shared"
)

// MustSetupDB creates an in-memory SQLite database with migrations applied.
func MustSetupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// MockSpotify is a test double for [services.SpotifyAPI]. Unset function
// fields return empty results; call counters record every invocation.
type MockSpotify struct {
	SearchTracksFunc        func(ctx context.Context, query string) ([]services.TrackCandidate, error)
	AudioFeaturesFunc       func(ctx context.Context, ids []string) ([]services.AudioFeatures, error)
	PlaylistTracksFunc      func(ctx context.Context, user, playlistID string, limit, offset int) (*services.PlaylistTracksPage, error)
	AddTracksToPlaylistFunc func(ctx context.Context, user, playlistID string, uris []string) error

	SearchCalls   int
	FeatureCalls  int
	PageCalls     int
	AddCalls      int
	AddedURIs     [][]string
	FeatureIDs    [][]string
	SearchQueries []string
}

func (m *MockSpotify) SearchTracks(ctx context.Context, query string) ([]services.TrackCandidate, error) {
	m.SearchCalls++
	m.SearchQueries = append(m.SearchQueries, query)
	if m.SearchTracksFunc == nil {
		return nil, nil
	}
	return m.SearchTracksFunc(ctx, query)
}

func (m *MockSpotify) AudioFeatures(ctx context.Context, ids []string) ([]services.AudioFeatures, error) {
	m.FeatureCalls++
	m.FeatureIDs = append(m.FeatureIDs, ids)
	if m.AudioFeaturesFunc == nil {
		return nil, nil
	}
	return m.AudioFeaturesFunc(ctx, ids)
}

func (m *MockSpotify) PlaylistTracks(ctx context.Context, user, playlistID string, limit, offset int) (*services.PlaylistTracksPage, error) {
	m.PageCalls++
	if m.PlaylistTracksFunc == nil {
		return &services.PlaylistTracksPage{}, nil
	}
	return m.PlaylistTracksFunc(ctx, user, playlistID, limit, offset)
}

func (m *MockSpotify) AddTracksToPlaylist(ctx context.Context, user, playlistID string, uris []string) error {
	m.AddCalls++
	m.AddedURIs = append(m.AddedURIs, uris)
	if m.AddTracksToPlaylistFunc == nil {
		return nil
	}
	return m.AddTracksToPlaylistFunc(ctx, user, playlistID, uris)
}
