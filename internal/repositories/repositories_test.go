package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createTestStation(t *testing.T, repo *StationRepository) *models.Station {
	t.Helper()

	station := &models.Station{
		Name:              "Radio Veronica",
		CrawlURL:          "https://example.com/veronica",
		CrawlStrategy:     "playlist24",
		SpotifyPlaylistID: "spotify:user:tester:playlist:3abc",
		Enabled:           true,
	}
	if err := repo.Create(station); err != nil {
		t.Fatalf("failed to create station: %v", err)
	}
	return station
}

func TestStationRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("GeneratesIDAndDefaults", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewStationRepository(db)
			station := createTestStation(t, repo)

			if station.ID == "" {
				t.Error("expected generated ID")
			}
			if station.NextCrawlDate.IsZero() {
				t.Error("expected next crawl date to default to now")
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewStationRepository(db)
			station := &models.Station{Name: "", CrawlURL: "https://example.com"}

			if err := repo.Create(station); err == nil {
				t.Fatal("expected validation error for empty name")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewStationRepository(db)
			created := createTestStation(t, repo)

			got, err := repo.Get(created.ID)
			if err != nil {
				t.Fatalf("failed to get station: %v", err)
			}
			if got.Name != created.Name {
				t.Errorf("expected name %q, got %q", created.Name, got.Name)
			}
			if got.SpotifyPlaylistID != created.SpotifyPlaylistID {
				t.Errorf("expected playlist ref %q, got %q", created.SpotifyPlaylistID, got.SpotifyPlaylistID)
			}
		})

		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewStationRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("ListEnabled", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStationRepository(db)
		createTestStation(t, repo)

		disabled := &models.Station{
			Name:              "Off Air FM",
			CrawlURL:          "https://example.com/offair",
			CrawlStrategy:     "playlist24",
			SpotifyPlaylistID: "spotify:user:tester:playlist:3off",
			Enabled:           false,
		}
		if err := repo.Create(disabled); err != nil {
			t.Fatalf("failed to create disabled station: %v", err)
		}

		stations, err := repo.ListEnabled()
		if err != nil {
			t.Fatalf("failed to list enabled stations: %v", err)
		}
		if len(stations) != 1 {
			t.Fatalf("expected 1 enabled station, got %d", len(stations))
		}
		if stations[0].Name != "Radio Veronica" {
			t.Errorf("expected Radio Veronica, got %q", stations[0].Name)
		}
	})

	t.Run("ListCrawlable", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewStationRepository(db)

		due := &models.Station{
			Name:              "Due FM",
			CrawlURL:          "https://example.com/due",
			CrawlStrategy:     "playlist24",
			NextCrawlDate:     time.Now().Add(-time.Minute),
			SpotifyPlaylistID: "spotify:user:tester:playlist:3due",
			Enabled:           true,
		}
		future := &models.Station{
			Name:              "Future FM",
			CrawlURL:          "https://example.com/future",
			CrawlStrategy:     "playlist24",
			NextCrawlDate:     time.Now().Add(time.Hour),
			SpotifyPlaylistID: "spotify:user:tester:playlist:3fut",
			Enabled:           true,
		}
		for _, s := range []*models.Station{due, future} {
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create station %s: %v", s.Name, err)
			}
		}

		stations, err := repo.ListCrawlable(time.Now())
		if err != nil {
			t.Fatalf("failed to list crawlable stations: %v", err)
		}
		if len(stations) != 1 {
			t.Fatalf("expected 1 crawlable station, got %d", len(stations))
		}
		if stations[0].Name != "Due FM" {
			t.Errorf("expected Due FM, got %q", stations[0].Name)
		}
	})
}

func TestPlayedTrackRepository(t *testing.T) {
	newTrack := func(stationID string, playedAt time.Time) *models.PlayedTrack {
		return &models.PlayedTrack{
			StationID: stationID,
			Artist:    "Fleetwood Mac",
			Title:     "Dreams",
			PlayedAt:  playedAt,
		}
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("Duplicate", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			stations := NewStationRepository(db)
			tracks := NewPlayedTrackRepository(db)
			station := createTestStation(t, stations)

			playedAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
			if err := tracks.Create(newTrack(station.ID, playedAt)); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}

			err := tracks.Create(newTrack(station.ID, playedAt))
			if !errors.Is(err, shared.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})

		t.Run("SamePlayDifferentStation", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			stations := NewStationRepository(db)
			tracks := NewPlayedTrackRepository(db)
			first := createTestStation(t, stations)

			second := &models.Station{
				Name:              "Radio 538",
				CrawlURL:          "https://example.com/538",
				CrawlStrategy:     "playlist24",
				SpotifyPlaylistID: "spotify:user:tester:playlist:3538",
				Enabled:           true,
			}
			if err := stations.Create(second); err != nil {
				t.Fatalf("failed to create second station: %v", err)
			}

			playedAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
			if err := tracks.Create(newTrack(first.ID, playedAt)); err != nil {
				t.Fatalf("failed to create track for first station: %v", err)
			}
			if err := tracks.Create(newTrack(second.ID, playedAt)); err != nil {
				t.Fatalf("expected same play on another station to insert, got %v", err)
			}
		})
	})

	t.Run("Unresolved", func(t *testing.T) {
		t.Run("FiltersByAttemptCeiling", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			stations := NewStationRepository(db)
			tracks := NewPlayedTrackRepository(db)
			station := createTestStation(t, stations)

			fresh := newTrack(station.ID, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
			if err := tracks.Create(fresh); err != nil {
				t.Fatalf("failed to create fresh track: %v", err)
			}

			exhausted := newTrack(station.ID, time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC))
			exhausted.Title = "Go Your Own Way"
			exhausted.Attempts = 2
			if err := tracks.Create(exhausted); err != nil {
				t.Fatalf("failed to create exhausted track: %v", err)
			}

			unresolved, err := tracks.Unresolved(1)
			if err != nil {
				t.Fatalf("failed to query unresolved tracks: %v", err)
			}
			if len(unresolved) != 1 {
				t.Fatalf("expected 1 unresolved track, got %d", len(unresolved))
			}
			if unresolved[0].ID != fresh.ID {
				t.Errorf("expected track %s, got %s", fresh.ID, unresolved[0].ID)
			}
		})

		t.Run("ExcludesResolved", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			stations := NewStationRepository(db)
			tracks := NewPlayedTrackRepository(db)
			station := createTestStation(t, stations)

			track := newTrack(station.ID, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
			if err := tracks.Create(track); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
			if err := tracks.MarkResolved(track.ID, "4fzsfWzRhPawzqhX8Qt9F3", "spotify:track:4fzsfWzRhPawzqhX8Qt9F3", time.Now()); err != nil {
				t.Fatalf("failed to mark track resolved: %v", err)
			}

			unresolved, err := tracks.Unresolved(1)
			if err != nil {
				t.Fatalf("failed to query unresolved tracks: %v", err)
			}
			if len(unresolved) != 0 {
				t.Fatalf("expected no unresolved tracks, got %d", len(unresolved))
			}
		})
	})

	t.Run("MarkResolved", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		stations := NewStationRepository(db)
		tracks := NewPlayedTrackRepository(db)
		station := createTestStation(t, stations)

		track := newTrack(station.ID, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
		if err := tracks.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		resolvedAt := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
		if err := tracks.MarkResolved(track.ID, "4fzsfWzRhPawzqhX8Qt9F3", "spotify:track:4fzsfWzRhPawzqhX8Qt9F3", resolvedAt); err != nil {
			t.Fatalf("failed to mark track resolved: %v", err)
		}

		got, err := tracks.Get(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if !got.Resolved {
			t.Error("expected track to be resolved")
		}
		if got.SpotifyTrackURI != "spotify:track:4fzsfWzRhPawzqhX8Qt9F3" {
			t.Errorf("unexpected track uri %q", got.SpotifyTrackURI)
		}
		if !got.ResolvedAt.Equal(resolvedAt) {
			t.Errorf("expected resolved at %v, got %v", resolvedAt, got.ResolvedAt)
		}

		t.Run("NotFound", func(t *testing.T) {
			err := tracks.MarkResolved("nonexistent-id", "id", "uri", time.Now())
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("IncrementAttempts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		stations := NewStationRepository(db)
		tracks := NewPlayedTrackRepository(db)
		station := createTestStation(t, stations)

		track := newTrack(station.ID, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
		if err := tracks.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := tracks.IncrementAttempts(track.ID); err != nil {
			t.Fatalf("failed to increment attempts: %v", err)
		}

		got, err := tracks.Get(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", got.Attempts)
		}
	})

	t.Run("RecentResolved", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		stations := NewStationRepository(db)
		tracks := NewPlayedTrackRepository(db)
		station := createTestStation(t, stations)

		now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
		since := now.Add(-96 * time.Hour)

		inWindow := newTrack(station.ID, now.Add(-2*time.Hour))
		if err := tracks.Create(inWindow); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := tracks.MarkResolved(inWindow.ID, "id-a", "spotify:track:a", now); err != nil {
			t.Fatalf("failed to mark track resolved: %v", err)
		}

		earlier := newTrack(station.ID, now.Add(-24*time.Hour))
		earlier.Title = "Everywhere"
		if err := tracks.Create(earlier); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := tracks.MarkResolved(earlier.ID, "id-b", "spotify:track:b", now); err != nil {
			t.Fatalf("failed to mark track resolved: %v", err)
		}

		stale := newTrack(station.ID, now.Add(-120*time.Hour))
		stale.Title = "The Chain"
		if err := tracks.Create(stale); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := tracks.MarkResolved(stale.ID, "id-c", "spotify:track:c", now); err != nil {
			t.Fatalf("failed to mark track resolved: %v", err)
		}

		unresolvedInWindow := newTrack(station.ID, now.Add(-time.Hour))
		unresolvedInWindow.Title = "Little Lies"
		if err := tracks.Create(unresolvedInWindow); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		recent, err := tracks.RecentResolved(station.ID, since)
		if err != nil {
			t.Fatalf("failed to query recent resolved tracks: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 recent resolved tracks, got %d", len(recent))
		}
		if recent[0].ID != earlier.ID || recent[1].ID != inWindow.ID {
			t.Error("expected tracks ordered oldest play first")
		}
	})
}

func TestCatalogRepository(t *testing.T) {
	newEntry := func() *models.CatalogEntry {
		return &models.CatalogEntry{
			Artist:     "Fleetwood Mac",
			Title:      "Dreams",
			SpotifyID:  "4fzsfWzRhPawzqhX8Qt9F3",
			SpotifyURI: "spotify:track:4fzsfWzRhPawzqhX8Qt9F3",
		}
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("Duplicate", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewCatalogRepository(db)
			if err := repo.Create(newEntry()); err != nil {
				t.Fatalf("failed to create first entry: %v", err)
			}

			err := repo.Create(newEntry())
			if !errors.Is(err, shared.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})

		t.Run("DuplicateDifferentCase", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewCatalogRepository(db)
			if err := repo.Create(newEntry()); err != nil {
				t.Fatalf("failed to create first entry: %v", err)
			}

			shouting := newEntry()
			shouting.Artist = "FLEETWOOD MAC"
			shouting.Title = "DREAMS"

			err := repo.Create(shouting)
			if !errors.Is(err, shared.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate for case variant, got %v", err)
			}
		})
	})

	t.Run("FindByArtistTitle", func(t *testing.T) {
		t.Run("CaseInsensitive", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewCatalogRepository(db)
			if err := repo.Create(newEntry()); err != nil {
				t.Fatalf("failed to create entry: %v", err)
			}

			got, err := repo.FindByArtistTitle("fleetwood mac", "dreams")
			if err != nil {
				t.Fatalf("failed to find entry: %v", err)
			}
			if got.SpotifyID != "4fzsfWzRhPawzqhX8Qt9F3" {
				t.Errorf("unexpected spotify id %q", got.SpotifyID)
			}
		})

		t.Run("TrimsWhitespace", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewCatalogRepository(db)
			if err := repo.Create(newEntry()); err != nil {
				t.Fatalf("failed to create entry: %v", err)
			}

			if _, err := repo.FindByArtistTitle("  Fleetwood Mac ", " Dreams  "); err != nil {
				t.Fatalf("failed to find entry with padded inputs: %v", err)
			}
		})

		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewCatalogRepository(db)

			_, err := repo.FindByArtistTitle("Unknown", "Nothing")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Unanalysed", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)

		pending := newEntry()
		if err := repo.Create(pending); err != nil {
			t.Fatalf("failed to create pending entry: %v", err)
		}

		done := newEntry()
		done.Title = "Everywhere"
		done.SpotifyID = "1wGoqD0vrf7njGvxm8PEoF"
		done.Analysis = []byte(`{"tempo": 114.6}`)
		if err := repo.Create(done); err != nil {
			t.Fatalf("failed to create analysed entry: %v", err)
		}

		entries, err := repo.Unanalysed()
		if err != nil {
			t.Fatalf("failed to query unanalysed entries: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 unanalysed entry, got %d", len(entries))
		}
		if entries[0].ID != pending.ID {
			t.Errorf("expected entry %s, got %s", pending.ID, entries[0].ID)
		}
	})

	t.Run("SetAnalysis", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCatalogRepository(db)
		entry := newEntry()
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create entry: %v", err)
		}

		rows, err := repo.SetAnalysis(entry.SpotifyID, []byte(`{"tempo": 120.1}`))
		if err != nil {
			t.Fatalf("failed to set analysis: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected 1 row updated, got %d", rows)
		}

		entries, err := repo.Unanalysed()
		if err != nil {
			t.Fatalf("failed to query unanalysed entries: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected no unanalysed entries, got %d", len(entries))
		}

		t.Run("UnknownID", func(t *testing.T) {
			rows, err := repo.SetAnalysis("missing-id", []byte(`{}`))
			if err != nil {
				t.Fatalf("failed to set analysis: %v", err)
			}
			if rows != 0 {
				t.Fatalf("expected 0 rows updated, got %d", rows)
			}
		})
	})
}
