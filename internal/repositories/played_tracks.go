package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/shared"
)

// PlayedTrackRepository handles persistence for [models.PlayedTrack].
//
// The (station_id, artist, title, played_at) unique index rejects duplicate
// scrape results; Create surfaces those as [shared.ErrDuplicate] so callers
// can skip them silently.
type PlayedTrackRepository struct {
	db *sql.DB
}

// NewPlayedTrackRepository creates a new PlayedTrackRepository with the given database connection
func NewPlayedTrackRepository(db *sql.DB) *PlayedTrackRepository {
	return &PlayedTrackRepository{db: db}
}

const playedTrackColumns = `id, station_id, artist, title, played_at, spotify_track_id, spotify_track_uri, resolved, resolved_at, attempts, created_at`

// Create inserts a new [models.PlayedTrack] with a generated ID. A uniqueness
// violation is returned wrapped around [shared.ErrDuplicate].
func (r *PlayedTrackRepository) Create(track *models.PlayedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track.ID = shared.GenerateID()
	track.CreatedAt = time.Now()

	query := `
		INSERT INTO played_tracks (id, station_id, artist, title, played_at, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		track.ID,
		track.StationID,
		track.Artist,
		track.Title,
		track.PlayedAt,
		track.Attempts,
		track.CreatedAt,
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("played track %w", shared.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert played track: %w", err)
	}

	return nil
}

// Unresolved retrieves all tracks still awaiting resolution whose attempt
// count has not passed the ceiling, newest plays first.
func (r *PlayedTrackRepository) Unresolved(maxAttempts int) ([]*models.PlayedTrack, error) {
	query := `
		SELECT ` + playedTrackColumns + `
		FROM played_tracks
		WHERE resolved = 0 AND attempts <= ?
		ORDER BY played_at DESC, attempts ASC
	`
	return r.queryMany(query, maxAttempts)
}

// RecentResolved retrieves resolved plays for a station with played_at on or
// after since, oldest first so the first recorded play of a track wins when
// callers deduplicate.
func (r *PlayedTrackRepository) RecentResolved(stationID string, since time.Time) ([]*models.PlayedTrack, error) {
	query := `
		SELECT ` + playedTrackColumns + `
		FROM played_tracks
		WHERE station_id = ?
			AND played_at >= ?
			AND resolved = 1
			AND spotify_track_uri IS NOT NULL
		ORDER BY played_at ASC
	`
	return r.queryMany(query, stationID, since)
}

// MarkResolved attaches a Spotify id/uri to a played track and flags it resolved.
func (r *PlayedTrackRepository) MarkResolved(id, spotifyID, spotifyURI string, at time.Time) error {
	query := `
		UPDATE played_tracks
		SET spotify_track_id = ?, spotify_track_uri = ?, resolved = 1, resolved_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, spotifyID, spotifyURI, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark played track resolved: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("played track %s: %w", id, shared.ErrNotFound)
	}

	return nil
}

// IncrementAttempts records a failed resolution attempt.
func (r *PlayedTrackRepository) IncrementAttempts(id string) error {
	result, err := r.db.Exec(`UPDATE played_tracks SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("played track %s: %w", id, shared.ErrNotFound)
	}

	return nil
}

// Get retrieves a played track by ID.
func (r *PlayedTrackRepository) Get(id string) (*models.PlayedTrack, error) {
	query := `SELECT ` + playedTrackColumns + ` FROM played_tracks WHERE id = ?`

	track, err := scanPlayedTrack(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("played track: %w", shared.ErrNotFound)
	}
	return track, err
}

func (r *PlayedTrackRepository) queryMany(query string, args ...any) ([]*models.PlayedTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query played tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PlayedTrack
	for rows.Next() {
		track, err := scanPlayedTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func scanPlayedTrack(s scanner) (*models.PlayedTrack, error) {
	var (
		track      models.PlayedTrack
		spotifyID  sql.NullString
		spotifyURI sql.NullString
		resolvedAt sql.NullTime
	)

	err := s.Scan(
		&track.ID,
		&track.StationID,
		&track.Artist,
		&track.Title,
		&track.PlayedAt,
		&spotifyID,
		&spotifyURI,
		&track.Resolved,
		&resolvedAt,
		&track.Attempts,
		&track.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan played track: %w", err)
	}

	track.SpotifyTrackID = spotifyID.String
	track.SpotifyTrackURI = spotifyURI.String
	if resolvedAt.Valid {
		track.ResolvedAt = resolvedAt.Time
	}

	return &track, nil
}
