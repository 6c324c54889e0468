package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/shared"
)

// StationRepository handles persistence for [models.Station].
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository creates a new StationRepository with the given database connection
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, crawl_url, crawl_strategy, next_crawl_date, spotify_playlist_id, enabled, created_at, updated_at`

// Create inserts a new [models.Station] with a generated ID.
func (r *StationRepository) Create(station *models.Station) error {
	if err := station.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	station.ID = shared.GenerateID()
	station.CreatedAt = now
	station.UpdatedAt = now
	if station.NextCrawlDate.IsZero() {
		station.NextCrawlDate = now
	}

	query := `
		INSERT INTO stations (` + stationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		station.ID,
		station.Name,
		station.CrawlURL,
		station.CrawlStrategy,
		station.NextCrawlDate,
		station.SpotifyPlaylistID,
		station.Enabled,
		station.CreatedAt,
		station.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}

	return nil
}

// Get retrieves a station by ID.
func (r *StationRepository) Get(id string) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// List retrieves all stations ordered by name.
func (r *StationRepository) List() ([]*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations ORDER BY name ASC`
	return r.queryMany(query)
}

// ListEnabled retrieves all enabled stations ordered by name.
func (r *StationRepository) ListEnabled() ([]*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE enabled = 1 ORDER BY name ASC`
	return r.queryMany(query)
}

// ListCrawlable retrieves enabled stations whose next crawl date has passed.
func (r *StationRepository) ListCrawlable(now time.Time) ([]*models.Station, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE enabled = 1 AND next_crawl_date <= ?
		ORDER BY name ASC
	`
	return r.queryMany(query, now)
}

func (r *StationRepository) queryMany(query string, args ...any) ([]*models.Station, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stations, nil
}

func (r *StationRepository) scanOne(row *sql.Row) (*models.Station, error) {
	station, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("station: %w", shared.ErrNotFound)
	}
	return station, err
}

// scanner abstracts [sql.Row] and [sql.Rows] for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanStation(s scanner) (*models.Station, error) {
	var station models.Station
	err := s.Scan(
		&station.ID,
		&station.Name,
		&station.CrawlURL,
		&station.CrawlStrategy,
		&station.NextCrawlDate,
		&station.SpotifyPlaylistID,
		&station.Enabled,
		&station.CreatedAt,
		&station.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan station: %w", err)
	}
	return &station, nil
}
