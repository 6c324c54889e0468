package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/shared"
)

// CatalogRepository handles persistence for [models.CatalogEntry].
//
// The (artist, title) unique index uses NOCASE collation, so both uniqueness
// and lookups are case-insensitive. A racing second insert for the same pair
// surfaces as [shared.ErrDuplicate], which callers treat as benign.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `id, artist, title, spotify_id, spotify_uri, added_at, extra_data, analysis`

// Create inserts a new [models.CatalogEntry] with a generated ID. A
// uniqueness violation on (artist, title) is returned wrapped around
// [shared.ErrDuplicate].
func (r *CatalogRepository) Create(entry *models.CatalogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	entry.ID = shared.GenerateID()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}

	query := `
		INSERT INTO catalog_entries (` + catalogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.Artist,
		entry.Title,
		entry.SpotifyID,
		entry.SpotifyURI,
		entry.AddedAt,
		nullableBlob(entry.ExtraData),
		nullableBlob(entry.Analysis),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("catalog entry %w", shared.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert catalog entry: %w", err)
	}

	return nil
}

// FindByArtistTitle retrieves the entry for an (artist, title) pair. The
// comparison is case-insensitive and ignores surrounding whitespace in the
// inputs. Returns [shared.ErrNotFound] when no entry exists.
func (r *CatalogRepository) FindByArtistTitle(artist, title string) (*models.CatalogEntry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_entries
		WHERE artist = ? AND title = ?
	`

	entry, err := scanCatalogEntry(r.db.QueryRow(query, strings.TrimSpace(artist), strings.TrimSpace(title)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog entry: %w", shared.ErrNotFound)
	}
	return entry, err
}

// Unanalysed retrieves all entries lacking audio features, oldest first.
func (r *CatalogRepository) Unanalysed() ([]*models.CatalogEntry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_entries
		WHERE analysis IS NULL
		ORDER BY added_at ASC
	`
	return r.queryMany(query)
}

// SetAnalysis attaches an audio-feature payload to every entry carrying the
// given Spotify id and reports how many rows were updated. More than one row
// can match if duplicate Spotify ids ever exist across (artist, title) pairs.
func (r *CatalogRepository) SetAnalysis(spotifyID string, analysis []byte) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE catalog_entries SET analysis = ? WHERE spotify_id = ?`,
		nullableBlob(analysis), spotifyID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to set analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

func (r *CatalogRepository) queryMany(query string, args ...any) ([]*models.CatalogEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CatalogEntry
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func scanCatalogEntry(s scanner) (*models.CatalogEntry, error) {
	var (
		entry     models.CatalogEntry
		extraData sql.NullString
		analysis  sql.NullString
	)

	err := s.Scan(
		&entry.ID,
		&entry.Artist,
		&entry.Title,
		&entry.SpotifyID,
		&entry.SpotifyURI,
		&entry.AddedAt,
		&extraData,
		&analysis,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
	}

	if extraData.Valid {
		entry.ExtraData = []byte(extraData.String)
	}
	if analysis.Valid {
		entry.Analysis = []byte(analysis.String)
	}

	return &entry, nil
}

// nullableBlob maps an empty payload to NULL so "analysis IS NULL" selects
// unenriched rows.
func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
