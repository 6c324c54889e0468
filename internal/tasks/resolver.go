package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hbollon/go-edlib"
	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/repositories"
	"github.com/rsmeets/radiolist/internal/services"
	"github.com/rsmeets/radiolist/internal/shared"
)

const (
	// DefaultMaxSearchAttempts is the attempt ceiling beyond which a played
	// track is never re-selected for resolution.
	DefaultMaxSearchAttempts = 1

	// DefaultSimilarityThreshold is the minimum (inclusive) similarity between
	// the played title and the best search candidate for a match to count.
	DefaultSimilarityThreshold = 0.8
)

// Resolver turns unresolved played tracks into catalog references. It checks
// the catalog for an existing case-insensitive (artist, title) match first and
// only searches Spotify when the pair is new.
type Resolver struct {
	tracks  *repositories.PlayedTrackRepository
	catalog *repositories.CatalogRepository
	client  services.SpotifyAPI
	logger  *log.Logger

	maxAttempts int
	threshold   float64

	// similarity scores a candidate name against the played title; replaced in
	// tests for deterministic scoring.
	similarity func(a, b string) float64
}

// NewResolver creates a Resolver with the default attempt ceiling, threshold,
// and Sørensen–Dice similarity.
func NewResolver(tracks *repositories.PlayedTrackRepository, catalog *repositories.CatalogRepository, client services.SpotifyAPI, logger *log.Logger) *Resolver {
	return &Resolver{
		tracks:      tracks,
		catalog:     catalog,
		client:      client,
		logger:      logger.With("task", "resolver"),
		maxAttempts: DefaultMaxSearchAttempts,
		threshold:   DefaultSimilarityThreshold,
		similarity:  DiceSimilarity,
	}
}

// SetLimits overrides the attempt ceiling and similarity threshold.
func (r *Resolver) SetLimits(maxAttempts int, threshold float64) {
	r.maxAttempts = maxAttempts
	r.threshold = threshold
}

// DiceSimilarity scores two strings with the Sørensen–Dice coefficient in
// [0, 1]. Unscorable inputs count as no similarity.
func DiceSimilarity(a, b string) float64 {
	score, err := edlib.StringsSimilarity(a, b, edlib.SorensenDice)
	if err != nil {
		return 0
	}
	return float64(score)
}

// ResolveNext processes every eligible unresolved played track, strictly one
// at a time so the shared throttle governs the call rate. A failure on one
// record is recorded on that record and never aborts the sweep.
func (r *Resolver) ResolveNext(ctx context.Context) error {
	results, err := r.tracks.Unresolved(r.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to retrieve unresolved tracks: %w", err)
	}

	if len(results) == 0 {
		r.logger.Info("nothing to search for")
		return nil
	}

	r.logger.Info("found tracks to search for", "count", len(results))

	for _, track := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.resolveTrack(ctx, track); err != nil {
			r.logger.Error("failed to resolve track", "artist", track.Artist, "title", track.Title, "error", err)
		}
	}

	return nil
}

// resolveTrack resolves a single played track: catalog lookup first, Spotify
// search second. Search failures, empty results, and below-threshold matches
// all increment the attempt counter and leave the track unresolved.
func (r *Resolver) resolveTrack(ctx context.Context, track *models.PlayedTrack) error {
	artist := strings.TrimSpace(track.Artist)
	title := strings.TrimSpace(track.Title)

	logger := r.logger.With("artist", artist, "title", title)
	logger.Info("resolving played track, checking catalog first")

	entry, err := r.catalog.FindByArtistTitle(artist, title)
	if err == nil {
		logger.Info("found in catalog", "uri", entry.SpotifyURI)
		return r.tracks.MarkResolved(track.ID, entry.SpotifyID, entry.SpotifyURI, time.Now())
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	logger.Info("not in catalog, searching spotify")

	candidates, err := r.client.SearchTracks(ctx, services.SearchQuery(title, artist))
	if err != nil || len(candidates) == 0 {
		if errors.Is(err, shared.ErrUnauthorized) {
			logger.Error("could not authorize with spotify")
		} else {
			logger.Error("search failed or returned no results", "error", err)
		}
		return r.tracks.IncrementAttempts(track.ID)
	}

	// Strict > keeps the first of equal-scoring candidates.
	var best *services.TrackCandidate
	bestScore := 0.0

	for i := range candidates {
		score := r.similarity(title, candidates[i].Name)
		logger.Debug("scored candidate", "name", candidates[i].Name, "score", score)

		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < r.threshold {
		logger.Debug("best score below threshold", "score", bestScore, "threshold", r.threshold)
		return r.tracks.IncrementAttempts(track.ID)
	}

	logger.Info("matched track", "name", best.Name, "uri", best.URI, "score", bestScore)

	if err := r.tracks.MarkResolved(track.ID, best.ID, best.URI, time.Now()); err != nil {
		return fmt.Errorf("failed to save resolved track: %w", err)
	}

	createErr := r.catalog.Create(&models.CatalogEntry{
		Artist:     artist,
		Title:      best.Name,
		SpotifyID:  best.ID,
		SpotifyURI: best.URI,
		AddedAt:    time.Now(),
		ExtraData:  best.Raw,
	})
	if createErr != nil {
		// A concurrent sweep may have inserted the same pair already.
		if errors.Is(createErr, shared.ErrDuplicate) {
			logger.Debug("catalog entry already exists")
			return nil
		}
		return fmt.Errorf("failed to save catalog entry: %w", createErr)
	}

	return nil
}
