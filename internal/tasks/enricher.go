package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/repositories"
	"github.com/rsmeets/radiolist/internal/services"
)

// DefaultAnalysisBatchSize matches Spotify's per-call audio-feature id limit.
const DefaultAnalysisBatchSize = 100

// Enricher attaches audio-feature payloads to catalog entries that lack them.
// Entries are fetched in fixed-size batches, one rate-limited call per batch.
type Enricher struct {
	catalog   *repositories.CatalogRepository
	client    services.SpotifyAPI
	logger    *log.Logger
	batchSize int
}

// NewEnricher creates an Enricher with the default batch size.
func NewEnricher(catalog *repositories.CatalogRepository, client services.SpotifyAPI, logger *log.Logger) *Enricher {
	return &Enricher{
		catalog:   catalog,
		client:    client,
		logger:    logger.With("task", "enricher"),
		batchSize: DefaultAnalysisBatchSize,
	}
}

// EnrichBatch analyses every catalog entry lacking audio features. Batches
// are processed strictly sequentially; a failed batch is skipped, not
// retried, since its entries still lack analysis and are re-selected next
// cycle.
func (e *Enricher) EnrichBatch(ctx context.Context) error {
	entries, err := e.catalog.Unanalysed()
	if err != nil {
		return fmt.Errorf("failed to retrieve unanalysed entries: %w", err)
	}

	if len(entries) == 0 {
		e.logger.Info("no tracks to analyse")
		return nil
	}

	e.logger.Info("found tracks to analyse", "count", len(entries))

	for start := 0; start < len(entries); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+e.batchSize, len(entries))
		e.analyseBatch(ctx, entries[start:end])
	}

	e.logger.Info("done analysing")
	return nil
}

func (e *Enricher) analyseBatch(ctx context.Context, batch []*models.CatalogEntry) {
	ids := make([]string, 0, len(batch))
	for _, entry := range batch {
		ids = append(ids, entry.SpotifyID)
	}

	features, err := e.client.AudioFeatures(ctx, ids)
	if err != nil {
		e.logger.Error("failed to retrieve audio features", "error", err)
		return
	}
	if len(features) == 0 {
		e.logger.Error("audio feature response was empty")
		return
	}

	for _, feature := range features {
		updated, err := e.catalog.SetAnalysis(feature.ID, feature.Raw)
		if err != nil {
			e.logger.Error("failed to save analysis", "spotify_id", feature.ID, "error", err)
			continue
		}
		if updated == 0 {
			e.logger.Error("no catalog entry for analysed id", "spotify_id", feature.ID)
			continue
		}
		e.logger.Info("saved analysis", "spotify_id", feature.ID, "rows", updated)
	}
}
