// package crawler scrapes station "now playing" pages into played tracks
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/repositories"
	"github.com/rsmeets/radiolist/internal/shared"
)

// Strategy extracts played tracks from a station page body. An empty result
// signals extraction failure (the page layout changed, for instance); it is
// logged and not retried within the call.
type Strategy interface {
	Extract(station *models.Station, body io.Reader) []*models.PlayedTrack
}

// Crawler fetches every crawlable station's page on each cycle and records
// the plays it finds. Duplicate plays, where the page still shows tracks from
// the previous cycle, are rejected by the store and silently skipped.
type Crawler struct {
	stations   *repositories.StationRepository
	tracks     *repositories.PlayedTrackRepository
	httpClient *http.Client
	strategies map[string]Strategy
	logger     *log.Logger
}

// NewCrawler creates a Crawler with the given strategy registry, keyed by
// station crawl strategy name.
func NewCrawler(stations *repositories.StationRepository, tracks *repositories.PlayedTrackRepository, strategies map[string]Strategy, logger *log.Logger) *Crawler {
	return &Crawler{
		stations:   stations,
		tracks:     tracks,
		httpClient: http.DefaultClient,
		strategies: strategies,
		logger:     logger.With("task", "crawler"),
	}
}

// CrawlStations crawls every enabled station that is due, strictly one at a
// time. A failing station is logged and skipped; it does not abort the sweep.
func (c *Crawler) CrawlStations(ctx context.Context) error {
	stations, err := c.stations.ListCrawlable(timeNow())
	if err != nil {
		return fmt.Errorf("failed to retrieve crawlable stations: %w", err)
	}

	c.logger.Info("crawlable stations", "count", len(stations))

	for _, station := range stations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.crawlStation(ctx, station); err != nil {
			c.logger.Error("failed to crawl station", "station", station.Name, "error", err)
		}
	}

	c.logger.Info("finished crawling all stations")
	return nil
}

// crawlStation fetches one station page, extracts its plays, and stores the
// ones not seen before.
func (c *Crawler) crawlStation(ctx context.Context, station *models.Station) error {
	logger := c.logger.With("station", station.Name)
	logger.Info("start crawling station", "url", station.CrawlURL)

	strategy, ok := c.strategies[station.CrawlStrategy]
	if !ok {
		return fmt.Errorf("%w: unknown crawl strategy %q", shared.ErrInvalidConfig, station.CrawlStrategy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, station.CrawlURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	tracks := strategy.Extract(station, resp.Body)
	logger.Info("identified tracks", "count", len(tracks))

	newTracks := 0
	for _, track := range tracks {
		err := c.tracks.Create(track)
		if err == nil {
			newTracks++
			continue
		}
		if !errors.Is(err, shared.ErrDuplicate) {
			logger.Error("failed to save played track", "error", err)
		}
	}

	logger.Info("discovered new tracks", "count", newTracks)
	return nil
}

// timeNow is stubbed in tests.
var timeNow = time.Now
