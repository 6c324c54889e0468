package crawler

import (
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/rsmeets/radiolist/internal/models"
)

// StrategyPlaylist24 is the registry key for the playlist24 page layout.
const StrategyPlaylist24 = "playlist24"

// Playlist24 extracts plays from a playlist24-style station page: a list of
// .track-block rows, the first of which only holds the column headers. Times
// on the page carry no date, so they are interpreted as today in the
// configured location.
type Playlist24 struct {
	location *time.Location
	logger   *log.Logger
}

// NewPlaylist24 creates the playlist24 strategy for the given location.
func NewPlaylist24(loc *time.Location, logger *log.Logger) *Playlist24 {
	if loc == nil {
		loc = time.Local
	}
	return &Playlist24{location: loc, logger: logger.With("strategy", StrategyPlaylist24)}
}

// Extract implements [Strategy].
func (p *Playlist24) Extract(station *models.Station, body io.Reader) []*models.PlayedTrack {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		p.logger.Error("failed to parse page", "error", err)
		return nil
	}

	blocks := doc.Find(".track-block")
	if blocks.Length() == 0 {
		p.logger.Error("failed to retrieve track table")
		return nil
	}

	today := time.Now().In(p.location).Format("2006-01-02")

	var tracks []*models.PlayedTrack
	blocks.Each(func(i int, block *goquery.Selection) {
		// The first block only contains the header titles.
		if i == 0 {
			return
		}

		timeString := strings.TrimSpace(block.Find(".time.square-box-date").Text())
		title := strings.TrimSpace(block.Find(".text-overflow .title a").Text())
		artist := strings.TrimSpace(block.Find(".text-overflow .artist a").Text())

		playedAt, err := time.ParseInLocation("2006-01-02 15:04", today+" "+timeString, p.location)
		if err != nil {
			p.logger.Error("failed to parse play time", "time", timeString, "error", err)
			return
		}

		tracks = append(tracks, &models.PlayedTrack{
			StationID: station.ID,
			Artist:    artist,
			Title:     title,
			PlayedAt:  playedAt,
		})
	})

	return tracks
}
