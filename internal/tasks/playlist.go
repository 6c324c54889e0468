package tasks

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rsmeets/radiolist/internal/models"
	"github.com/rsmeets/radiolist/internal/repositories"
	"github.com/rsmeets/radiolist/internal/services"
	"github.com/rsmeets/radiolist/internal/shared"
)

const (
	// DefaultPlaylistWindow is the trailing window a play must fall in to be a
	// playlist candidate.
	DefaultPlaylistWindow = 4 * 24 * time.Hour

	// DefaultMaxTracksPerUpdate caps how many uris one append call submits;
	// the excess stays un-added and reappears in the next cycle's query.
	DefaultMaxTracksPerUpdate = 80

	// DefaultPageSize is the playlist enumeration page size.
	DefaultPageSize = 100

	// DefaultOffsetCeiling guards the initial enumeration against a runaway
	// pagination loop; exceeding it is fatal.
	DefaultOffsetCeiling = 200

	// Daypart bounds, inclusive local hours. Only daytime plays are synced.
	DefaultDaypartStart = 6
	DefaultDaypartEnd   = 19
)

// playlistRefPattern is the opaque playlist reference format stored on a
// station. A reference that does not match is a configuration error.
var playlistRefPattern = regexp.MustCompile(`spotify:user:([^:]+):playlist:(.+)`)

// parsePlaylistRef splits a "spotify:user:<user>:playlist:<id>" reference.
func parsePlaylistRef(ref string) (user, playlistID string, err error) {
	parts := playlistRefPattern.FindStringSubmatch(ref)
	if parts == nil {
		return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistRef, ref)
	}
	return parts[1], parts[2], nil
}

// PlaylistSync keeps each enabled station's Spotify playlist extended with
// the tracks recently played on air.
//
// Membership is cached in memory per station: Load rebuilds it from a full
// playlist enumeration at process start, and each successful append extends
// it. It is never persisted: it is a best-effort mirror of what Spotify
// already holds, so appending without a confirmed load would create visible
// duplicates. That is why a Load failure is fatal rather than assumed empty.
type PlaylistSync struct {
	stations *repositories.StationRepository
	tracks   *repositories.PlayedTrackRepository
	client   services.SpotifyAPI
	logger   *log.Logger

	window        time.Duration
	daypartStart  int
	daypartEnd    int
	maxTracksAdd  int
	pageSize      int
	offsetCeiling int
	location      *time.Location

	// membership maps station id → track uri → track id. Only the sync
	// goroutine touches it: Load runs before the schedule is armed and cycles
	// never overlap.
	membership map[string]map[string]string
}

// NewPlaylistSync creates a PlaylistSync with the default window, daypart,
// caps, and the local timezone.
func NewPlaylistSync(stations *repositories.StationRepository, tracks *repositories.PlayedTrackRepository, client services.SpotifyAPI, logger *log.Logger) *PlaylistSync {
	return &PlaylistSync{
		stations:      stations,
		tracks:        tracks,
		client:        client,
		logger:        logger.With("task", "playlist"),
		window:        DefaultPlaylistWindow,
		daypartStart:  DefaultDaypartStart,
		daypartEnd:    DefaultDaypartEnd,
		maxTracksAdd:  DefaultMaxTracksPerUpdate,
		pageSize:      DefaultPageSize,
		offsetCeiling: DefaultOffsetCeiling,
		location:      time.Local,
		membership:    make(map[string]map[string]string),
	}
}

// SetWindow overrides the trailing window and daypart bounds.
func (p *PlaylistSync) SetWindow(window time.Duration, daypartStart, daypartEnd int, loc *time.Location) {
	p.window = window
	p.daypartStart = daypartStart
	p.daypartEnd = daypartEnd
	if loc != nil {
		p.location = loc
	}
}

// SetLimits overrides the append cap, page size, and pagination ceiling.
func (p *PlaylistSync) SetLimits(maxTracksAdd, pageSize, offsetCeiling int) {
	p.maxTracksAdd = maxTracksAdd
	p.pageSize = pageSize
	p.offsetCeiling = offsetCeiling
}

// Load rebuilds the in-memory membership of every enabled station's playlist
// by paginated enumeration. Any failure, including a playlist that pages
// past the safety ceiling, is unrecoverable: the caller must exit rather
// than start syncing against unknown membership.
func (p *PlaylistSync) Load(ctx context.Context) error {
	stations, err := p.stations.ListEnabled()
	if err != nil {
		return fmt.Errorf("failed to get stations: %w", err)
	}

	if len(stations) == 0 {
		p.logger.Info("no active stations")
		return nil
	}

	for _, station := range stations {
		if err := p.loadStation(ctx, station); err != nil {
			return fmt.Errorf("failed to load playlist for station %s: %w", station.Name, err)
		}
	}

	p.logger.Info("loaded all playlists", "stations", len(stations))
	return nil
}

// loadStation enumerates one station's playlist into a fresh membership map.
func (p *PlaylistSync) loadStation(ctx context.Context, station *models.Station) error {
	user, playlistID, err := parsePlaylistRef(station.SpotifyPlaylistID)
	if err != nil {
		return err
	}

	logger := p.logger.With("station", station.Name, "playlist", playlistID)
	logger.Info("retrieving all tracks from playlist")

	tracks := make(map[string]string)
	offset := 0

	for {
		page, err := p.client.PlaylistTracks(ctx, user, playlistID, p.pageSize, offset)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			tracks[item.URI] = item.ID
		}

		if !page.HasNext {
			break
		}

		logger.Info("playlist contains more tracks, retrieving next batch", "offset", offset)
		offset += p.pageSize

		if offset > p.offsetCeiling {
			return fmt.Errorf("%w: offset %d", shared.ErrPlaylistTooLarge, offset)
		}
	}

	logger.Info("retrieved all tracks", "count", len(tracks))
	p.membership[station.ID] = tracks
	return nil
}

// SyncCycle appends the recently played, already-resolved tracks that are not
// yet in each station's playlist. Stations are processed strictly one at a
// time; a failure aborts the remaining stations for this cycle only.
func (p *PlaylistSync) SyncCycle(ctx context.Context) error {
	for stationID := range p.membership {
		station, err := p.stations.Get(stationID)
		if err != nil {
			return fmt.Errorf("failed to get station %s: %w", stationID, err)
		}

		if err := p.syncStation(ctx, station); err != nil {
			return fmt.Errorf("failed to update station %s: %w", station.Name, err)
		}
	}

	p.logger.Info("done updating playlists")
	return nil
}

// syncStation computes and appends this cycle's additions for one station.
func (p *PlaylistSync) syncStation(ctx context.Context, station *models.Station) error {
	logger := p.logger.With("station", station.Name)
	logger.Info("updating playlist")

	candidates, err := p.candidates(station)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		logger.Info("nothing to add to playlist")
		return nil
	}

	added := p.membership[station.ID]
	var toAdd []services.PlaylistTrackRef
	for _, candidate := range candidates {
		if _, ok := added[candidate.URI]; !ok {
			toAdd = append(toAdd, candidate)
		}
	}

	if len(toAdd) == 0 {
		logger.Info("nothing to add to playlist, all tracks present")
		return nil
	}

	if len(toAdd) > p.maxTracksAdd {
		logger.Info("capping tracks to add", "count", len(toAdd), "cap", p.maxTracksAdd)
		toAdd = toAdd[:p.maxTracksAdd]
	}

	logger.Info("adding tracks to playlist", "count", len(toAdd))

	user, playlistID, err := parsePlaylistRef(station.SpotifyPlaylistID)
	if err != nil {
		return err
	}

	uris := make([]string, 0, len(toAdd))
	for _, ref := range toAdd {
		uris = append(uris, ref.URI)
	}

	if err := p.client.AddTracksToPlaylist(ctx, user, playlistID, uris); err != nil {
		// Membership stays untouched so the same tracks are retried next cycle.
		return err
	}

	for _, ref := range toAdd {
		added[ref.URI] = ref.ID
	}

	return nil
}

// candidates returns the distinct resolved tracks played on this station
// within the window during daytime hours, first-seen play winning per track id.
func (p *PlaylistSync) candidates(station *models.Station) ([]services.PlaylistTrackRef, error) {
	plays, err := p.tracks.RecentResolved(station.ID, time.Now().Add(-p.window))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var refs []services.PlaylistTrackRef

	for _, play := range plays {
		hour := play.PlayedAt.In(p.location).Hour()
		if hour < p.daypartStart || hour > p.daypartEnd {
			continue
		}
		if seen[play.SpotifyTrackID] {
			continue
		}
		seen[play.SpotifyTrackID] = true
		refs = append(refs, services.PlaylistTrackRef{ID: play.SpotifyTrackID, URI: play.SpotifyTrackURI})
	}

	return refs, nil
}
