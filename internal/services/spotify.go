// Spotify API implementation of [SpotifyAPI]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rsmeets/radiolist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Per-call id/uri limits documented by Spotify.
	maxAudioFeatureIDs = 100
	maxPlaylistAddURIs = 100
)

// SpotifyService implements [SpotifyAPI] against the Spotify Web API.
//
// Authentication uses [oauth2]; once Authenticate has been called with a
// refresh token the underlying [http.Client] refreshes access tokens
// transparently. Every request passes through the shared [Throttle] first.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	throttle   *Throttle
	market     string
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2
// credentials. The throttle may be shared with other services; a nil throttle
// disables spacing (useful in tests).
func NewSpotifyService(credentials map[string]string, throttle *Throttle) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	market := credentials["market"]
	if market == "" {
		market = "NL"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		throttle:   throttle,
		market:     market,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate wires up the authenticated HTTP client. Expects either an
// "access_token" or a "refresh_token" in credentials; with a refresh token the
// client refreshes expired access tokens on its own.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		s.token = &oauth2.Token{RefreshToken: refreshToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or refresh_token", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs a throttled, authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if s.throttle != nil {
		if err := s.throttle.Wait(ctx); err != nil {
			return fmt.Errorf("throttle wait: %w", err)
		}
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err)
		}
	}

	return nil
}

// trackFields is the subset of a Spotify track object the pipeline reads.
type trackFields struct {
	ID   string `json:"id"`
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// SearchTracks runs a market-scoped track search. Candidates keep the raw
// track payload alongside the id/uri/name fields.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string) ([]TrackCandidate, error) {
	endpoint := fmt.Sprintf("/search?type=track&market=%s&q=%s", url.QueryEscape(s.market), url.QueryEscape(query))

	var response struct {
		Tracks struct {
			Items []json.RawMessage `json:"items"`
			Total int               `json:"total"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]TrackCandidate, 0, len(response.Tracks.Items))
	for _, raw := range response.Tracks.Items {
		var fields trackFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err)
		}
		candidates = append(candidates, TrackCandidate{
			ID:   fields.ID,
			URI:  fields.URI,
			Name: fields.Name,
			Raw:  raw,
		})
	}

	return candidates, nil
}

// AudioFeatures retrieves audio features for the given track ids (up to 100).
// Null entries, which Spotify returns for unknown ids, are dropped.
func (s *SpotifyService) AudioFeatures(ctx context.Context, ids []string) ([]AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track ids provided", shared.ErrInvalidInput)
	}
	if len(ids) > maxAudioFeatureIDs {
		return nil, fmt.Errorf("%w: maximum %d track ids allowed", shared.ErrInvalidInput, maxAudioFeatureIDs)
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(ids, ",")))

	var response struct {
		AudioFeatures []json.RawMessage `json:"audio_features"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	features := make([]AudioFeatures, 0, len(response.AudioFeatures))
	for _, raw := range response.AudioFeatures {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var fields struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err)
		}
		features = append(features, AudioFeatures{ID: fields.ID, Raw: raw})
	}

	return features, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, user, playlistID string, limit, offset int) (*PlaylistTracksPage, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists/%s/tracks?limit=%d&offset=%d",
		url.PathEscape(user), url.PathEscape(playlistID), limit, offset)

	var response struct {
		Items []struct {
			Track trackFields `json:"track"`
		} `json:"items"`
		Next *string `json:"next"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &PlaylistTracksPage{HasNext: response.Next != nil}
	for _, item := range response.Items {
		page.Items = append(page.Items, PlaylistTrackRef{ID: item.Track.ID, URI: item.Track.URI})
	}

	return page, nil
}

// AddTracksToPlaylist appends the given track uris (up to 100) to a playlist.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, user, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track uris provided", shared.ErrInvalidInput)
	}
	if len(uris) > maxPlaylistAddURIs {
		return fmt.Errorf("%w: maximum %d track uris allowed", shared.ErrInvalidInput, maxPlaylistAddURIs)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists/%s/tracks",
		url.PathEscape(user), url.PathEscape(playlistID))

	body := map[string][]string{"uris": uris}
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}
