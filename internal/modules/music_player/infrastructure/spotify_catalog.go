package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
)

// spotifyPageSize is the per-request page size for playlist and album
// expansion. The API caps it at 50.
const spotifyPageSize = 50

// SpotifyCatalog implements ports.MetadataCatalog using the Spotify Web
// API with the client-credentials flow. It serves metadata only; audio
// always comes from the audio catalog.
type SpotifyCatalog struct {
	client *spotify.Client
}

// SpotifyConfig holds the Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// NewSpotifyCatalog creates a new SpotifyCatalog. The returned catalog
// refreshes its token automatically.
func NewSpotifyCatalog(ctx context.Context, cfg SpotifyConfig) (*SpotifyCatalog, error) {
	config := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Fetch a token eagerly so misconfigured credentials fail at startup.
	if _, err := config.Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with spotify: %w", err)
	}

	return &SpotifyCatalog{
		client: spotify.New(config.Client(ctx)),
	}, nil
}

// GetTrack fetches metadata for a single track ID.
func (c *SpotifyCatalog) GetTrack(ctx context.Context, id string) (*ports.TrackMetadata, error) {
	track, err := c.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}

	metadata := convertTrack(track.SimpleTrack)
	return &metadata, nil
}

// GetPlaylistTracks fetches up to limit tracks of a playlist, in
// playlist order.
func (c *SpotifyCatalog) GetPlaylistTracks(
	ctx context.Context,
	id string,
	limit int,
) ([]ports.TrackMetadata, error) {
	var tracks []ports.TrackMetadata

	for offset := 0; len(tracks) < limit; offset += spotifyPageSize {
		page, err := c.client.GetPlaylistItems(ctx, spotify.ID(id),
			spotify.Limit(spotifyPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
		}

		for _, item := range page.Items {
			// Episodes and local files have no track payload.
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(item.Track.Track.SimpleTrack))
			if len(tracks) >= limit {
				break
			}
		}

		if len(page.Items) < spotifyPageSize {
			break
		}
	}

	return tracks, nil
}

// GetAlbumTracks fetches up to limit tracks of an album, in album order.
func (c *SpotifyCatalog) GetAlbumTracks(
	ctx context.Context,
	id string,
	limit int,
) ([]ports.TrackMetadata, error) {
	var tracks []ports.TrackMetadata

	for offset := 0; len(tracks) < limit; offset += spotifyPageSize {
		page, err := c.client.GetAlbumTracks(ctx, spotify.ID(id),
			spotify.Limit(spotifyPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to get album %s: %w", id, err)
		}

		for _, track := range page.Tracks {
			tracks = append(tracks, convertTrack(track))
			if len(tracks) >= limit {
				break
			}
		}

		if len(page.Tracks) < spotifyPageSize {
			break
		}
	}

	return tracks, nil
}

// SearchTrack returns the best metadata match for free-text terms, or
// nil when nothing matches.
func (c *SpotifyCatalog) SearchTrack(ctx context.Context, query string) (*ports.TrackMetadata, error) {
	result, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, nil
	}

	metadata := convertTrack(result.Tracks.Tracks[0].SimpleTrack)
	return &metadata, nil
}

func convertTrack(track spotify.SimpleTrack) ports.TrackMetadata {
	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	return ports.TrackMetadata{
		ID:       string(track.ID),
		Title:    track.Name,
		Artist:   artist,
		URL:      track.ExternalURLs["spotify"],
		Duration: time.Duration(track.Duration) * time.Millisecond,
	}
}

// Ensure SpotifyCatalog implements ports.MetadataCatalog.
var _ ports.MetadataCatalog = (*SpotifyCatalog)(nil)
