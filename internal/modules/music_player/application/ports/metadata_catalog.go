package ports

import (
	"context"
	"time"
)

// TrackMetadata is authoritative metadata from the secondary provider.
// It cannot be played directly; it must be matched to an audio catalog
// entry first.
type TrackMetadata struct {
	ID       string
	Title    string
	Artist   string
	URL      string
	Duration time.Duration
}

// MetadataCatalog defines the interface for the secondary resolution
// provider: a metadata-only catalog used to sharpen vague queries and to
// expand playlists and albums.
type MetadataCatalog interface {
	// GetTrack fetches metadata for a single track ID.
	GetTrack(ctx context.Context, id string) (*TrackMetadata, error)

	// GetPlaylistTracks fetches up to limit tracks of a playlist, in
	// playlist order.
	GetPlaylistTracks(ctx context.Context, id string, limit int) ([]TrackMetadata, error)

	// GetAlbumTracks fetches up to limit tracks of an album, in album order.
	GetAlbumTracks(ctx context.Context, id string, limit int) ([]TrackMetadata, error)

	// SearchTrack returns the best metadata match for free-text terms,
	// or nil when nothing matches.
	SearchTrack(ctx context.Context, query string) (*TrackMetadata, error)
}
