package domain

// TrackSource represents where a track's metadata and audio came from.
type TrackSource string

const (
	// TrackSourceYouTube is a track found directly on the audio catalog.
	TrackSourceYouTube TrackSource = "youtube"
	// TrackSourceSpotifyYouTube is a Spotify track matched to a playable
	// catalog entry; metadata is Spotify's, audio is the catalog's.
	TrackSourceSpotifyYouTube TrackSource = "spotify_youtube"
	// TrackSourceSpotify is Spotify metadata with no playable match.
	TrackSourceSpotify TrackSource = "spotify"
)

// Color returns the embed accent color for the source.
func (s TrackSource) Color() int {
	switch s {
	case TrackSourceSpotify, TrackSourceSpotifyYouTube:
		return 0x1DB954
	default:
		return 0xFF0000
	}
}

// IconURL returns the brand icon shown next to the source.
func (s TrackSource) IconURL() string {
	switch s {
	case TrackSourceSpotify, TrackSourceSpotifyYouTube:
		return "https://open.spotifycdn.com/cdn/images/favicon32.b64ecc03.png"
	default:
		return "https://www.youtube.com/s/desktop/f506bd45/img/favicon_32x32.png"
	}
}

// ParseTrackSource converts a source name string to a TrackSource.
func ParseTrackSource(name string) TrackSource {
	switch name {
	case "spotify_youtube":
		return TrackSourceSpotifyYouTube
	case "spotify":
		return TrackSourceSpotify
	default:
		return TrackSourceYouTube
	}
}
