package domain

import (
	"regexp"
	"strings"
)

// QueryKind classifies what a raw user query refers to.
type QueryKind int

const (
	QueryFreeText QueryKind = iota // Plain search terms
	QueryYouTubeVideo
	QuerySpotifyTrack
	QuerySpotifyPlaylist
	QuerySpotifyAlbum
)

// String returns a human-readable representation of the query kind.
func (k QueryKind) String() string {
	switch k {
	case QueryYouTubeVideo:
		return "youtube_video"
	case QuerySpotifyTrack:
		return "spotify_track"
	case QuerySpotifyPlaylist:
		return "spotify_playlist"
	case QuerySpotifyAlbum:
		return "spotify_album"
	default:
		return "free_text"
	}
}

// QueryInfo is the result of classifying a raw query.
type QueryInfo struct {
	Kind       QueryKind
	ResourceID string // Video ID or Spotify resource ID; empty for free text
	Raw        string
}

var (
	youtubeWatchRegex = regexp.MustCompile(
		`(?:https?://)?(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:\S*&)?v=([\w-]{11})`,
	)
	youtubeShortRegex = regexp.MustCompile(`(?:https?://)?youtu\.be/([\w-]{11})`)
	spotifyRegex      = regexp.MustCompile(
		`https://open\.spotify\.com/(?:intl-[a-z]{2}/)?(track|playlist|album)/([a-zA-Z0-9]+)`,
	)
)

// Classify inspects a raw user query and determines whether it is a
// recognized URL or free-text search terms. Unrecognized URLs fall
// through to free text so they still get a search attempt.
func Classify(raw string) QueryInfo {
	raw = strings.TrimSpace(raw)

	if m := youtubeWatchRegex.FindStringSubmatch(raw); m != nil {
		return QueryInfo{Kind: QueryYouTubeVideo, ResourceID: m[1], Raw: raw}
	}
	if m := youtubeShortRegex.FindStringSubmatch(raw); m != nil {
		return QueryInfo{Kind: QueryYouTubeVideo, ResourceID: m[1], Raw: raw}
	}
	if m := spotifyRegex.FindStringSubmatch(raw); m != nil {
		info := QueryInfo{ResourceID: m[2], Raw: raw}
		switch m[1] {
		case "track":
			info.Kind = QuerySpotifyTrack
		case "playlist":
			info.Kind = QuerySpotifyPlaylist
		case "album":
			info.Kind = QuerySpotifyAlbum
		}
		return info
	}

	return QueryInfo{Kind: QueryFreeText, Raw: raw}
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// artistTitleSeparators are markers that a free-text query already names
// an artist and a title, so search augmentation would only hurt.
var artistTitleSeparators = []string{" - ", " – ", " — ", " by "}

// AugmentQuery appends a music-intent hint to vague free-text queries.
// Queries that already carry an artist-title separator or an explicit
// music keyword are returned unchanged.
func AugmentQuery(query string) string {
	lower := strings.ToLower(query)

	for _, sep := range artistTitleSeparators {
		if strings.Contains(lower, sep) {
			return query
		}
	}
	for _, kw := range musicKeywords {
		if strings.Contains(lower, kw) {
			return query
		}
	}

	return query + " official audio"
}
