package domain

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   QueryKind
		wantID     string
	}{
		{
			name:     "free text",
			input:    "never gonna give you up",
			wantKind: QueryFreeText,
		},
		{
			name:     "youtube watch URL",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: QueryYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "youtube watch URL without scheme",
			input:    "www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: QueryYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "youtube watch URL with extra params",
			input:    "https://youtube.com/watch?list=PL123&v=dQw4w9WgXcQ",
			wantKind: QueryYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "youtube short URL",
			input:    "https://youtu.be/dQw4w9WgXcQ",
			wantKind: QueryYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "spotify track URL",
			input:    "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT",
			wantKind: QuerySpotifyTrack,
			wantID:   "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			name:     "spotify track URL with locale segment",
			input:    "https://open.spotify.com/intl-ja/track/4cOdK2wGLETKBW3PvgPWqT",
			wantKind: QuerySpotifyTrack,
			wantID:   "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			name:     "spotify playlist URL",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			wantKind: QuerySpotifyPlaylist,
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "spotify album URL",
			input:    "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE",
			wantKind: QuerySpotifyAlbum,
			wantID:   "6dVIqQ8qmQ5GBnJ9shOYGE",
		},
		{
			name:     "unrecognized URL falls through to free text",
			input:    "https://example.com/some/audio.mp3",
			wantKind: QueryFreeText,
		},
		{
			name:     "leading and trailing whitespace",
			input:    "  https://youtu.be/dQw4w9WgXcQ  ",
			wantKind: QueryYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "empty string",
			input:    "",
			wantKind: QueryFreeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)

			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, expected %v", got.Kind, tt.wantKind)
			}
			if got.ResourceID != tt.wantID {
				t.Errorf("ResourceID = %q, expected %q", got.ResourceID, tt.wantID)
			}
		})
	}
}

func TestAugmentQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "artist-title separator left unchanged",
			input: "Radiohead - Karma Police",
			want:  "Radiohead - Karma Police",
		},
		{
			name:  "by separator left unchanged",
			input: "karma police by radiohead",
			want:  "karma police by radiohead",
		},
		{
			name:  "existing music keyword left unchanged",
			input: "karma police official audio",
			want:  "karma police official audio",
		},
		{
			name:  "single word augmented",
			input: "bohemian",
			want:  "bohemian official audio",
		},
		{
			name:  "plain multi-word query augmented",
			input: "bohemian rhapsody queen",
			want:  "bohemian rhapsody queen official audio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AugmentQuery(tt.input); got != tt.want {
				t.Errorf("AugmentQuery(%q) = %q, expected %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWatchURL(t *testing.T) {
	got := WatchURL("dQw4w9WgXcQ")
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got != want {
		t.Errorf("WatchURL() = %q, expected %q", got, want)
	}
}
