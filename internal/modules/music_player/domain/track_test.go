package domain

import (
	"testing"
	"time"
)

func TestNewTrack(t *testing.T) {
	track := NewTrack(
		"dQw4w9WgXcQ",
		"Test Song",
		"Test Artist",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		3*time.Minute+30*time.Second,
		"https://example.com/artwork.jpg",
		TrackSourceYouTube,
	)

	if track.ID != "dQw4w9WgXcQ" {
		t.Errorf("expected ID 'dQw4w9WgXcQ', got %q", track.ID)
	}
	if track.Title != "Test Song" {
		t.Errorf("expected Title 'Test Song', got %q", track.Title)
	}
	if track.Artist != "Test Artist" {
		t.Errorf("expected Artist 'Test Artist', got %q", track.Artist)
	}
	if track.Duration != 3*time.Minute+30*time.Second {
		t.Errorf("expected Duration 3m30s, got %v", track.Duration)
	}
	if track.CanonicalURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected CanonicalURL %q", track.CanonicalURL)
	}
	if track.ThumbnailURL != "https://example.com/artwork.jpg" {
		t.Errorf("unexpected ThumbnailURL %q", track.ThumbnailURL)
	}
	if track.Source != TrackSourceYouTube {
		t.Errorf("expected Source youtube, got %q", track.Source)
	}
}

func TestTrack_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		track    *Track
		expected bool
	}{
		{
			name: "valid track",
			track: &Track{
				CanonicalURL: "https://www.youtube.com/watch?v=abc",
				Title:        "Test Song",
			},
			expected: true,
		},
		{
			name: "missing URL",
			track: &Track{
				Title: "Test Song",
			},
			expected: false,
		},
		{
			name: "missing title",
			track: &Track{
				CanonicalURL: "https://www.youtube.com/watch?v=abc",
			},
			expected: false,
		},
		{
			name:     "empty track",
			track:    &Track{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTrack_FormattedDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "zero duration",
			duration: 0,
			expected: "00:00",
		},
		{
			name:     "seconds only",
			duration: 45 * time.Second,
			expected: "00:45",
		},
		{
			name:     "minutes and seconds",
			duration: 3*time.Minute + 30*time.Second,
			expected: "03:30",
		},
		{
			name:     "hours minutes seconds",
			duration: 1*time.Hour + 5*time.Minute + 30*time.Second,
			expected: "01:05:30",
		},
		{
			name:     "double digit all",
			duration: 12*time.Hour + 34*time.Minute + 56*time.Second,
			expected: "12:34:56",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &Track{Duration: tt.duration}
			if got := track.FormattedDuration(); got != tt.expected {
				t.Errorf("FormattedDuration() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
