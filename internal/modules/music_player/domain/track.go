package domain

import (
	"strconv"
	"time"
)

// TrackID is a unique identifier for a track in a queue.
type TrackID string

// Track represents a playable audio track. Tracks are immutable once
// resolved; mutable playback state lives in PlayerState.
type Track struct {
	ID           TrackID
	Title        string
	Artist       string
	CanonicalURL string // Stable page URL, not a resolved stream address
	Duration     time.Duration
	ThumbnailURL string
	Source       TrackSource
}

// NewTrack creates a new Track with the given parameters.
func NewTrack(
	id TrackID,
	title string,
	artist string,
	canonicalURL string,
	duration time.Duration,
	thumbnailURL string,
	source TrackSource,
) *Track {
	return &Track{
		ID:           id,
		Title:        title,
		Artist:       artist,
		CanonicalURL: canonicalURL,
		Duration:     duration,
		ThumbnailURL: thumbnailURL,
		Source:       source,
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.CanonicalURL != "" && t.Title != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return formatTime(hours, minutes, seconds)
	}
	return formatTimeShort(minutes, seconds)
}

func formatTime(hours, minutes, seconds int) string {
	return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
}

func formatTimeShort(minutes, seconds int) string {
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
