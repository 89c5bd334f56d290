package domain

import "time"

// CandidateTrack is an unranked search result from the audio catalog.
// It carries the uploader name, which tracks do not keep, because the
// ranker scores channel reputation.
type CandidateTrack struct {
	ID           string
	Title        string
	Uploader     string
	URL          string
	Duration     time.Duration
	ThumbnailURL string
}

// ToTrack converts a candidate into a playable Track with the given source.
func (c *CandidateTrack) ToTrack(source TrackSource) *Track {
	return NewTrack(
		TrackID(c.ID),
		c.Title,
		c.Uploader,
		c.URL,
		c.Duration,
		c.ThumbnailURL,
		source,
	)
}
