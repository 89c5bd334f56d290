package domain

import (
	"strings"
	"time"
)

// Duration bounds for the candidate pre-filter. Anything shorter than a
// jingle or longer than a full mix is unlikely to be the song the user
// asked for.
const (
	minTrackDuration = 30 * time.Second
	maxTrackDuration = 30 * time.Minute
)

// Preferred duration bands for scoring.
const (
	goodDurationMin  = 60 * time.Second
	goodDurationMax  = 15 * time.Minute
	idealDurationMin = 2 * time.Minute
	idealDurationMax = 6 * time.Minute
)

// MusicScoreThreshold is the minimum score at which a ranked result is
// considered a confident match. Below it, callers may consult the
// metadata catalog for a better query before settling.
const MusicScoreThreshold = 5

// musicKeywords mark titles that are probably actual songs.
var musicKeywords = []string{
	"official audio",
	"official video",
	"official music video",
	"music video",
	"lyric video",
	"lyrics",
	"audio",
	"full song",
	"remastered",
	"mv",
}

// nonMusicKeywords mark titles that are probably commentary, not music.
var nonMusicKeywords = []string{
	"reaction",
	"review",
	"tutorial",
	"how to play",
	"gameplay",
	"vlog",
	"interview",
	"teaser",
	"behind the scenes",
}

// shortFormMarkers flag clips and shorts.
var shortFormMarkers = []string{
	"#shorts",
	"#short",
	"/shorts/",
}

// reputableUploaderKeywords mark channels that usually host legitimate
// full tracks.
var reputableUploaderKeywords = []string{
	"vevo",
	"official",
	"records",
	"music",
	" - topic",
}

// FilterCandidates drops candidates that are clearly not playable songs:
// out-of-band durations, short-form clips, and commentary content.
// Candidates with unknown (zero) duration pass the duration check.
func FilterCandidates(candidates []CandidateTrack) []CandidateTrack {
	filtered := make([]CandidateTrack, 0, len(candidates))

	for _, c := range candidates {
		if c.Duration > 0 && (c.Duration < minTrackDuration || c.Duration > maxTrackDuration) {
			continue
		}
		title := strings.ToLower(c.Title)
		if containsAny(title, shortFormMarkers) || containsAny(strings.ToLower(c.URL), shortFormMarkers) {
			continue
		}
		if containsAny(title, nonMusicKeywords) {
			continue
		}
		filtered = append(filtered, c)
	}

	return filtered
}

// ScoreCandidate computes the additive music-likeness score of a
// candidate against the original query.
func ScoreCandidate(c *CandidateTrack, query string) int {
	score := 0
	title := strings.ToLower(c.Title)
	uploader := strings.ToLower(c.Uploader)

	score += 5 * countKeywords(title, musicKeywords)
	score += 3 * countKeywords(uploader, reputableUploaderKeywords)

	if c.Duration >= goodDurationMin && c.Duration <= goodDurationMax {
		score += 10
		if c.Duration >= idealDurationMin && c.Duration <= idealDurationMax {
			score += 5
		}
	}

	// Exact word overlap, not substring: "a" must not match every
	// title that happens to contain the letter.
	titleWords := make(map[string]bool)
	for _, word := range strings.Fields(title) {
		titleWords[strings.Trim(word, wordTrimCutset)] = true
	}
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if titleWords[strings.Trim(word, wordTrimCutset)] {
			score += 3
		}
	}

	if len(c.Title) >= 10 && len(c.Title) <= 80 {
		score += 2
	}

	return score
}

// SelectBest picks the most music-like candidate for the query.
// Filtered-out candidates are only reconsidered when the filter removes
// everything, in which case the first raw candidate wins so a vague
// query still plays something. Ties keep the earliest candidate, which
// preserves the catalog's own relevance ordering.
func SelectBest(candidates []CandidateTrack, query string) *CandidateTrack {
	if len(candidates) == 0 {
		return nil
	}

	pool := FilterCandidates(candidates)
	if len(pool) == 0 {
		c := candidates[0]
		return &c
	}

	best := pool[0]
	bestScore := ScoreCandidate(&best, query)
	for _, c := range pool[1:] {
		if score := ScoreCandidate(&c, query); score > bestScore {
			best = c
			bestScore = score
		}
	}

	return &best
}

// wordTrimCutset strips surrounding punctuation before word comparison,
// so "(official" and "official" count as the same word.
const wordTrimCutset = "()[]{}\"'.,!?:;-|"

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func countKeywords(s string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			count++
		}
	}
	return count
}
