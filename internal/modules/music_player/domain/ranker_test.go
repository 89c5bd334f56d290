package domain

import (
	"testing"
	"time"
)

func candidate(title, uploader string, duration time.Duration) CandidateTrack {
	return CandidateTrack{
		ID:       title,
		Title:    title,
		Uploader: uploader,
		URL:      "https://www.youtube.com/watch?v=" + title,
		Duration: duration,
	}
}

func TestFilterCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidates []CandidateTrack
		wantTitles []string
	}{
		{
			name: "too short dropped",
			candidates: []CandidateTrack{
				candidate("Karma Police", "Radiohead", 10*time.Second),
				candidate("Karma Police (Official Video)", "Radiohead", 4*time.Minute),
			},
			wantTitles: []string{"Karma Police (Official Video)"},
		},
		{
			name: "too long dropped",
			candidates: []CandidateTrack{
				candidate("Lo-fi mix 3 hours", "Lofi Channel", 3*time.Hour),
				candidate("Karma Police", "Radiohead", 4*time.Minute),
			},
			wantTitles: []string{"Karma Police"},
		},
		{
			name: "unknown duration passes",
			candidates: []CandidateTrack{
				candidate("Karma Police", "Radiohead", 0),
			},
			wantTitles: []string{"Karma Police"},
		},
		{
			name: "reaction content dropped",
			candidates: []CandidateTrack{
				candidate("Karma Police REACTION", "Some Guy", 4*time.Minute),
				candidate("Karma Police guitar tutorial", "Lessons", 4*time.Minute),
				candidate("Karma Police", "Radiohead", 4*time.Minute),
			},
			wantTitles: []string{"Karma Police"},
		},
		{
			name: "shorts dropped",
			candidates: []CandidateTrack{
				candidate("Karma Police #shorts", "Clips", 45*time.Second),
				candidate("Karma Police", "Radiohead", 4*time.Minute),
			},
			wantTitles: []string{"Karma Police"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterCandidates(tt.candidates)
			if len(got) != len(tt.wantTitles) {
				t.Fatalf("expected %d candidates, got %d", len(tt.wantTitles), len(got))
			}
			for i, want := range tt.wantTitles {
				if got[i].Title != want {
					t.Errorf("candidate %d: expected %q, got %q", i, want, got[i].Title)
				}
			}
		})
	}
}

func TestScoreCandidate(t *testing.T) {
	query := "karma police"

	official := candidate("Radiohead - Karma Police (Official Audio)", "Radiohead - Topic", 4*time.Minute+24*time.Second)
	vague := candidate("my cover attempt", "random uploader", 50*time.Second)

	officialScore := ScoreCandidate(&official, query)
	vagueScore := ScoreCandidate(&vague, query)

	if officialScore <= vagueScore {
		t.Errorf("expected official audio to outscore a vague cover: %d <= %d", officialScore, vagueScore)
	}
	if officialScore < MusicScoreThreshold {
		t.Errorf("expected confident match to reach threshold, got %d", officialScore)
	}
	if vagueScore >= MusicScoreThreshold {
		t.Errorf("expected vague match below threshold, got %d", vagueScore)
	}
}

func TestScoreCandidate_DurationBands(t *testing.T) {
	query := "song"

	ideal := candidate("song", "uploader", 3*time.Minute)
	good := candidate("song", "uploader", 12*time.Minute)
	outside := candidate("song", "uploader", 20*time.Minute)

	idealScore := ScoreCandidate(&ideal, query)
	goodScore := ScoreCandidate(&good, query)
	outsideScore := ScoreCandidate(&outside, query)

	if idealScore <= goodScore {
		t.Errorf("ideal duration should outscore good duration: %d <= %d", idealScore, goodScore)
	}
	if goodScore <= outsideScore {
		t.Errorf("good duration should outscore out-of-band duration: %d <= %d", goodScore, outsideScore)
	}
}

func TestSelectBest(t *testing.T) {
	t.Run("empty candidates returns nil", func(t *testing.T) {
		if got := SelectBest(nil, "query"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("prefers official audio over reaction and shorts", func(t *testing.T) {
		candidates := []CandidateTrack{
			candidate("Karma Police REACTION!!", "React Channel", 8*time.Minute),
			candidate("karma police #shorts", "Clips", 30*time.Second),
			candidate("Radiohead - Karma Police (Official Audio)", "Radiohead - Topic", 4*time.Minute+24*time.Second),
		}

		got := SelectBest(candidates, "karma police")
		if got == nil {
			t.Fatal("expected a selection")
		}
		if got.Title != "Radiohead - Karma Police (Official Audio)" {
			t.Errorf("expected official audio, got %q", got.Title)
		}
	})

	t.Run("falls back to first candidate when all filtered", func(t *testing.T) {
		candidates := []CandidateTrack{
			candidate("song reaction", "React Channel", 8*time.Minute),
			candidate("song review", "Reviews", 12*time.Minute),
		}

		got := SelectBest(candidates, "song")
		if got == nil {
			t.Fatal("expected fallback selection")
		}
		if got.Title != "song reaction" {
			t.Errorf("expected first candidate as fallback, got %q", got.Title)
		}
	})

	t.Run("tie keeps earliest candidate", func(t *testing.T) {
		first := candidate("identical song", "uploader", 3*time.Minute)
		second := candidate("identical song", "uploader", 3*time.Minute)
		second.ID = "second"

		got := SelectBest([]CandidateTrack{first, second}, "identical song")
		if got == nil {
			t.Fatal("expected a selection")
		}
		if got.ID != first.ID {
			t.Errorf("expected earliest candidate on tie, got %q", got.ID)
		}
	})
}

func TestScoreCandidate_WordOverlapIsExact(t *testing.T) {
	c := candidate("Banana Phone", "uploader", 3*time.Minute)

	base := ScoreCandidate(&c, "zzz")
	if got := ScoreCandidate(&c, "a"); got != base {
		t.Errorf("single-letter query must not match by substring: got %d, want %d", got, base)
	}
	if got := ScoreCandidate(&c, "banana phone"); got != base+6 {
		t.Errorf("expected +3 per overlapping word: got %d, want %d", got, base+6)
	}
}

func TestScoreCandidate_KeywordsScorePerMatch(t *testing.T) {
	query := "banana phone"
	one := candidate("Banana Phone (Lyrics)", "uploader", 3*time.Minute)
	many := candidate("Banana Phone (Official Audio) [Lyrics]", "uploader", 3*time.Minute)

	oneScore := ScoreCandidate(&one, query)
	manyScore := ScoreCandidate(&many, query)
	if manyScore <= oneScore {
		t.Errorf("expected more music keywords to score higher: %d <= %d", manyScore, oneScore)
	}
}
