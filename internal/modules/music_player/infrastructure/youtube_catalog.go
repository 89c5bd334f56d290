package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"golang.org/x/time/rate"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const (
	// catalogRequestTimeout bounds each outbound catalog call.
	catalogRequestTimeout = 15 * time.Second

	// extractorRate limits yt-dlp invocations to avoid throttling.
	extractorRate  = rate.Limit(2)
	extractorBurst = 4
)

// YouTubeCatalog implements ports.AudioCatalog against YouTube.
// Search merges YouTube Music and plain YouTube results so that topic
// channel uploads rank ahead of fan re-uploads; metadata extraction and
// stream resolution go through yt-dlp.
type YouTubeCatalog struct {
	search  *ytsearch.Client
	limiter *rate.Limiter
}

// NewYouTubeCatalog creates a new YouTubeCatalog.
func NewYouTubeCatalog() *YouTubeCatalog {
	return &YouTubeCatalog{
		search:  ytsearch.NewClient(nil),
		limiter: rate.NewLimiter(extractorRate, extractorBurst),
	}
}

// Search returns up to limit candidates for the query. One search
// backend failing yields partial results; enqueueing must not break
// because a single backend is down.
func (c *YouTubeCatalog) Search(
	ctx context.Context,
	query string,
	limit int,
) ([]domain.CandidateTrack, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogRequestTimeout)
	defer cancel()

	seen := make(map[string]bool)
	var candidates []domain.CandidateTrack

	// YouTube Music first: its index is music-only, so its hits are
	// almost always the canonical upload.
	musicSearch := ytmusic.TrackSearch(query)
	musicResult, musicErr := musicSearch.Next()
	if musicErr != nil {
		slog.Warn("youtube music search failed", "query", query, "error", musicErr)
	} else {
		for _, track := range musicResult.Tracks {
			if track.VideoID == "" || seen[track.VideoID] {
				continue
			}
			seen[track.VideoID] = true

			artist := ""
			if len(track.Artists) > 0 {
				artist = track.Artists[0].Name
			}
			thumbnail := ""
			if len(track.Thumbnails) > 0 {
				thumbnail = track.Thumbnails[len(track.Thumbnails)-1].URL
			}

			candidates = append(candidates, domain.CandidateTrack{
				ID:           track.VideoID,
				Title:        track.Title,
				Uploader:     artist,
				URL:          watchURL(track.VideoID),
				Duration:     time.Duration(track.Duration) * time.Second,
				ThumbnailURL: thumbnail,
			})
			if len(candidates) >= limit {
				return candidates, nil
			}
		}
	}

	result, err := c.search.Search(ctx, query)
	if err != nil {
		slog.Warn("youtube search failed", "query", query, "error", err)
		if musicErr != nil {
			return nil, fmt.Errorf("searching catalog: %w", err)
		}
		return candidates, nil
	}
	for _, video := range result.Results {
		if video.VideoID == "" || seen[video.VideoID] {
			continue
		}
		seen[video.VideoID] = true

		candidates = append(candidates, domain.CandidateTrack{
			ID:       video.VideoID,
			Title:    video.Title,
			Uploader: video.Channel,
			URL:      watchURL(video.VideoID),
			Duration: parseColonDuration(video.Duration),
		})
		if len(candidates) >= limit {
			break
		}
	}

	return candidates, nil
}

// Lookup fetches metadata for a direct track URL via yt-dlp.
func (c *YouTubeCatalog) Lookup(ctx context.Context, url string) (*domain.CandidateTrack, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogRequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := ytdlp.New().
		NoWarnings().
		IgnoreConfig().
		Print("%(id)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(thumbnail)s").
		Run(ctx, url)
	if err != nil {
		return nil, classifyExtractionError(err)
	}

	fields := strings.Split(strings.TrimSpace(res.Stdout), "\t")
	if len(fields) < 5 {
		return nil, fmt.Errorf("unexpected extractor output for %s", url)
	}

	duration, _ := strconv.ParseFloat(fields[3], 64)

	return &domain.CandidateTrack{
		ID:           fields[0],
		Title:        fields[1],
		Uploader:     fields[2],
		URL:          url,
		Duration:     time.Duration(duration * float64(time.Second)),
		ThumbnailURL: fields[4],
	}, nil
}

// ResolveAudioSource returns a short-lived direct stream address for the
// track URL. The address expires; callers must not persist it.
func (c *YouTubeCatalog) ResolveAudioSource(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogRequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := ytdlp.New().
		NoWarnings().
		IgnoreConfig().
		Format("bestaudio[ext=webm]/bestaudio/best").
		Print("%(url)s").
		Run(ctx, url)
	if err != nil {
		return "", classifyExtractionError(err)
	}

	streamURL, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	if streamURL == "" {
		return "", fmt.Errorf("extractor returned no stream address for %s", url)
	}
	return streamURL, nil
}

// ProbeAvailability checks whether the track behind the URL is playable.
// The result is transient and is never stored.
func (c *YouTubeCatalog) ProbeAvailability(
	ctx context.Context,
	url string,
) domain.RestrictionReport {
	ctx, cancel := context.WithTimeout(ctx, catalogRequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Restricted(domain.RestrictionUnknown, err.Error())
	}

	res, err := ytdlp.New().
		NoWarnings().
		IgnoreConfig().
		Print("%(is_live)s").
		Run(ctx, url)
	if err != nil {
		classified := classifyExtractionError(err)
		var restriction *domain.RestrictionError
		if errors.As(classified, &restriction) {
			return restriction.Report
		}
		return domain.Restricted(domain.RestrictionUnknown, err.Error())
	}

	if strings.TrimSpace(res.Stdout) == "True" {
		return domain.Restricted(domain.RestrictionLiveStream, "live stream")
	}
	return domain.Playable()
}

// classifyExtractionError maps yt-dlp failure output to a restriction
// where the message identifies one, and passes everything else through.
func classifyExtractionError(err error) error {
	message := strings.ToLower(err.Error())

	for _, probe := range extractionRestrictions {
		for _, marker := range probe.markers {
			if strings.Contains(message, marker) {
				return &domain.RestrictionError{
					Report: domain.Restricted(probe.kind, err.Error()),
				}
			}
		}
	}
	return err
}

var extractionRestrictions = []struct {
	kind    domain.RestrictionKind
	markers []string
}{
	{domain.RestrictionAgeRestricted, []string{"age-restricted", "sign in to confirm your age", "age restricted"}},
	{domain.RestrictionRegionBlocked, []string{"not available in your country", "blocked it in your country", "geo restricted"}},
	{domain.RestrictionPrivate, []string{"private video", "this video is private"}},
	{domain.RestrictionDeleted, []string{"video has been removed", "account associated with this video has been terminated"}},
	{domain.RestrictionLiveStream, []string{"this live event", "is a live stream"}},
	{domain.RestrictionEmbedDisabled, []string{"embedding is disabled"}},
	{domain.RestrictionNotFound, []string{"video unavailable", "does not exist", "404"}},
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// parseColonDuration parses clock-style durations like "3:20" or "1:05:20".
func parseColonDuration(clock string) time.Duration {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + value
	}
	return time.Duration(total) * time.Second
}

// Ensure YouTubeCatalog implements ports.AudioCatalog.
var _ ports.AudioCatalog = (*YouTubeCatalog)(nil)
