package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const (
	// importProgressEvery is how many processed items separate progress
	// notifications during an import.
	importProgressEvery = 5

	// importFetchLimit caps how many tracks are fetched from a playlist
	// or album.
	importFetchLimit = 100
)

// ImportInput contains the input for the Import use case.
type ImportInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	Kind                  domain.QueryKind // QuerySpotifyPlaylist or QuerySpotifyAlbum
	ResourceID            string
	NotificationChannelID snowflake.ID
}

// ImportOutput contains the result of the Import use case.
type ImportOutput struct {
	SourceName string
	Total      int
	Added      int
	Failed     int
}

// ImportService bulk-imports playlists and albums from the metadata
// catalog into a guild's queue.
type ImportService struct {
	orchestrator *PlaybackOrchestrator
	metadata     ports.MetadataCatalog
	publisher    ports.EventPublisher
}

// NewImportService creates a new ImportService.
func NewImportService(
	orchestrator *PlaybackOrchestrator,
	metadata ports.MetadataCatalog,
	publisher ports.EventPublisher,
) *ImportService {
	return &ImportService{
		orchestrator: orchestrator,
		metadata:     metadata,
		publisher:    publisher,
	}
}

// Import fetches the collection's tracks and enqueues them one by one in
// the collection's order. Items that cannot be matched or enqueued are
// counted and skipped; a partial import is not an error. Playback starts
// as soon as the first track lands in an idle guild.
func (s *ImportService) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if s.metadata == nil {
		return nil, ErrMetadataUnavailable
	}

	var items []ports.TrackMetadata
	var sourceName string
	var err error

	switch input.Kind {
	case domain.QuerySpotifyPlaylist:
		sourceName = "playlist"
		items, err = s.metadata.GetPlaylistTracks(ctx, input.ResourceID, importFetchLimit)
	case domain.QuerySpotifyAlbum:
		sourceName = "album"
		items, err = s.metadata.GetAlbumTracks(ctx, input.ResourceID, importFetchLimit)
	default:
		return nil, fmt.Errorf("%w: query is not a collection", ErrNoResults)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s tracks: %w", sourceName, err)
	}
	if len(items) == 0 {
		return nil, ErrNoResults
	}

	if err := s.orchestrator.ensureSession(ctx, input.GuildID, input.UserID, input.NotificationChannelID); err != nil {
		return nil, err
	}

	added, failed := 0, 0
	for i := range items {
		track := s.orchestrator.resolveMetadataTrack(ctx, &items[i])
		if track == nil {
			failed++
			slog.Debug("no playable match for imported track",
				"guild", input.GuildID,
				"title", items[i].Title,
			)
		} else {
			_, err := s.orchestrator.addTrack(
				ctx, input.GuildID, track, input.UserID, input.NotificationChannelID, false)
			if errors.Is(err, ErrNotConnected) {
				// The session went away mid-import; nothing else will
				// succeed either.
				return nil, err
			}
			if err != nil {
				failed++
				slog.Warn("failed to enqueue imported track",
					"guild", input.GuildID,
					"title", track.Title,
					"error", err,
				)
			} else {
				added++
			}
		}

		processed := i + 1
		if processed%importProgressEvery == 0 && processed < len(items) {
			s.publishProgress(input, sourceName, processed, len(items), added, failed, false)
		}
	}

	s.publishProgress(input, sourceName, len(items), len(items), added, failed, true)

	return &ImportOutput{
		SourceName: sourceName,
		Total:      len(items),
		Added:      added,
		Failed:     failed,
	}, nil
}

func (s *ImportService) publishProgress(
	input ImportInput,
	sourceName string,
	processed, total, added, failed int,
	done bool,
) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishImportProgress(ports.ImportProgressEvent{
		GuildID:               input.GuildID,
		SourceName:            sourceName,
		Processed:             processed,
		Total:                 total,
		Added:                 added,
		Failed:                failed,
		Done:                  done,
		NotificationChannelID: input.NotificationChannelID,
	})
}
