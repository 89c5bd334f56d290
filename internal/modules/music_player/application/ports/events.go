package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// TrackEnqueuedEvent is published when a track is added to the queue.
type TrackEnqueuedEvent struct {
	GuildID               snowflake.ID
	Entry                 domain.QueueEntry
	QueueLength           int
	WasIdle               bool // true if no track was playing when this was enqueued
	NotificationChannelID snowflake.ID
}

// TrackStartedEvent is published when a track starts playing.
type TrackStartedEvent struct {
	GuildID               snowflake.ID
	Track                 *domain.Track
	RequesterID           snowflake.ID
	NotificationChannelID snowflake.ID
}

// TrackFailedEvent is published when a track could not be played and was
// discarded. Reason is a user-facing message.
type TrackFailedEvent struct {
	GuildID               snowflake.ID
	Track                 *domain.Track
	Reason                string
	NotificationChannelID snowflake.ID
}

// QueueEmptyEvent is published when an advance finds nothing left to play.
type QueueEmptyEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// PlaybackFinishedEvent is published when playback goes idle.
// This signals that the "Now Playing" message should be deleted.
type PlaybackFinishedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	LastMessageID         *snowflake.ID // "Now Playing" message to delete
}

// ProgressUpdatedEvent is published periodically while a track plays.
type ProgressUpdatedEvent struct {
	GuildID               snowflake.ID
	Track                 *domain.Track
	ElapsedSeconds        int
	Paused                bool
	LoopMode              domain.LoopMode
	NotificationChannelID snowflake.ID
}

// ImportProgressEvent is published while a playlist or album import runs.
type ImportProgressEvent struct {
	GuildID               snowflake.ID
	SourceName            string // Playlist or album title
	Processed             int
	Total                 int
	Added                 int
	Failed                int
	Done                  bool
	NotificationChannelID snowflake.ID
}

// EventPublisher defines the interface for publishing playback events
// to the notification sink. Publishing never blocks playback.
type EventPublisher interface {
	PublishTrackEnqueued(event TrackEnqueuedEvent)
	PublishTrackStarted(event TrackStartedEvent)
	PublishTrackFailed(event TrackFailedEvent)
	PublishQueueEmpty(event QueueEmptyEvent)
	PublishPlaybackFinished(event PlaybackFinishedEvent)
	PublishProgressUpdated(event ProgressUpdatedEvent)
	PublishImportProgress(event ImportProgressEvent)
}
