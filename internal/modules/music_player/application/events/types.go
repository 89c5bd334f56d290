package events

import (
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
)

// Re-export event types from ports for use by event handlers.
type (
	TrackEnqueuedEvent    = ports.TrackEnqueuedEvent
	TrackStartedEvent     = ports.TrackStartedEvent
	TrackFailedEvent      = ports.TrackFailedEvent
	QueueEmptyEvent       = ports.QueueEmptyEvent
	PlaybackFinishedEvent = ports.PlaybackFinishedEvent
	ProgressUpdatedEvent  = ports.ProgressUpdatedEvent
	ImportProgressEvent   = ports.ImportProgressEvent
)
