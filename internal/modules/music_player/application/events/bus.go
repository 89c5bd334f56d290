package events

import (
	"log/slog"
	"sync"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that Bus implements ports.EventPublisher.
var _ ports.EventPublisher = (*Bus)(nil)

// Bus provides a channel-based event bus for async event handling.
// Publishing never blocks playback: when a buffer is full the event is
// dropped with a warning.
type Bus struct {
	trackEnqueued    chan TrackEnqueuedEvent
	trackStarted     chan TrackStartedEvent
	trackFailed      chan TrackFailedEvent
	queueEmpty       chan QueueEmptyEvent
	playbackFinished chan PlaybackFinishedEvent
	progressUpdated  chan ProgressUpdatedEvent
	importProgress   chan ImportProgressEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a new Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	return &Bus{
		trackEnqueued:    make(chan TrackEnqueuedEvent, bufferSize),
		trackStarted:     make(chan TrackStartedEvent, bufferSize),
		trackFailed:      make(chan TrackFailedEvent, bufferSize),
		queueEmpty:       make(chan QueueEmptyEvent, bufferSize),
		playbackFinished: make(chan PlaybackFinishedEvent, bufferSize),
		progressUpdated:  make(chan ProgressUpdatedEvent, bufferSize),
		importProgress:   make(chan ImportProgressEvent, bufferSize),
	}
}

// PublishTrackEnqueued publishes a TrackEnqueuedEvent.
func (b *Bus) PublishTrackEnqueued(event TrackEnqueuedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnqueued")
		return
	}

	select {
	case b.trackEnqueued <- event:
		slog.Debug("published event", "type", "TrackEnqueued", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnqueued")
	}
}

// PublishTrackStarted publishes a TrackStartedEvent.
func (b *Bus) PublishTrackStarted(event TrackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackStarted")
		return
	}

	select {
	case b.trackStarted <- event:
		slog.Debug("published event", "type", "TrackStarted", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackStarted")
	}
}

// PublishTrackFailed publishes a TrackFailedEvent.
func (b *Bus) PublishTrackFailed(event TrackFailedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackFailed")
		return
	}

	select {
	case b.trackFailed <- event:
		slog.Debug("published event", "type", "TrackFailed", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackFailed")
	}
}

// PublishQueueEmpty publishes a QueueEmptyEvent.
func (b *Bus) PublishQueueEmpty(event QueueEmptyEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "QueueEmpty")
		return
	}

	select {
	case b.queueEmpty <- event:
		slog.Debug("published event", "type", "QueueEmpty", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "QueueEmpty")
	}
}

// PublishPlaybackFinished publishes a PlaybackFinishedEvent.
func (b *Bus) PublishPlaybackFinished(event PlaybackFinishedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackFinished")
		return
	}

	select {
	case b.playbackFinished <- event:
		slog.Debug("published event", "type", "PlaybackFinished", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlaybackFinished")
	}
}

// PublishProgressUpdated publishes a ProgressUpdatedEvent.
func (b *Bus) PublishProgressUpdated(event ProgressUpdatedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "ProgressUpdated")
		return
	}

	select {
	case b.progressUpdated <- event:
	default:
		// Progress updates are periodic; a dropped one is replaced 3s later.
		slog.Debug("event buffer full, dropping progress update", "guild", event.GuildID)
	}
}

// PublishImportProgress publishes an ImportProgressEvent.
func (b *Bus) PublishImportProgress(event ImportProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "ImportProgress")
		return
	}

	select {
	case b.importProgress <- event:
		slog.Debug("published event", "type", "ImportProgress", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "ImportProgress")
	}
}

// TrackEnqueued returns the channel for TrackEnqueuedEvent.
func (b *Bus) TrackEnqueued() <-chan TrackEnqueuedEvent {
	return b.trackEnqueued
}

// TrackStarted returns the channel for TrackStartedEvent.
func (b *Bus) TrackStarted() <-chan TrackStartedEvent {
	return b.trackStarted
}

// TrackFailed returns the channel for TrackFailedEvent.
func (b *Bus) TrackFailed() <-chan TrackFailedEvent {
	return b.trackFailed
}

// QueueEmpty returns the channel for QueueEmptyEvent.
func (b *Bus) QueueEmpty() <-chan QueueEmptyEvent {
	return b.queueEmpty
}

// PlaybackFinished returns the channel for PlaybackFinishedEvent.
func (b *Bus) PlaybackFinished() <-chan PlaybackFinishedEvent {
	return b.playbackFinished
}

// ProgressUpdated returns the channel for ProgressUpdatedEvent.
func (b *Bus) ProgressUpdated() <-chan ProgressUpdatedEvent {
	return b.progressUpdated
}

// ImportProgress returns the channel for ImportProgressEvent.
func (b *Bus) ImportProgress() <-chan ImportProgressEvent {
	return b.importProgress
}

// Close closes all event channels.
// After calling Close, publishing will no longer send events.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.trackEnqueued)
	close(b.trackStarted)
	close(b.trackFailed)
	close(b.queueEmpty)
	close(b.playbackFinished)
	close(b.progressUpdated)
	close(b.importProgress)

	slog.Debug("event bus closed")
}
