package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// NotificationEventHandler renders playback events into Discord messages.
// It is the notification sink: it consumes the bus and owns all message
// bookkeeping, so the orchestrator never touches Discord directly.
type NotificationEventHandler struct {
	notifier ports.NotificationSender
	repo     domain.PlayerStateRepository
	bus      *Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	notifier ports.NotificationSender,
	repo domain.PlayerStateRepository,
	bus *Bus,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		notifier: notifier,
		repo:     repo,
		bus:      bus,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events in background goroutines.
func (h *NotificationEventHandler) Start(ctx context.Context) {
	h.wg.Add(7)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackEnqueued():
				if !ok {
					return
				}
				h.handleTrackEnqueued(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackStarted():
				if !ok {
					return
				}
				h.handleTrackStarted(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackFailed():
				if !ok {
					return
				}
				h.handleTrackFailed(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.QueueEmpty():
				if !ok {
					return
				}
				h.handleQueueEmpty(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.PlaybackFinished():
				if !ok {
					return
				}
				h.handlePlaybackFinished(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.ProgressUpdated():
				if !ok {
					return
				}
				h.handleProgressUpdated(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.ImportProgress():
				if !ok {
					return
				}
				h.handleImportProgress(event)
			}
		}
	}()

	slog.Debug("notification event handler started")
}

// Stop stops the event handler and waits for goroutines to finish.
func (h *NotificationEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("notification event handler stopped")
}

func (h *NotificationEventHandler) handleTrackEnqueued(event TrackEnqueuedEvent) {
	// A track that starts immediately gets a "Now Playing" message
	// instead; a second embed would just be noise.
	if event.WasIdle {
		return
	}

	track := event.Entry.Track
	err := h.notifier.SendQueueAdded(event.NotificationChannelID, &ports.QueueAddedInfo{
		Title:       track.Title,
		Artist:      track.Artist,
		Duration:    track.FormattedDuration(),
		URI:         track.CanonicalURL,
		ArtworkURL:  track.ThumbnailURL,
		Position:    event.QueueLength,
		RequesterID: event.Entry.RequesterID,
	})
	if err != nil {
		slog.Error("failed to send queue added notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleTrackStarted(event TrackStartedEvent) {
	state := h.repo.Get(event.GuildID)
	if state == nil {
		slog.Debug("skipping now playing notification, state not found",
			"guild", event.GuildID,
		)
		return
	}

	// Check if the track is still current before sending notification.
	// This prevents orphaned messages for tracks that already failed.
	currentTrack := state.CurrentTrack()
	if currentTrack == nil || currentTrack.ID != event.Track.ID {
		slog.Debug("skipping now playing notification, track no longer current",
			"guild", event.GuildID,
			"track", event.Track.Title,
		)
		return
	}

	// Supersede the previous "Now Playing" message.
	if prev := state.GetNowPlayingMessage(); prev != nil {
		if err := h.notifier.DeleteMessage(prev.ChannelID, prev.MessageID); err != nil {
			slog.Warn("failed to delete previous now playing message",
				"guild", event.GuildID,
				"error", err,
			)
		}
		state.SetNowPlayingMessage(nil)
	}

	messageID, err := h.notifier.SendNowPlaying(event.NotificationChannelID, &ports.NowPlayingInfo{
		GuildID:     event.GuildID,
		Identifier:  string(event.Track.ID),
		Title:       event.Track.Title,
		Artist:      event.Track.Artist,
		Duration:    event.Track.FormattedDuration(),
		LoopMode:    state.GetLoopMode().String(),
		URI:         event.Track.CanonicalURL,
		ArtworkURL:  event.Track.ThumbnailURL,
		SourceName:  string(event.Track.Source),
		RequesterID: event.RequesterID,
	})
	if err != nil {
		slog.Error("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	// Store the message info for later deletion
	msg := domain.NewNowPlayingMessage(event.NotificationChannelID, messageID)
	state.SetNowPlayingMessage(&msg)
}

func (h *NotificationEventHandler) handleTrackFailed(event TrackFailedEvent) {
	message := event.Reason
	if event.Track != nil {
		message = event.Track.Title + ": " + event.Reason
	}

	if err := h.notifier.SendError(event.NotificationChannelID, message); err != nil {
		slog.Error("failed to send track failed notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueEmpty(event QueueEmptyEvent) {
	err := h.notifier.SendInfo(event.NotificationChannelID,
		"Queue Finished", "All queued tracks have been played.")
	if err != nil {
		slog.Error("failed to send queue empty notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackFinished(event PlaybackFinishedEvent) {
	// Delete the "Now Playing" message if it exists
	if event.LastMessageID == nil {
		return
	}

	slog.Debug("deleting now playing message",
		"guild", event.GuildID,
		"message_id", *event.LastMessageID,
	)

	if err := h.notifier.DeleteMessage(
		event.NotificationChannelID,
		*event.LastMessageID,
	); err != nil {
		slog.Warn("failed to delete now playing message",
			"guild", event.GuildID,
			"error", err,
		)
	}

	// Only clear the message info if it matches the one we just deleted.
	// This prevents a race condition where a new track's message info
	// could be cleared if events are processed out of order.
	state := h.repo.Get(event.GuildID)
	if state != nil {
		currentMsg := state.GetNowPlayingMessage()
		if currentMsg != nil && currentMsg.MessageID == *event.LastMessageID {
			state.SetNowPlayingMessage(nil)
		}
	}
}

func (h *NotificationEventHandler) handleProgressUpdated(event ProgressUpdatedEvent) {
	state := h.repo.Get(event.GuildID)
	if state == nil {
		return
	}
	msg := state.GetNowPlayingMessage()
	if msg == nil {
		return
	}

	err := h.notifier.UpdateNowPlaying(msg.ChannelID, msg.MessageID, &ports.NowPlayingInfo{
		GuildID:        event.GuildID,
		Identifier:     string(event.Track.ID),
		Title:          event.Track.Title,
		Artist:         event.Track.Artist,
		Duration:       event.Track.FormattedDuration(),
		ElapsedSeconds: event.ElapsedSeconds,
		Paused:         event.Paused,
		LoopMode:       event.LoopMode.String(),
		URI:            event.Track.CanonicalURL,
		ArtworkURL:     event.Track.ThumbnailURL,
		SourceName:     string(event.Track.Source),
	})
	if err != nil {
		slog.Debug("failed to update now playing message",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleImportProgress(event ImportProgressEvent) {
	err := h.notifier.SendImportProgress(event.NotificationChannelID, &ports.ImportProgressInfo{
		SourceName: event.SourceName,
		Processed:  event.Processed,
		Total:      event.Total,
		Added:      event.Added,
		Failed:     event.Failed,
		Done:       event.Done,
	})
	if err != nil {
		slog.Error("failed to send import progress notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}
