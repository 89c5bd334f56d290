package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// progressInterval is how often the "Now Playing" message is refreshed.
const progressInterval = 3 * time.Second

// ProgressTracker publishes periodic progress events for playing guilds.
// Each guild gets one ticker goroutine; starting a new one supersedes the
// previous, and a tracker stops itself once the guild goes idle.
type ProgressTracker struct {
	repo       domain.PlayerStateRepository
	publisher  ports.EventPublisher
	dispatcher *GuildDispatcher

	mu       sync.Mutex
	trackers map[snowflake.ID]chan struct{}
	interval time.Duration
}

// NewProgressTracker creates a new ProgressTracker.
func NewProgressTracker(
	repo domain.PlayerStateRepository,
	publisher ports.EventPublisher,
	dispatcher *GuildDispatcher,
) *ProgressTracker {
	return &ProgressTracker{
		repo:       repo,
		publisher:  publisher,
		dispatcher: dispatcher,
		trackers:   make(map[snowflake.ID]chan struct{}),
		interval:   progressInterval,
	}
}

// Start begins progress reporting for the guild, superseding any
// previous tracker.
func (t *ProgressTracker) Start(guildID snowflake.ID) {
	stop := make(chan struct{})

	t.mu.Lock()
	if prev, ok := t.trackers[guildID]; ok {
		close(prev)
	}
	t.trackers[guildID] = stop
	t.mu.Unlock()

	go t.run(guildID, stop)
}

// Stop ends progress reporting for the guild.
func (t *ProgressTracker) Stop(guildID snowflake.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stop, ok := t.trackers[guildID]; ok {
		close(stop)
		delete(t.trackers, guildID)
	}
}

// StopAll ends progress reporting for every guild.
func (t *ProgressTracker) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for guildID, stop := range t.trackers {
		close(stop)
		delete(t.trackers, guildID)
	}
}

func (t *ProgressTracker) run(guildID snowflake.ID, stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		var event *ports.ProgressUpdatedEvent
		err := t.dispatcher.Do(guildID, func(ctx context.Context) error {
			state := t.repo.Get(guildID)
			if state == nil || !state.IsPlaybackActive() {
				return ErrNotPlaying
			}

			track := *state.CurrentTrack()
			event = &ports.ProgressUpdatedEvent{
				GuildID:               guildID,
				Track:                 &track,
				ElapsedSeconds:        state.ElapsedSeconds(),
				Paused:                state.IsPaused(),
				LoopMode:              state.GetLoopMode(),
				NotificationChannelID: state.GetNotificationChannelID(),
			}
			return nil
		})
		if err != nil {
			// Idle or torn down; this tracker is done.
			t.remove(guildID, stop)
			return
		}

		t.publisher.PublishProgressUpdated(*event)
	}
}

func (t *ProgressTracker) remove(guildID snowflake.ID, stop chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.trackers[guildID] == stop {
		delete(t.trackers, guildID)
	}
}
