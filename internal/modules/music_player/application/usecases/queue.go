package usecases

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID               snowflake.ID
	Page                  int          // 1-indexed page number
	PageSize              int          // Items per page (optional, defaults to 10)
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	CurrentTrack *domain.Track // nil when idle
	Entries      []domain.QueueEntry
	TotalEntries int
	CurrentPage  int
	TotalPages   int
}

// QueueRemoveInput contains the input for the QueueRemove use case.
type QueueRemoveInput struct {
	GuildID               snowflake.ID
	Position              int          // 1-indexed position among queued entries
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueRemoveOutput contains the result of the QueueRemove use case.
type QueueRemoveOutput struct {
	RemovedEntry domain.QueueEntry
}

// QueueClearInput contains the input for the QueueClear use case.
type QueueClearInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueClearOutput contains the result of the QueueClear use case.
type QueueClearOutput struct {
	Removed int
}

// QueueService exposes read and edit operations on the persistent queue.
// The currently playing track lives in the player state, not the store,
// so it is never listed as a queued entry.
type QueueService struct {
	repo       domain.PlayerStateRepository
	store      ports.QueueStore
	dispatcher *GuildDispatcher
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	repo domain.PlayerStateRepository,
	store ports.QueueStore,
	dispatcher *GuildDispatcher,
) *QueueService {
	return &QueueService{
		repo:       repo,
		store:      store,
		dispatcher: dispatcher,
	}
}

// List returns one page of the guild's queue along with the current track.
func (s *QueueService) List(ctx context.Context, input QueueListInput) (*QueueListOutput, error) {
	var output *QueueListOutput
	err := s.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := s.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}

		entries, err := s.store.List(ctx, input.GuildID)
		if err != nil {
			return fmt.Errorf("listing queue: %w", err)
		}

		currentTrack := state.CurrentTrack()
		if len(entries) == 0 && currentTrack == nil {
			return ErrQueueEmpty
		}

		pageSize := input.PageSize
		if pageSize <= 0 {
			pageSize = DefaultPageSize
		}

		totalPages := (len(entries) + pageSize - 1) / pageSize
		if totalPages == 0 {
			totalPages = 1
		}

		page := input.Page
		if page < 1 {
			page = 1
		}
		if page > totalPages {
			page = totalPages
		}

		start := (page - 1) * pageSize
		end := min(start+pageSize, len(entries))

		output = &QueueListOutput{
			CurrentTrack: currentTrack,
			Entries:      entries[start:end],
			TotalEntries: len(entries),
			CurrentPage:  page,
			TotalPages:   totalPages,
		}
		return nil
	})
	return output, err
}

// Remove deletes the entry at the given 1-indexed queue position.
// The currently playing track is not part of the queue; skipping it is
// the Skip use case's job.
func (s *QueueService) Remove(ctx context.Context, input QueueRemoveInput) (*QueueRemoveOutput, error) {
	var output *QueueRemoveOutput
	err := s.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := s.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}

		entries, err := s.store.List(ctx, input.GuildID)
		if err != nil {
			return fmt.Errorf("listing queue: %w", err)
		}

		if input.Position < 1 || input.Position > len(entries) {
			return ErrInvalidPosition
		}

		entry := entries[input.Position-1]
		if err := s.store.Remove(ctx, input.GuildID, entry.ID); err != nil {
			return fmt.Errorf("removing queue entry: %w", err)
		}

		output = &QueueRemoveOutput{RemovedEntry: entry}
		return nil
	})
	return output, err
}

// Clear removes all queued entries. The current track keeps playing.
func (s *QueueService) Clear(ctx context.Context, input QueueClearInput) (*QueueClearOutput, error) {
	var output *QueueClearOutput
	err := s.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := s.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}

		removed, err := s.store.Clear(ctx, input.GuildID)
		if err != nil {
			return fmt.Errorf("clearing queue: %w", err)
		}
		if removed == 0 {
			return ErrNothingToClear
		}

		output = &QueueClearOutput{Removed: removed}
		return nil
	})
	return output, err
}
