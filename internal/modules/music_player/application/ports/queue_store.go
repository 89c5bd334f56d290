package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// QueueStore defines the interface for the persistent per-guild queue.
// Positions are assigned by the store, strictly increasing per guild,
// and never reused even after removals.
type QueueStore interface {
	// Enqueue appends the entry to the guild's queue and returns it with
	// ID and Position assigned.
	Enqueue(ctx context.Context, entry domain.QueueEntry) (domain.QueueEntry, error)

	// PeekNext returns the lowest-position entry without removing it,
	// or nil when the queue is empty.
	PeekNext(ctx context.Context, guildID snowflake.ID) (*domain.QueueEntry, error)

	// PopNext removes and returns the lowest-position entry, or nil when
	// the queue is empty.
	PopNext(ctx context.Context, guildID snowflake.ID) (*domain.QueueEntry, error)

	// Remove deletes the entry with the given ID from the guild's queue.
	Remove(ctx context.Context, guildID snowflake.ID, entryID int64) error

	// Clear removes all entries for the guild and returns how many were removed.
	Clear(ctx context.Context, guildID snowflake.ID) (int, error)

	// List returns all entries for the guild in position order.
	List(ctx context.Context, guildID snowflake.ID) ([]domain.QueueEntry, error)

	// Count returns the number of queued entries for the guild.
	Count(ctx context.Context, guildID snowflake.ID) (int, error)
}

// SessionSnapshot is the durable subset of a guild session, persisted so
// queues survive restarts.
type SessionSnapshot struct {
	GuildID               snowflake.ID
	VoiceChannelID        snowflake.ID
	NotificationChannelID snowflake.ID
	LoopMode              domain.LoopMode
}

// SessionSnapshotStore persists session snapshots alongside the queue.
type SessionSnapshotStore interface {
	// SaveSnapshot inserts or updates the guild's snapshot.
	SaveSnapshot(ctx context.Context, snapshot SessionSnapshot) error

	// DeleteSnapshot removes the guild's snapshot.
	DeleteSnapshot(ctx context.Context, guildID snowflake.ID) error

	// ListSnapshots returns all persisted snapshots.
	ListSnapshots(ctx context.Context) ([]SessionSnapshot, error)
}
