package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// QueueEntry represents a track's placement in a guild's queue,
// associating the track with who requested it and where it sits.
// Positions are strictly increasing per guild and never reused, so
// entry ordering stays stable under concurrent enqueues.
type QueueEntry struct {
	ID          int64
	GuildID     snowflake.ID
	Track       Track
	Position    int64
	RequesterID snowflake.ID
	AddedAt     time.Time
}

// NewQueueEntry creates an unpositioned QueueEntry; the queue store
// assigns ID and Position on insert.
func NewQueueEntry(guildID snowflake.ID, track Track, requesterID snowflake.ID) QueueEntry {
	return QueueEntry{
		GuildID:     guildID,
		Track:       track,
		RequesterID: requesterID,
		AddedAt:     time.Now().UTC(),
	}
}
