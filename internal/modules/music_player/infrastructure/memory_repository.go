package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// MemoryRepository is an in-memory implementation of PlayerStateRepository.
// States are held by pointer: all mutation happens on the guild's
// dispatcher worker, so the repository only guards the map itself.
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[snowflake.ID]*domain.PlayerState
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states: make(map[snowflake.ID]*domain.PlayerState),
	}
}

// Get returns the PlayerState for the given guild, or nil if none exists.
func (r *MemoryRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.states[guildID]
}

// Save stores the PlayerState.
func (r *MemoryRepository) Save(state *domain.PlayerState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.GetGuildID()] = state
}

// Delete removes the PlayerState for the given guild.
func (r *MemoryRepository) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, guildID)
}

// GuildIDs returns the guilds that currently have a state.
func (r *MemoryRepository) GuildIDs() []snowflake.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]snowflake.ID, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of player states (for testing/monitoring).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}

// Ensure MemoryRepository implements PlayerStateRepository.
var _ domain.PlayerStateRepository = (*MemoryRepository)(nil)
