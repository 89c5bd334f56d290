package domain

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// NowPlayingMessage stores the channel and message ID for a "Now Playing" message.
// Both values are needed for deletion since the message may be in a different channel
// than the current notification channel if the user switched channels while playing.
type NowPlayingMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

func NewNowPlayingMessage(channelID snowflake.ID, messageID snowflake.ID) NowPlayingMessage {
	return NowPlayingMessage{
		ChannelID: channelID,
		MessageID: messageID,
	}
}

// PlayerState represents the live playback state of a guild's session.
// Orchestration mutates it from the guild's serialized dispatcher, but
// the notification goroutines read the current track and update the
// now-playing message bookkeeping concurrently, so every field is
// guarded by an internal mutex.
type PlayerState struct {
	mu sync.RWMutex

	guildID               snowflake.ID
	voiceChannelID        snowflake.ID       // Voice channel the bot is connected to
	notificationChannelID snowflake.ID       // Text channel for notifications
	nowPlayingMessage     *NowPlayingMessage // "Now Playing" message info (for deletion)
	currentEntry          *QueueEntry
	startedAt             time.Time
	isPaused              bool
	loopMode              LoopMode
	trackLoopAttempts     int          // Consecutive replays of the current track under LoopModeTrack
	skipRequested         bool         // Set before stopping the transport to distinguish skip from stop
	history               []QueueEntry // Played entries, kept for queue-loop rebuild
}

// NewPlayerState creates a new PlayerState for the given guild and channels.
func NewPlayerState(guildID, voiceChannelID, notificationChannelID snowflake.ID) *PlayerState {
	return &PlayerState{
		guildID:               guildID,
		voiceChannelID:        voiceChannelID,
		notificationChannelID: notificationChannelID,
		loopMode:              LoopModeNone,
	}
}

// GetGuildID returns the guild ID.
func (p *PlayerState) GetGuildID() snowflake.ID {
	// guildID must not be modified after initialization
	return p.guildID
}

// GetVoiceChannelID returns the current voice channel ID.
func (p *PlayerState) GetVoiceChannelID() snowflake.ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.voiceChannelID
}

// SetVoiceChannelID updates the voice channel ID.
func (p *PlayerState) SetVoiceChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceChannelID = channelID
}

// GetNotificationChannelID returns the current notification channel ID.
func (p *PlayerState) GetNotificationChannelID() snowflake.ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notificationChannelID
}

// SetNotificationChannelID updates the notification channel ID.
func (p *PlayerState) SetNotificationChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notificationChannelID = channelID
}

// CurrentEntry returns the queue entry currently playing, or nil when idle.
func (p *PlayerState) CurrentEntry() *QueueEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentEntry
}

// CurrentTrack returns the currently playing track, or nil when idle.
func (p *PlayerState) CurrentTrack() *Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.currentEntry == nil {
		return nil
	}
	track := p.currentEntry.Track
	return &track
}

// IsPlaybackActive returns true if a track is currently attached.
func (p *PlayerState) IsPlaybackActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentEntry != nil
}

// SetCurrentEntry marks a queue entry as playing from now.
func (p *PlayerState) SetCurrentEntry(entry *QueueEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentEntry = entry
	p.startedAt = time.Now().UTC()
	p.isPaused = false
}

// ClearCurrentTrack resets all track-scoped state. Called on stop and on
// track end regardless of whether the transport succeeded.
func (p *PlayerState) ClearCurrentTrack() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentEntry = nil
	p.startedAt = time.Time{}
	p.isPaused = false
	p.skipRequested = false
}

// ElapsedSeconds returns seconds since the current track started, or 0
// when idle or paused.
func (p *PlayerState) ElapsedSeconds() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.currentEntry == nil || p.isPaused || p.startedAt.IsZero() {
		return 0
	}
	return int(time.Since(p.startedAt).Seconds())
}

// IsPaused returns true if playback is paused.
func (p *PlayerState) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPaused
}

// SetPaused sets the paused state.
func (p *PlayerState) SetPaused(isPaused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isPaused = isPaused
}

func (p *PlayerState) TogglePaused() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isPaused = !p.isPaused
}

// GetLoopMode returns the current loop mode.
func (p *PlayerState) GetLoopMode() LoopMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loopMode
}

// SetLoopMode sets the loop mode.
func (p *PlayerState) SetLoopMode(mode LoopMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopMode = mode
}

// CycleLoopMode cycles through loop modes: None -> Track -> Queue -> None.
// Returns the new loop mode.
func (p *PlayerState) CycleLoopMode() LoopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.loopMode {
	case LoopModeNone:
		p.loopMode = LoopModeTrack
	case LoopModeTrack:
		p.loopMode = LoopModeQueue
	case LoopModeQueue:
		p.loopMode = LoopModeNone
	}
	return p.loopMode
}

// RequestSkip marks the upcoming transport stop as a skip, so the end
// handler advances instead of staying idle.
func (p *PlayerState) RequestSkip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipRequested = true
}

// ConsumeSkip reports and clears the pending skip flag.
func (p *PlayerState) ConsumeSkip() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	requested := p.skipRequested
	p.skipRequested = false
	return requested
}

// TrackLoopAttempts returns the consecutive replay count of the current track.
func (p *PlayerState) TrackLoopAttempts() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trackLoopAttempts
}

// IncrementTrackLoopAttempts bumps the replay counter and returns the new value.
func (p *PlayerState) IncrementTrackLoopAttempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackLoopAttempts++
	return p.trackLoopAttempts
}

// ResetTrackLoopAttempts clears the replay counter. Called when a
// different track starts.
func (p *PlayerState) ResetTrackLoopAttempts() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackLoopAttempts = 0
}

// RecordPlayed appends an entry to the played history.
func (p *PlayerState) RecordPlayed(entry QueueEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, entry)
}

// PlayedHistory returns a copy of the played entries in play order.
func (p *PlayerState) PlayedHistory() []QueueEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	history := make([]QueueEntry, len(p.history))
	copy(history, p.history)
	return history
}

// DrainHistory returns the played entries in play order and clears the
// history. Used to rebuild the queue under LoopModeQueue.
func (p *PlayerState) DrainHistory() []QueueEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	history := p.history
	p.history = nil
	return history
}

// GetNowPlayingMessage returns a copy of the "Now Playing" message info.
func (p *PlayerState) GetNowPlayingMessage() *NowPlayingMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.nowPlayingMessage == nil {
		return nil
	}
	return &NowPlayingMessage{
		ChannelID: p.nowPlayingMessage.ChannelID,
		MessageID: p.nowPlayingMessage.MessageID,
	}
}

// SetNowPlayingMessage stores the "Now Playing" message info for later deletion.
// Passing nil clears it.
func (p *PlayerState) SetNowPlayingMessage(msg *NowPlayingMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg == nil {
		p.nowPlayingMessage = nil
		return
	}
	stored := *msg
	p.nowPlayingMessage = &stored
}
