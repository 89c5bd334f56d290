package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const (
	// maxAdvanceRetries bounds consecutive playback failures before the
	// orchestrator gives up on the queue and goes idle.
	maxAdvanceRetries = 5

	// maxTrackLoopReplays bounds replay attempts of a failing track under
	// LoopModeTrack before falling through to the next entry.
	maxTrackLoopReplays = 3

	// searchLimit is the number of candidates fetched per search query.
	searchLimit = 5

	skipWaitTimeout  = 3 * time.Second
	skipPollInterval = 100 * time.Millisecond
)

// PlaybackOrchestrator coordinates query resolution, the persistent queue,
// the voice transport, and per-guild player state. All state mutations run
// on the guild's dispatcher worker.
type PlaybackOrchestrator struct {
	repo        domain.PlayerStateRepository
	queue       ports.QueueStore
	snapshots   ports.SessionSnapshotStore // Optional
	catalog     ports.AudioCatalog
	metadata    ports.MetadataCatalog // Optional; nil disables metadata-backed queries
	transport   ports.VoiceTransport
	voiceStates ports.VoiceStateProvider
	publisher   ports.EventPublisher
	dispatcher  *GuildDispatcher
	progress    *ProgressTracker // Optional
}

// NewPlaybackOrchestrator creates a new PlaybackOrchestrator.
func NewPlaybackOrchestrator(
	repo domain.PlayerStateRepository,
	queue ports.QueueStore,
	snapshots ports.SessionSnapshotStore,
	catalog ports.AudioCatalog,
	metadata ports.MetadataCatalog,
	transport ports.VoiceTransport,
	voiceStates ports.VoiceStateProvider,
	publisher ports.EventPublisher,
	dispatcher *GuildDispatcher,
	progress *ProgressTracker,
) *PlaybackOrchestrator {
	return &PlaybackOrchestrator{
		repo:        repo,
		queue:       queue,
		snapshots:   snapshots,
		catalog:     catalog,
		metadata:    metadata,
		transport:   transport,
		voiceStates: voiceStates,
		publisher:   publisher,
		dispatcher:  dispatcher,
		progress:    progress,
	}
}

// ConnectInput contains the input for the Connect use case.
type ConnectInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: overrides the user's current channel
}

// ConnectOutput contains the result of the Connect use case.
type ConnectOutput struct {
	VoiceChannelID snowflake.ID
}

// Connect joins the requesting user's voice channel (or an explicitly
// chosen one) and creates the guild's session if it does not exist yet.
func (o *PlaybackOrchestrator) Connect(ctx context.Context, input ConnectInput) (*ConnectOutput, error) {
	channelID := input.VoiceChannelID
	if channelID == 0 {
		var err error
		channelID, err = o.voiceStates.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("looking up user voice state: %w", err)
		}
		if channelID == 0 {
			return nil, ErrUserNotInVoice
		}
	}

	var output *ConnectOutput
	err := o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		if err := o.transport.JoinChannel(ctx, input.GuildID, channelID); err != nil {
			return fmt.Errorf("joining voice channel: %w", err)
		}

		state := o.repo.Get(input.GuildID)
		if state == nil {
			state = domain.NewPlayerState(input.GuildID, channelID, input.NotificationChannelID)
		} else {
			state.SetVoiceChannelID(channelID)
			if input.NotificationChannelID != 0 {
				state.SetNotificationChannelID(input.NotificationChannelID)
			}
		}
		o.repo.Save(state)
		o.saveSnapshot(ctx, state)

		output = &ConnectOutput{VoiceChannelID: channelID}
		return nil
	})
	return output, err
}

// DisconnectInput contains the input for the Disconnect use case.
type DisconnectInput struct {
	GuildID snowflake.ID
}

// Disconnect leaves the voice channel and tears down the guild's session.
// The session is removed even if the transport fails to disconnect, so a
// broken connection never wedges the guild.
func (o *PlaybackOrchestrator) Disconnect(ctx context.Context, input DisconnectInput) error {
	err := o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}

		o.finishPlayback(state)
		leaveErr := o.transport.LeaveChannel(ctx, input.GuildID)

		o.repo.Delete(input.GuildID)
		o.deleteSnapshot(ctx, input.GuildID)

		if leaveErr != nil {
			return fmt.Errorf("leaving voice channel: %w", leaveErr)
		}
		return nil
	})

	o.dispatcher.Remove(input.GuildID)
	return err
}

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	Query                 string
	NotificationChannelID snowflake.ID
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Entry    domain.QueueEntry
	Position int // Number of queued entries including this one
	WasIdle  bool
}

// Enqueue resolves a query to a single track, appends it to the guild's
// queue, and starts playback if the guild was idle. The bot joins the
// user's voice channel first if it is not connected.
func (o *PlaybackOrchestrator) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	info := domain.Classify(input.Query)
	if info.Kind == domain.QuerySpotifyPlaylist || info.Kind == domain.QuerySpotifyAlbum {
		return nil, ErrPlaylistQuery
	}

	if err := o.ensureSession(ctx, input.GuildID, input.UserID, input.NotificationChannelID); err != nil {
		return nil, err
	}

	track, err := o.resolveQuery(ctx, info)
	if err != nil {
		return nil, err
	}

	return o.addTrack(ctx, input.GuildID, track, input.UserID, input.NotificationChannelID, true)
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.Track
	NextTrack    *domain.Track // nil when the queue ran out
}

// Skip stops the current track and waits for the queue to either start
// the next entry or settle idle. The skip flag distinguishes this stop
// from a deliberate one when the transport reports the track end.
func (o *PlaybackOrchestrator) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	var skippedTrack *domain.Track
	var skippedEntry *domain.QueueEntry

	err := o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}
		if !state.IsPlaybackActive() {
			return ErrNotPlaying
		}

		skippedEntry = state.CurrentEntry()
		track := *state.CurrentTrack()
		skippedTrack = &track

		state.RequestSkip()
		if err := o.transport.Stop(ctx, input.GuildID); err != nil {
			return fmt.Errorf("stopping transport: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The transport reports the end asynchronously; poll until the next
	// track started or the session settled idle.
	deadline := time.Now().Add(skipWaitTimeout)
	for {
		var current *domain.QueueEntry
		var next *domain.Track
		gone := false

		_ = o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
			state := o.repo.Get(input.GuildID)
			if state == nil {
				gone = true
				return nil
			}
			current = state.CurrentEntry()
			next = state.CurrentTrack()
			return nil
		})

		switch {
		case gone, current == nil:
			// The end handler ran and the session settled idle. The
			// skipped entry is still current until then, so a nil entry
			// is unambiguous.
			return &SkipOutput{SkippedTrack: skippedTrack}, nil
		case current != skippedEntry:
			return &SkipOutput{SkippedTrack: skippedTrack, NextTrack: next}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrSkipTimeout
		}
		time.Sleep(skipPollInterval)
	}
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// Stop halts playback and clears the queue. State is reset even when the
// transport fails, so the guild never gets stuck in a phantom-playing
// state.
func (o *PlaybackOrchestrator) Stop(ctx context.Context, input StopInput) error {
	return o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}
		if !state.IsPlaybackActive() {
			return ErrNotPlaying
		}

		o.finishPlayback(state)

		if _, err := o.queue.Clear(ctx, input.GuildID); err != nil {
			slog.Error("failed to clear queue on stop",
				"guild", input.GuildID,
				"error", err,
			)
		}

		if err := o.transport.Stop(ctx, input.GuildID); err != nil {
			return fmt.Errorf("stopping transport: %w", err)
		}
		return nil
	})
}

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// Pause pauses the current track. Pausing an already-paused session
// succeeds without touching the transport.
func (o *PlaybackOrchestrator) Pause(ctx context.Context, input PauseInput) error {
	return o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}
		if !state.IsPlaybackActive() {
			return ErrNotPlaying
		}
		if state.IsPaused() {
			return nil
		}

		if err := o.transport.Pause(ctx, input.GuildID); err != nil {
			return fmt.Errorf("pausing transport: %w", err)
		}
		state.SetPaused(true)
		return nil
	})
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// Resume resumes a paused track. Resuming a session that is not paused
// succeeds without touching the transport.
func (o *PlaybackOrchestrator) Resume(ctx context.Context, input ResumeInput) error {
	return o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}
		if !state.IsPlaybackActive() {
			return ErrNotPlaying
		}
		if !state.IsPaused() {
			return nil
		}

		if err := o.transport.Resume(ctx, input.GuildID); err != nil {
			return fmt.Errorf("resuming transport: %w", err)
		}
		state.SetPaused(false)
		return nil
	})
}

// LoopInput contains the input for the Loop use case.
type LoopInput struct {
	GuildID               snowflake.ID
	Mode                  *domain.LoopMode // nil cycles None -> Track -> Queue -> None
	NotificationChannelID snowflake.ID
}

// LoopOutput contains the result of the Loop use case.
type LoopOutput struct {
	Mode domain.LoopMode
}

// Loop sets or cycles the guild's loop mode.
func (o *PlaybackOrchestrator) Loop(ctx context.Context, input LoopInput) (*LoopOutput, error) {
	var output *LoopOutput
	err := o.dispatcher.Do(input.GuildID, func(ctx context.Context) error {
		state := o.repo.Get(input.GuildID)
		if state == nil {
			return ErrNotConnected
		}
		if input.NotificationChannelID != 0 {
			state.SetNotificationChannelID(input.NotificationChannelID)
		}

		var mode domain.LoopMode
		if input.Mode != nil {
			state.SetLoopMode(*input.Mode)
			mode = *input.Mode
		} else {
			mode = state.CycleLoopMode()
		}
		o.saveSnapshot(ctx, state)

		output = &LoopOutput{Mode: mode}
		return nil
	})
	return output, err
}

// HandleTrackEnd is the transport's end-of-track callback. It runs on the
// transport's goroutine, so it only hands the event to the guild worker.
func (o *PlaybackOrchestrator) HandleTrackEnd(guildID snowflake.ID, reason domain.TrackEndReason) {
	o.dispatcher.Submit(guildID, func(ctx context.Context) error {
		o.handleTrackEnd(ctx, guildID, reason)
		return nil
	})
}

// HandleBotVoiceStateChange reacts to the bot being moved or disconnected
// through the gateway. A zero channel ID means the bot left the channel,
// which tears down the session.
func (o *PlaybackOrchestrator) HandleBotVoiceStateChange(guildID, channelID snowflake.ID) {
	o.dispatcher.Submit(guildID, func(ctx context.Context) error {
		state := o.repo.Get(guildID)
		if state == nil {
			return nil
		}

		if channelID != 0 {
			state.SetVoiceChannelID(channelID)
			o.saveSnapshot(ctx, state)
			return nil
		}

		slog.Info("bot disconnected from voice channel, tearing down session",
			"guild", guildID,
		)
		o.finishPlayback(state)
		o.repo.Delete(guildID)
		o.deleteSnapshot(ctx, guildID)
		return nil
	})
}

// RestoreSessions rejoins the voice channels recorded before the last
// shutdown and resumes playback from the persistent queue.
func (o *PlaybackOrchestrator) RestoreSessions(ctx context.Context) error {
	if o.snapshots == nil {
		return nil
	}

	snapshots, err := o.snapshots.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("listing session snapshots: %w", err)
	}

	for _, snapshot := range snapshots {
		err := o.dispatcher.Do(snapshot.GuildID, func(ctx context.Context) error {
			if err := o.transport.JoinChannel(ctx, snapshot.GuildID, snapshot.VoiceChannelID); err != nil {
				return err
			}

			state := domain.NewPlayerState(
				snapshot.GuildID,
				snapshot.VoiceChannelID,
				snapshot.NotificationChannelID,
			)
			state.SetLoopMode(snapshot.LoopMode)
			o.repo.Save(state)

			o.advance(ctx, snapshot.GuildID, 0)
			return nil
		})
		if err != nil {
			slog.Warn("failed to restore session",
				"guild", snapshot.GuildID,
				"error", err,
			)
			o.deleteSnapshot(ctx, snapshot.GuildID)
		}
	}
	return nil
}

// ensureSession connects to the user's voice channel when the guild has
// no active session yet.
func (o *PlaybackOrchestrator) ensureSession(ctx context.Context, guildID, userID, notificationChannelID snowflake.ID) error {
	connected := false
	_ = o.dispatcher.Do(guildID, func(ctx context.Context) error {
		connected = o.repo.Get(guildID) != nil
		return nil
	})
	if connected {
		return nil
	}

	_, err := o.Connect(ctx, ConnectInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: notificationChannelID,
	})
	return err
}

// resolveQuery turns a classified query into a playable track. Runs off
// the dispatcher because resolution hits the network.
func (o *PlaybackOrchestrator) resolveQuery(ctx context.Context, info domain.QueryInfo) (*domain.Track, error) {
	switch info.Kind {
	case domain.QueryYouTubeVideo:
		url := domain.WatchURL(info.ResourceID)

		// Probe before the lookup so restricted tracks are rejected at
		// enqueue time instead of failing mid-queue.
		report := o.catalog.ProbeAvailability(ctx, url)
		if !report.Available {
			return nil, fmt.Errorf("%w: %s", ErrRestrictionBlocked, report.Kind.Message())
		}

		candidate, err := o.catalog.Lookup(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("looking up video: %w", err)
		}
		if candidate == nil {
			return nil, ErrNoResults
		}
		return candidate.ToTrack(domain.TrackSourceYouTube), nil

	case domain.QuerySpotifyTrack:
		if o.metadata == nil {
			return nil, ErrMetadataUnavailable
		}

		meta, err := o.metadata.GetTrack(ctx, info.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("fetching track metadata: %w", err)
		}
		if meta == nil {
			return nil, ErrNoResults
		}

		track := o.resolveMetadataTrack(ctx, meta)
		if track == nil {
			return nil, ErrNoResults
		}
		return track, nil

	default:
		candidates, err := o.catalog.Search(ctx, domain.AugmentQuery(info.Raw), searchLimit)
		if err != nil {
			return nil, fmt.Errorf("searching: %w", err)
		}

		best := domain.SelectBest(candidates, info.Raw)
		if best == nil {
			return nil, ErrNoResults
		}

		// A weak match may just be a badly-titled upload; ask the
		// metadata catalog for the canonical artist and title and
		// search again with those.
		if o.metadata != nil && domain.ScoreCandidate(best, info.Raw) < domain.MusicScoreThreshold {
			meta, err := o.metadata.SearchTrack(ctx, info.Raw)
			if err == nil && meta != nil {
				if track := o.resolveMetadataTrack(ctx, meta); track != nil {
					return track, nil
				}
			}
		}
		return best.ToTrack(domain.TrackSourceYouTube), nil
	}
}

// resolveMetadataTrack finds a playable audio catalog match for a
// metadata-only track. The metadata's artist and title overwrite the
// match's, since the catalog upload may be badly titled.
func (o *PlaybackOrchestrator) resolveMetadataTrack(ctx context.Context, meta *ports.TrackMetadata) *domain.Track {
	query := meta.Artist + " " + meta.Title

	candidates, err := o.catalog.Search(ctx, domain.AugmentQuery(query), searchLimit)
	if err != nil {
		slog.Warn("failed to search audio catalog for metadata track",
			"query", query,
			"error", err,
		)
		return nil
	}

	best := domain.SelectBest(candidates, query)
	if best == nil {
		return nil
	}

	track := best.ToTrack(domain.TrackSourceSpotifyYouTube)
	track.Title = meta.Title
	track.Artist = meta.Artist
	return track
}

// addTrack appends a resolved track to the guild's queue on the worker
// and starts playback if the guild was idle.
func (o *PlaybackOrchestrator) addTrack(
	ctx context.Context,
	guildID snowflake.ID,
	track *domain.Track,
	requesterID snowflake.ID,
	notificationChannelID snowflake.ID,
	announce bool,
) (*EnqueueOutput, error) {
	var output *EnqueueOutput
	err := o.dispatcher.Do(guildID, func(ctx context.Context) error {
		state := o.repo.Get(guildID)
		if state == nil {
			return ErrNotConnected
		}
		if notificationChannelID != 0 {
			state.SetNotificationChannelID(notificationChannelID)
		}

		entry := domain.NewQueueEntry(guildID, *track, requesterID)
		stored, err := o.queue.Enqueue(ctx, entry)
		if err != nil {
			return fmt.Errorf("enqueueing track: %w", err)
		}

		count, err := o.queue.Count(ctx, guildID)
		if err != nil {
			slog.Error("failed to count queue entries", "guild", guildID, "error", err)
			count = 1
		}

		wasIdle := !state.IsPlaybackActive()
		if announce && o.publisher != nil {
			o.publisher.PublishTrackEnqueued(ports.TrackEnqueuedEvent{
				GuildID:               guildID,
				Entry:                 stored,
				QueueLength:           count,
				WasIdle:               wasIdle,
				NotificationChannelID: state.GetNotificationChannelID(),
			})
		}

		if wasIdle {
			o.advance(ctx, guildID, 0)
		}

		output = &EnqueueOutput{Entry: stored, Position: count, WasIdle: wasIdle}
		return nil
	})
	return output, err
}

func (o *PlaybackOrchestrator) handleTrackEnd(ctx context.Context, guildID snowflake.ID, reason domain.TrackEndReason) {
	state := o.repo.Get(guildID)
	if state == nil {
		return
	}

	skipped := state.ConsumeSkip()
	entry := state.CurrentEntry()
	o.stopProgress(guildID)

	initialRetry := 0

	switch reason {
	case domain.TrackEndReplaced, domain.TrackEndCleanup:
		return

	case domain.TrackEndStopped:
		if !skipped {
			// Deliberate stop; Stop already reset the state.
			return
		}
		if entry != nil {
			state.RecordPlayed(*entry)
		}

	case domain.TrackEndFinished:
		if entry != nil {
			if state.GetLoopMode() == domain.LoopModeTrack && !skipped {
				// A complete play resets the replay guard.
				state.ResetTrackLoopAttempts()
				err := o.playEntry(ctx, state, entry)
				if err == nil {
					return
				}
				o.publishTrackFailed(state, &entry.Track, failureMessage(err))
				initialRetry = 1
			} else {
				state.RecordPlayed(*entry)
			}
		}

	case domain.TrackEndLoadFailed:
		if entry != nil {
			if state.GetLoopMode() == domain.LoopModeTrack && !skipped &&
				state.IncrementTrackLoopAttempts() < maxTrackLoopReplays {
				if err := o.playEntry(ctx, state, entry); err == nil {
					return
				}
			}
			o.publishTrackFailed(state, &entry.Track, domain.RestrictionUnknown.Message())
		}
		initialRetry = 1
	}

	state.ClearCurrentTrack()
	o.advance(ctx, guildID, initialRetry)
}

// advance pops and plays the next queue entry. Enqueue-on-idle, track
// end, and skip all converge here; failed entries are discarded, never
// requeued. Runs on the guild worker.
func (o *PlaybackOrchestrator) advance(ctx context.Context, guildID snowflake.ID, retryCount int) {
	rebuilt := false
	for {
		state := o.repo.Get(guildID)
		if state == nil {
			return
		}

		if retryCount >= maxAdvanceRetries {
			slog.Error("giving up on queue after repeated playback failures",
				"guild", guildID,
				"failures", retryCount,
			)
			o.finishPlayback(state)
			return
		}

		entry, err := o.queue.PopNext(ctx, guildID)
		if err != nil {
			slog.Error("failed to pop next queue entry", "guild", guildID, "error", err)
			retryCount++
			continue
		}

		if entry == nil {
			if state.GetLoopMode() == domain.LoopModeQueue && !rebuilt && o.rebuildQueue(ctx, state) {
				rebuilt = true
				continue
			}

			if o.publisher != nil {
				o.publisher.PublishQueueEmpty(ports.QueueEmptyEvent{
					GuildID:               guildID,
					NotificationChannelID: state.GetNotificationChannelID(),
				})
			}
			o.finishPlayback(state)
			return
		}

		if err := o.playEntry(ctx, state, entry); err != nil {
			slog.Warn("failed to start queued track",
				"guild", guildID,
				"track", entry.Track.Title,
				"error", err,
			)
			o.publishTrackFailed(state, &entry.Track, failureMessage(err))
			retryCount++
			continue
		}
		return
	}
}

// rebuildQueue re-enqueues the played history in play order. Used under
// LoopModeQueue when the queue runs out.
func (o *PlaybackOrchestrator) rebuildQueue(ctx context.Context, state *domain.PlayerState) bool {
	history := state.DrainHistory()
	if len(history) == 0 {
		return false
	}

	requeued := 0
	for _, played := range history {
		entry := domain.NewQueueEntry(state.GetGuildID(), played.Track, played.RequesterID)
		if _, err := o.queue.Enqueue(ctx, entry); err != nil {
			slog.Error("failed to requeue played track",
				"guild", state.GetGuildID(),
				"track", played.Track.Title,
				"error", err,
			)
			continue
		}
		requeued++
	}

	slog.Debug("rebuilt queue from played history",
		"guild", state.GetGuildID(),
		"entries", requeued,
	)
	return requeued > 0
}

// playEntry resolves the entry's stream, attaches it to the transport,
// and marks it current.
func (o *PlaybackOrchestrator) playEntry(ctx context.Context, state *domain.PlayerState, entry *domain.QueueEntry) error {
	guildID := state.GetGuildID()

	streamURL, err := o.catalog.ResolveAudioSource(ctx, entry.Track.CanonicalURL)
	if err != nil {
		var restriction *domain.RestrictionError
		if errors.As(err, &restriction) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	if err := o.transport.AttachStream(ctx, guildID, streamURL); err != nil {
		return fmt.Errorf("attaching stream: %w", err)
	}

	if state.CurrentEntry() != entry {
		state.ResetTrackLoopAttempts()
	}
	state.SetCurrentEntry(entry)

	if o.publisher != nil {
		o.publisher.PublishTrackStarted(ports.TrackStartedEvent{
			GuildID:               guildID,
			Track:                 &entry.Track,
			RequesterID:           entry.RequesterID,
			NotificationChannelID: state.GetNotificationChannelID(),
		})
	}
	o.startProgress(guildID)
	return nil
}

// finishPlayback clears track-scoped state and tells the notification
// sink to retire the "Now Playing" message.
func (o *PlaybackOrchestrator) finishPlayback(state *domain.PlayerState) {
	o.stopProgress(state.GetGuildID())

	channelID := state.GetNotificationChannelID()
	var lastMessageID *snowflake.ID
	if msg := state.GetNowPlayingMessage(); msg != nil {
		channelID = msg.ChannelID
		id := msg.MessageID
		lastMessageID = &id
	}

	if o.publisher != nil {
		o.publisher.PublishPlaybackFinished(ports.PlaybackFinishedEvent{
			GuildID:               state.GetGuildID(),
			NotificationChannelID: channelID,
			LastMessageID:         lastMessageID,
		})
	}
	state.ClearCurrentTrack()
}

func (o *PlaybackOrchestrator) publishTrackFailed(state *domain.PlayerState, track *domain.Track, reason string) {
	if o.publisher == nil {
		return
	}
	o.publisher.PublishTrackFailed(ports.TrackFailedEvent{
		GuildID:               state.GetGuildID(),
		Track:                 track,
		Reason:                reason,
		NotificationChannelID: state.GetNotificationChannelID(),
	})
}

func (o *PlaybackOrchestrator) startProgress(guildID snowflake.ID) {
	if o.progress != nil {
		o.progress.Start(guildID)
	}
}

func (o *PlaybackOrchestrator) stopProgress(guildID snowflake.ID) {
	if o.progress != nil {
		o.progress.Stop(guildID)
	}
}

func (o *PlaybackOrchestrator) saveSnapshot(ctx context.Context, state *domain.PlayerState) {
	if o.snapshots == nil {
		return
	}
	err := o.snapshots.SaveSnapshot(ctx, ports.SessionSnapshot{
		GuildID:               state.GetGuildID(),
		VoiceChannelID:        state.GetVoiceChannelID(),
		NotificationChannelID: state.GetNotificationChannelID(),
		LoopMode:              state.GetLoopMode(),
	})
	if err != nil {
		slog.Error("failed to save session snapshot",
			"guild", state.GetGuildID(),
			"error", err,
		)
	}
}

func (o *PlaybackOrchestrator) deleteSnapshot(ctx context.Context, guildID snowflake.ID) {
	if o.snapshots == nil {
		return
	}
	if err := o.snapshots.DeleteSnapshot(ctx, guildID); err != nil {
		slog.Error("failed to delete session snapshot",
			"guild", guildID,
			"error", err,
		)
	}
}

// failureMessage maps a playback error to a user-facing reason.
func failureMessage(err error) string {
	var restriction *domain.RestrictionError
	if errors.As(err, &restriction) {
		return restriction.Report.Kind.Message()
	}
	if errors.Is(err, ErrResolutionFailed) {
		return "The audio source could not be resolved."
	}
	return "Playback failed unexpectedly."
}
