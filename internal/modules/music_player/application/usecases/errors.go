package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNoResults is returned when a query resolves to no playable track.
	ErrNoResults = errors.New("no results found")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrNothingToClear is returned when there are no queued tracks to clear.
	ErrNothingToClear = errors.New("nothing to clear")

	// ErrInvalidPosition is returned when an invalid queue position is specified.
	ErrInvalidPosition = errors.New("invalid queue position")

	// ErrRestrictionBlocked is returned when a track is known to be
	// unplayable before it reaches the queue. The wrapped message carries
	// the user-facing explanation.
	ErrRestrictionBlocked = errors.New("track is restricted")

	// ErrResolutionFailed is returned when a queued track cannot be
	// resolved to a playable stream at playback time.
	ErrResolutionFailed = errors.New("failed to resolve audio source")

	// ErrPlaylistQuery is returned when a playlist or album link is passed
	// to the single-track enqueue path. Callers should use import instead.
	ErrPlaylistQuery = errors.New("playlist and album links must be imported")

	// ErrMetadataUnavailable is returned when a query requires the
	// metadata catalog but none is configured.
	ErrMetadataUnavailable = errors.New("metadata lookups are not configured")

	// ErrSkipTimeout is returned when a skip was issued but neither the
	// next track nor an idle state was observed within the wait window.
	ErrSkipTimeout = errors.New("timed out waiting for the next track")
)
