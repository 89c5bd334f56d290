package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// TrackEndCallback is invoked by the transport when the attached stream
// ends. It runs on the transport's goroutine; implementations must hand
// off to the guild's dispatcher instead of doing work inline.
type TrackEndCallback func(guildID snowflake.ID, reason domain.TrackEndReason)

// VoiceTransport defines the interface for voice channel connection and
// stream playback. The transport knows nothing about queues or tracks;
// it plays whatever stream address it is handed.
type VoiceTransport interface {
	// JoinChannel connects the bot to the specified voice channel.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects the bot from the voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error

	// AttachStream starts playing the given stream address.
	AttachStream(ctx context.Context, guildID snowflake.ID, streamAddress string) error

	// Stop stops the current stream.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Pause pauses the current stream.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused stream.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// SetTrackEndCallback registers the callback invoked on stream end.
	SetTrackEndCallback(callback TrackEndCallback)
}
