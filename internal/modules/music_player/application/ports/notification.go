package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NowPlayingInfo contains information for the "Now Playing" notification.
type NowPlayingInfo struct {
	GuildID        snowflake.ID
	Identifier     string // Unique identifier (e.g., YouTube video ID)
	Title          string
	Artist         string
	Duration       string
	ElapsedSeconds int
	Paused         bool
	LoopMode       string
	URI            string
	ArtworkURL     string
	SourceName     string // e.g., "youtube", "spotify_youtube"
	RequesterID    snowflake.ID
}

// QueueAddedInfo contains information for the "Added to Queue" notification.
type QueueAddedInfo struct {
	Title       string
	Artist      string
	Duration    string
	URI         string
	ArtworkURL  string
	Position    int
	RequesterID snowflake.ID
}

// ImportProgressInfo contains information for playlist import progress.
type ImportProgressInfo struct {
	SourceName string
	Processed  int
	Total      int
	Added      int
	Failed     int
	Done       bool
}

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) (messageID snowflake.ID, err error)

	// UpdateNowPlaying edits an existing "Now Playing" message in place.
	UpdateNowPlaying(channelID, messageID snowflake.ID, info *NowPlayingInfo) error

	// SendQueueAdded sends an "Added to Queue" embed to the channel.
	SendQueueAdded(channelID snowflake.ID, info *QueueAddedInfo) error

	// SendImportProgress sends or reports playlist import progress.
	SendImportProgress(channelID snowflake.ID, info *ImportProgressInfo) error

	// DeleteMessage deletes a message from the channel.
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error

	// SendError sends an error message embed to the channel.
	SendError(channelID snowflake.ID, message string) error

	// SendInfo sends an informational embed to the channel.
	SendInfo(channelID snowflake.ID, title, message string) error
}
