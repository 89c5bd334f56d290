package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed = 0xE74C3C
)

// progressBarWidth is the number of segments in the playback progress bar.
const progressBarWidth = 12

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session    *discordgo.Session
	userInfo   ports.UserInfoProvider // Optional; enriches embeds with requester names
	httpClient *http.Client
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session, userInfo ports.UserInfoProvider) *Notifier {
	return &Notifier{
		session:  session,
		userInfo: userInfo,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	embed := n.buildNowPlayingEmbed(info)

	msg, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	if err != nil {
		return 0, err
	}
	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// UpdateNowPlaying edits an existing "Now Playing" message in place.
// Used for periodic progress refreshes.
func (n *Notifier) UpdateNowPlaying(
	channelID, messageID snowflake.ID,
	info *ports.NowPlayingInfo,
) error {
	embed := n.buildNowPlayingEmbed(info)
	_, err := n.session.ChannelMessageEditEmbed(channelID.String(), messageID.String(), embed)
	return err
}

func (n *Notifier) buildNowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	source := domain.ParseTrackSource(info.SourceName)

	authorName := "Now Playing"
	if info.Paused {
		authorName = "Paused"
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    authorName,
			IconURL: source.IconURL(),
		},
		Title:       info.Title,
		URL:         info.URI,
		Color:       source.Color(),
		Description: progressLine(info.ElapsedSeconds, info.Duration),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Artist",
				Value:  info.Artist,
				Inline: true,
			},
			{
				Name:   "Duration",
				Value:  info.Duration,
				Inline: true,
			},
		},
	}

	if info.LoopMode != "" && info.LoopMode != "none" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Loop",
			Value:  info.LoopMode,
			Inline: true,
		})
	}

	if footer := n.requesterFooter(info.GuildID, info.RequesterID); footer != nil {
		embed.Footer = footer
	}

	if thumbnailURL := n.getBestThumbnail(source, info.Identifier, info.ArtworkURL); thumbnailURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: thumbnailURL,
		}
	}

	return embed
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// SendQueueAdded sends an "Added to Queue" embed to the channel.
func (n *Notifier) SendQueueAdded(channelID snowflake.ID, info *ports.QueueAddedInfo) error {
	description := fmt.Sprintf("Added **%s** to the queue (position %d).", info.Title, info.Position)

	embed := &discordgo.MessageEmbed{
		Description: description,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendImportProgress sends or refreshes an import progress embed.
func (n *Notifier) SendImportProgress(
	channelID snowflake.ID,
	info *ports.ImportProgressInfo,
) error {
	title := fmt.Sprintf("Importing %s...", info.SourceName)
	if info.Done {
		title = fmt.Sprintf("Imported %s", info.SourceName)
	}

	description := fmt.Sprintf("Processed %d/%d tracks: %d added, %d failed.",
		info.Processed, info.Total, info.Added, info.Failed)

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendInfo sends an informational embed to the channel.
func (n *Notifier) SendInfo(channelID snowflake.ID, title, message string) error {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

func (n *Notifier) requesterFooter(guildID, requesterID snowflake.ID) *discordgo.MessageEmbedFooter {
	if n.userInfo == nil || requesterID == 0 {
		return nil
	}

	// The footer is cosmetic; a lookup failure just omits it.
	info, err := n.userInfo.GetUserInfo(guildID, requesterID)
	if err != nil || info == nil {
		return nil
	}

	return &discordgo.MessageEmbedFooter{
		Text:    fmt.Sprintf("Requested by %s", info.DisplayName),
		IconURL: info.AvatarURL,
	}
}

// progressLine renders a textual progress bar like
// "▬▬🔘▬▬▬▬▬▬▬▬▬ `1:05 / 3:45`".
func progressLine(elapsedSeconds int, duration string) string {
	total := parseClock(duration)
	if total <= 0 {
		return ""
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if elapsedSeconds > total {
		elapsedSeconds = total
	}

	knob := elapsedSeconds * (progressBarWidth - 1) / total
	var bar strings.Builder
	for i := range progressBarWidth {
		if i == knob {
			bar.WriteString("🔘")
		} else {
			bar.WriteString("▬")
		}
	}

	return fmt.Sprintf("%s `%s / %s`", bar.String(), formatClock(elapsedSeconds), duration)
}

// parseClock parses "m:ss" or "h:mm:ss" into seconds. Returns 0 on
// anything unparseable.
func parseClock(clock string) int {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		value := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0
			}
			value = value*10 + int(r-'0')
		}
		total = total*60 + value
	}
	return total
}

// formatClock renders seconds as "m:ss" or "h:mm:ss".
func formatClock(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// getBestThumbnail attempts to find the best quality thumbnail for the track.
// For YouTube-backed tracks it tries different quality levels
// (maxresdefault, sddefault, etc.); otherwise the original artwork URL is used.
func (n *Notifier) getBestThumbnail(
	source domain.TrackSource,
	identifier string,
	fallbackURL string,
) string {
	switch source {
	case domain.TrackSourceYouTube, domain.TrackSourceSpotifyYouTube:
		if identifier == "" {
			return fallbackURL
		}
		return n.getYouTubeThumbnail(identifier, fallbackURL)
	default:
		return fallbackURL
	}
}

// getYouTubeThumbnail tries to find the highest quality YouTube thumbnail available.
func (n *Notifier) getYouTubeThumbnail(videoID string, fallbackURL string) string {
	qualities := []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, quality := range qualities {
		url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
		if n.urlExists(ctx, url) {
			return url
		}
	}

	return fallbackURL
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
