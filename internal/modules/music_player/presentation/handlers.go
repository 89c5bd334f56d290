package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/bot"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/usecases"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// Handlers holds all the command handlers.
type Handlers struct {
	orchestrator *usecases.PlaybackOrchestrator
	queue        *usecases.QueueService
	importer     *usecases.ImportService
}

// NewHandlers creates new Handlers.
func NewHandlers(
	orchestrator *usecases.PlaybackOrchestrator,
	queue *usecases.QueueService,
	importer *usecases.ImportService,
) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		queue:        queue,
		importer:     importer,
	}
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, _ = snowflake.Parse(opt.ChannelValue(s).ID)
		}
	}

	output, err := h.orchestrator.Connect(context.Background(), usecases.ConnectInput{
		GuildID:               ids.guildID,
		UserID:                ids.userID,
		NotificationChannelID: ids.channelID,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID))
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := h.orchestrator.Disconnect(context.Background(), usecases.DisconnectInput{
		GuildID: ids.guildID,
	}); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command. Playlist and album links start a
// bulk import; everything else resolves to a single track.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	info := domain.Classify(query)
	if info.Kind == domain.QuerySpotifyPlaylist || info.Kind == domain.QuerySpotifyAlbum {
		return h.startImport(r, ids, info)
	}

	output, err := h.orchestrator.Enqueue(context.Background(), usecases.EnqueueInput{
		GuildID:               ids.guildID,
		UserID:                ids.userID,
		Query:                 query,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	track := output.Entry.Track
	if output.WasIdle {
		return respondSuccess(r, fmt.Sprintf("Starting [%s](%s).", track.Title, track.CanonicalURL))
	}
	return respondSuccess(r, fmt.Sprintf(
		"Added [%s](%s) to the queue (position %d).",
		track.Title, track.CanonicalURL, output.Position,
	))
}

// startImport acknowledges the interaction immediately and expands the
// collection in the background; progress lands in the notification
// channel as import events.
func (h *Handlers) startImport(r bot.Responder, ids interactionContext, info domain.QueryInfo) error {
	kindName := "playlist"
	if info.Kind == domain.QuerySpotifyAlbum {
		kindName = "album"
	}

	go func() {
		_, err := h.importer.Import(context.Background(), usecases.ImportInput{
			GuildID:               ids.guildID,
			UserID:                ids.userID,
			Kind:                  info.Kind,
			ResourceID:            info.ResourceID,
			NotificationChannelID: ids.channelID,
		})
		if err != nil {
			slog.Error("import failed",
				"guild", ids.guildID,
				"kind", info.Kind.String(),
				"error", err,
			)
		}
	}()

	return respondSuccess(r, fmt.Sprintf("Importing %s, this may take a moment...", kindName))
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := h.orchestrator.Stop(context.Background(), usecases.StopInput{
		GuildID:               ids.guildID,
		NotificationChannelID: ids.channelID,
	}); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := h.orchestrator.Pause(context.Background(), usecases.PauseInput{
		GuildID:               ids.guildID,
		NotificationChannelID: ids.channelID,
	}); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if err := h.orchestrator.Resume(context.Background(), usecases.ResumeInput{
		GuildID:               ids.guildID,
		NotificationChannelID: ids.channelID,
	}); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := h.orchestrator.Skip(context.Background(), usecases.SkipInput{
		GuildID:               ids.guildID,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	description := fmt.Sprintf(
		"Skipped [%s](%s).",
		output.SkippedTrack.Title, output.SkippedTrack.CanonicalURL,
	)
	if output.NextTrack == nil {
		description += " The queue is empty."
	}
	return respondSuccess(r, description)
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(i, r, subCmd.Options)
	case "remove":
		return h.handleQueueRemove(i, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(i, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var page int
	for _, opt := range options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(context.Background(), usecases.QueueListInput{
		GuildID:               ids.guildID,
		Page:                  page,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondQueueList(r, output)
}

func (h *Handlers) handleQueueRemove(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	var position int
	for _, opt := range options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	output, err := h.queue.Remove(context.Background(), usecases.QueueRemoveInput{
		GuildID:               ids.guildID,
		Position:              position,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	track := output.RemovedEntry.Track
	return respondSuccess(r, fmt.Sprintf("Removed [%s](%s).", track.Title, track.CanonicalURL))
}

func (h *Handlers) handleQueueClear(
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := h.queue.Clear(context.Background(), usecases.QueueClearInput{
		GuildID:               ids.guildID,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("Cleared %d queued tracks.", output.Removed))
}

// HandleLoop handles the /loop command.
func (h *Handlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	// A missing mode option cycles through the modes instead.
	var mode *domain.LoopMode
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "mode" {
			parsed := domain.ParseLoopMode(opt.StringValue())
			mode = &parsed
		}
	}

	output, err := h.orchestrator.Loop(context.Background(), usecases.LoopInput{
		GuildID:               ids.guildID,
		Mode:                  mode,
		NotificationChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	var description string
	switch output.Mode {
	case domain.LoopModeTrack:
		description = "Now looping the current track."
	case domain.LoopModeQueue:
		description = "Now looping the queue."
	default:
		description = "Loop disabled."
	}
	return respondSuccess(r, description)
}

// interactionContext carries the snowflakes every handler needs.
type interactionContext struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func interactionIDs(i *discordgo.InteractionCreate) (interactionContext, error) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("invalid guild")
	}

	if i.Member == nil || i.Member.User == nil {
		return interactionContext{}, fmt.Errorf("command must be used in a server")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("invalid user")
	}

	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("invalid channel")
	}

	return interactionContext{
		guildID:   guildID,
		userID:    userID,
		channelID: channelID,
	}, nil
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondQueueList(r bot.Responder, output *usecases.QueueListOutput) error {
	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", output.CurrentPage, output.TotalPages),
		},
	}

	var sb strings.Builder

	if output.CurrentTrack != nil {
		sb.WriteString("### Now Playing\n")
		fmt.Fprintf(&sb, "[%s](%s) - %s\n",
			output.CurrentTrack.Title,
			output.CurrentTrack.CanonicalURL,
			output.CurrentTrack.Artist,
		)
	}

	if len(output.Entries) > 0 {
		sb.WriteString("### Up Next\n")
		pageStart := (output.CurrentPage - 1) * usecases.DefaultPageSize
		for idx, entry := range output.Entries {
			// Escape the period so Discord does not render an ordered list.
			fmt.Fprintf(&sb, "%d\\. [%s](%s) - %s\n",
				pageStart+idx+1,
				entry.Track.Title,
				entry.Track.CanonicalURL,
				entry.Track.Artist,
			)
		}
	} else if output.CurrentTrack == nil {
		sb.WriteString("Queue is empty.")
	}

	embed.Description = sb.String()

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
