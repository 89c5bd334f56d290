package music_player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/bot"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/events"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/usecases"
	"github.com/hsakamo/melobot/internal/modules/music_player/infrastructure"
	"github.com/hsakamo/melobot/internal/modules/music_player/presentation"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config   *Config
	handlers *presentation.Handlers

	botID        snowflake.ID
	transport    *infrastructure.LavalinkTransport
	store        *infrastructure.SQLiteQueueStore
	orchestrator *usecases.PlaybackOrchestrator
	dispatcher   *usecases.GuildDispatcher
	progress     *usecases.ProgressTracker

	eventBus            *events.Bus
	notificationHandler *events.NotificationEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":   m.handlers.HandleJoin,
		"leave":  m.handlers.HandleLeave,
		"play":   m.handlers.HandlePlay,
		"stop":   m.handlers.HandleStop,
		"pause":  m.handlers.HandlePause,
		"resume": m.handlers.HandleResume,
		"skip":   m.handlers.HandleSkip,
		"queue":  m.handlers.HandleQueue,
		"loop":   m.handlers.HandleLoop,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module. The session must already be open: the
// transport and command wiring need the bot user from the Ready payload.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return errors.New("music_player requires an open Discord session")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}
	m.botID = botID

	transport, err := infrastructure.NewLavalinkTransport(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
	})
	if err != nil {
		return err
	}
	m.transport = transport

	store, err := infrastructure.NewSQLiteQueueStore(m.config.DatabasePath)
	if err != nil {
		return err
	}
	m.store = store

	repo := infrastructure.NewMemoryRepository()
	voiceStates := infrastructure.NewVoiceStateProvider(deps.Session)
	userInfo := infrastructure.NewDiscordUserInfoProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session, userInfo)
	catalog := infrastructure.NewYouTubeCatalog()

	var metadata ports.MetadataCatalog
	if m.config.SpotifyClientID != "" && m.config.SpotifyClientSecret != "" {
		spotifyCatalog, err := infrastructure.NewSpotifyCatalog(m.ctx, infrastructure.SpotifyConfig{
			ClientID:     m.config.SpotifyClientID,
			ClientSecret: m.config.SpotifyClientSecret,
		})
		if err != nil {
			return err
		}
		metadata = spotifyCatalog
	} else {
		slog.Info("spotify credentials not configured, metadata lookups disabled")
	}

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)
	m.dispatcher = usecases.NewGuildDispatcher()
	m.progress = usecases.NewProgressTracker(repo, m.eventBus, m.dispatcher)

	m.orchestrator = usecases.NewPlaybackOrchestrator(
		repo,
		store,
		store,
		catalog,
		metadata,
		transport,
		voiceStates,
		m.eventBus,
		m.dispatcher,
		m.progress,
	)
	queue := usecases.NewQueueService(repo, store, m.dispatcher)
	importer := usecases.NewImportService(m.orchestrator, metadata, m.eventBus)

	transport.SetTrackEndCallback(m.orchestrator.HandleTrackEnd)

	m.notificationHandler = events.NewNotificationEventHandler(notifier, repo, m.eventBus)
	m.notificationHandler.Start(m.ctx)

	m.handlers = presentation.NewHandlers(m.orchestrator, queue, importer)

	// Persisted sessions resume on their own; a failure here only loses
	// the restore, not the bot.
	if err := m.orchestrator.RestoreSessions(m.ctx); err != nil {
		slog.Warn("failed to restore playback sessions", "error", err)
	}

	slog.Info("music_player module initialized")

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	if m.progress != nil {
		m.progress.StopAll()
	}

	// Stop the dispatcher first so no task publishes into a closed bus.
	if m.dispatcher != nil {
		m.dispatcher.Close()
	}

	if m.notificationHandler != nil {
		m.notificationHandler.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.transport != nil {
		m.transport.Link().Close()
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			return err
		}
	}

	return nil
}

// Gateway event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.transport != nil {
		m.transport.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.transport == nil {
		return
	}
	m.transport.OnVoiceStateUpdate(event)

	// Track the bot's own voice state so a forced disconnect or move
	// tears down or updates the session.
	if event.UserID != m.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID snowflake.ID
	if event.ChannelID != "" {
		channelID, err = snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
	}

	m.orchestrator.HandleBotVoiceStateChange(guildID, channelID)
}
