package ping

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hsakamo/melobot/internal/bot"
)

func init() {
	bot.Register(&PingModule{})
}

// PingModule answers /ping with the gateway round-trip latency and
// returns 🏓 messages. It is the smallest consumer of the module
// registry and doubles as a liveness check for the bot.
type PingModule struct{}

// Name returns the module name.
func (m *PingModule) Name() string {
	return "ping"
}

// Commands returns the slash commands for this module.
func (m *PingModule) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Replies with Pong! and the gateway latency.",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *PingModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping": m.handlePing,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *PingModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{m.handleMessage}
}

// Init initializes the module.
func (m *PingModule) Init(deps bot.ModuleDependencies) error {
	return nil
}

// Shutdown cleans up module resources.
func (m *PingModule) Shutdown() error {
	return nil
}

func (m *PingModule) handlePing(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	content := "Pong!"
	if s != nil {
		if latency := s.HeartbeatLatency(); latency > 0 {
			content = fmt.Sprintf("Pong! (%dms)", latency.Milliseconds())
		}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// handleMessage returns the paddle when someone serves one.
func (m *PingModule) handleMessage(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.ID == s.State.User.ID {
		return
	}
	if !strings.Contains(msg.Content, "🏓") {
		return
	}

	if _, err := s.ChannelMessageSend(msg.ChannelID, "🏓"); err != nil {
		slog.Error("failed to send pong message", "channel", msg.ChannelID, "error", err)
	}
}
