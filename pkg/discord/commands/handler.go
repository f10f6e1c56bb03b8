package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/memebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/memebot/pkg/discord/commands/meme"
	"github.com/small-frappuccino/memebot/pkg/log"
	"github.com/small-frappuccino/memebot/pkg/memes"
	"github.com/small-frappuccino/memebot/pkg/metrics"
)

// CommandHandler is the main handler that coordinates all bot commands
type CommandHandler struct {
	session        *discordgo.Session
	commandManager *core.CommandManager
}

// NewCommandHandler builds the router and registers /meme on it. m may be nil.
func NewCommandHandler(session *discordgo.Session, flow *memes.Flow, m *metrics.Metrics) *CommandHandler {
	manager := core.NewCommandManager(session, core.WithObserver(m))
	meme.Register(manager.GetRouter(), flow, meme.WithRecorder(m))

	return &CommandHandler{
		session:        session,
		commandManager: manager,
	}
}

// Attach subscribes the router to interaction events. Call it before the
// session opens so no interaction is missed.
func (ch *CommandHandler) Attach() {
	ch.session.AddHandler(ch.commandManager.GetRouter().HandleInteraction)
}

// SetupCommands syncs the registered commands with Discord.
func (ch *CommandHandler) SetupCommands(appID, guildID string) error {
	log.ApplicationLogger().Info("Setting up bot commands...")

	if err := ch.commandManager.SetupCommands(appID, guildID); err != nil {
		return fmt.Errorf("failed to setup commands: %w", err)
	}

	log.ApplicationLogger().Info("Bot commands setup completed successfully")
	return nil
}

// GetCommandManager returns the command manager (for tests or extensions)
func (ch *CommandHandler) GetCommandManager() *core.CommandManager {
	return ch.commandManager
}
