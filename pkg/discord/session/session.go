package session

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/memebot/pkg/errutil"
	"github.com/small-frappuccino/memebot/pkg/log"
)

// Error messages
const (
	ErrSessionCreationFailed   = "failed to create Discord session: %w"
	ErrSessionConnectionFailed = "failed to connect to Discord: %w"
)

// Intents requests only guild events; interactions arrive regardless.
const Intents = discordgo.IntentsGuilds

// Seams for tests.
var (
	newSession   = func(token string) (*discordgo.Session, error) { return discordgo.New("Bot " + token) }
	openSession  = func(s *discordgo.Session) error { return s.Open() }
	closeSession = func(s *discordgo.Session) error { return s.Close() }
)

// NewDiscordSession creates a session, runs every setup hook (handler
// registration) and then connects. On connect failure the session is closed.
func NewDiscordSession(token string, setup ...func(*discordgo.Session)) (*discordgo.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		log.ErrorLoggerRaw().Error("Discord bot token is empty; set DISCORD_TOKEN before starting the bot")
		return nil, fmt.Errorf("discord bot token is empty")
	}

	log.DiscordLogger().Info("🔑 Creating Discord session")

	var s *discordgo.Session
	if err := errutil.HandleDiscordError("create_session", func() error {
		var sessionErr error
		s, sessionErr = newSession(token)
		return sessionErr
	}); err != nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, err)
	}

	s.Identify.Intents = Intents
	for _, fn := range setup {
		if fn != nil {
			fn(s)
		}
	}

	log.DiscordLogger().Info("🔗 Connecting to Discord...")
	if err := errutil.HandleDiscordError("connect", func() error {
		return openSession(s)
	}); err != nil {
		if closeErr := closeSession(s); closeErr != nil {
			log.DiscordLogger().Warn("Failed to close session after connect error", "err", closeErr)
		}
		return nil, fmt.Errorf(ErrSessionConnectionFailed, err)
	}

	log.DiscordLogger().Info("✅ Connected to Discord successfully")
	return s, nil
}

// Close disconnects the session.
func Close(s *discordgo.Session) error {
	if s == nil {
		return nil
	}
	return closeSession(s)
}
