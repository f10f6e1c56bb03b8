package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/memebot/pkg/log"
)

// Interaction kinds used in logs and metrics.
const (
	KindCommand      = "command"
	KindAutocomplete = "autocomplete"
	KindComponent    = "component"
	KindModal        = "modal"
	KindOther        = "other"
)

// ContextBuilder creates contexts for command execution
type ContextBuilder struct {
	session *discordgo.Session
	logger  *slog.Logger
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(session *discordgo.Session, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = log.DiscordLogger()
	}
	return &ContextBuilder{session: session, logger: logger}
}

// BuildContext creates a complete context for one interaction
func (cb *ContextBuilder) BuildContext(parent context.Context, i *discordgo.InteractionCreate) *Context {
	userID := extractUserID(i)
	guildID := i.GuildID

	logger := cb.logger.With(
		"interaction_id", i.ID,
		"kind", InteractionKind(i),
		"route", RouteName(i),
		"guild_id", guildID,
		"user_id", userID,
	)

	return &Context{
		Ctx:         parent,
		Session:     cb.session,
		Interaction: i,
		Logger:      logger,
		GuildID:     guildID,
		UserID:      userID,
	}
}

// extractUserID extracts the user ID from the interaction
func extractUserID(i *discordgo.InteractionCreate) string {
	if u := interactionUser(i); u != nil {
		return u.ID
	}
	return ""
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionKind classifies the interaction for routing, logs and metrics.
func InteractionKind(i *discordgo.InteractionCreate) string {
	if i == nil || i.Interaction == nil {
		return KindOther
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return KindCommand
	case discordgo.InteractionApplicationCommandAutocomplete:
		return KindAutocomplete
	case discordgo.InteractionMessageComponent:
		return KindComponent
	case discordgo.InteractionModalSubmit:
		return KindModal
	default:
		return KindOther
	}
}

// RouteName is the command name for commands and autocomplete, or the custom
// ID for components and modals.
func RouteName(i *discordgo.InteractionCreate) string {
	switch InteractionKind(i) {
	case KindCommand, KindAutocomplete:
		if data, ok := i.Data.(discordgo.ApplicationCommandInteractionData); ok {
			return data.Name
		}
	case KindComponent:
		if data, ok := i.Data.(discordgo.MessageComponentInteractionData); ok {
			return data.CustomID
		}
	case KindModal:
		if data, ok := i.Data.(discordgo.ModalSubmitInteractionData); ok {
			return data.CustomID
		}
	}
	return ""
}

// Repliable reports whether the interaction accepts a channel message response.
func Repliable(i *discordgo.InteractionCreate) bool {
	switch InteractionKind(i) {
	case KindCommand, KindComponent, KindModal:
		return true
	default:
		return false
	}
}

// HasFocusedOption checks if there is a focused option (for autocomplete)
func HasFocusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, opt := range options {
		if opt.Focused {
			return opt, true
		}
		// Checks recursively in subcommands
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand && len(opt.Options) > 0 {
			if focused, found := HasFocusedOption(opt.Options); found {
				return focused, true
			}
		}
	}
	return nil, false
}

// ModalValues collects the text input values of a submitted modal keyed by
// custom ID. Gateway payloads decode to pointer components; values built in
// code may be plain structs, so both are accepted.
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	var walk func(components []discordgo.MessageComponent)
	walk = func(components []discordgo.MessageComponent) {
		for _, comp := range components {
			switch c := comp.(type) {
			case *discordgo.ActionsRow:
				walk(c.Components)
			case discordgo.ActionsRow:
				walk(c.Components)
			case *discordgo.TextInput:
				values[c.CustomID] = c.Value
			case discordgo.TextInput:
				values[c.CustomID] = c.Value
			}
		}
	}
	walk(data.Components)
	return values
}

// DisplayName returns the name shown for the invoking user: the server
// nickname, then the global display name, then the username.
func DisplayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && strings.TrimSpace(i.Member.Nick) != "" {
		return i.Member.Nick
	}
	u := interactionUser(i)
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.GlobalName) != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL returns the invoking user's avatar URL, or "" when unknown.
func AvatarURL(i *discordgo.InteractionCreate) string {
	u := interactionUser(i)
	if u == nil {
		return ""
	}
	return u.AvatarURL("")
}
