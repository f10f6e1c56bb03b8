package core

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// Command representa um comando Discord
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
}

// Context fornece contexto unificado para execução de comandos
type Context struct {
	// Ctx bounds the work of one interaction.
	Ctx         context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Logger      *slog.Logger
	GuildID     string
	UserID      string

	responded atomic.Bool
}

// Reply returns a response manager that marks this interaction as answered
// once a response is delivered.
func (c *Context) Reply() *ResponseManager {
	return NewResponseManager(c.Session).onSent(func() { c.responded.Store(true) })
}

// Respond sends a raw interaction response.
func (c *Context) Respond(resp *discordgo.InteractionResponse) error {
	return c.Reply().Send(c.Interaction, resp)
}

// Responded reports whether a response has already been delivered.
func (c *Context) Responded() bool {
	return c.responded.Load()
}

// CommandRegistry gerencia registro e execução de comandos
type CommandRegistry struct {
	commands map[string]Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register registra um comando no registry
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// GetCommand retorna um comando pelo nome
func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetAllCommands retorna todos os comandos registrados
func (r *CommandRegistry) GetAllCommands() map[string]Command {
	return r.commands
}

// AutocompleteHandler define um handler para autocomplete
type AutocompleteHandler interface {
	HandleAutocomplete(ctx *Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error)
}

// ComponentHandler handles a message component (button) whose custom ID
// matched a registered prefix.
type ComponentHandler func(ctx *Context, data discordgo.MessageComponentInteractionData) error

// ModalHandler handles a submitted modal whose custom ID matched a
// registered prefix.
type ModalHandler func(ctx *Context, data discordgo.ModalSubmitInteractionData) error

// CommandError representa erros específicos de comandos
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string {
	return e.Message
}

// NewCommandError cria um novo erro de comando
func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{
		Message:   message,
		Ephemeral: ephemeral,
	}
}

// ValidationError representa erros de validação
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError cria um novo erro de validação
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
