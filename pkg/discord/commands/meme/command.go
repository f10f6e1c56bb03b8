// Package meme wires the /meme flow into the interaction router: the slash
// command, its template autocomplete, the create button and the caption
// dialog.
package meme

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/memebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/memebot/pkg/memes"
)

const (
	CommandName        = "meme"
	CommandDescription = "Create a meme"
	TemplateOption     = "template"

	stepSample = "sample"
	stepFinal  = "final"
)

// Recorder counts rendered memes.
type Recorder interface {
	IncMemeCreated(step string)
}

// Command implements /meme on top of a memes.Flow.
type Command struct {
	flow     *memes.Flow
	recorder Recorder
}

// Option customizes a Command.
type Option func(*Command)

// WithRecorder reports every rendered meme to r.
func WithRecorder(r Recorder) Option {
	return func(c *Command) { c.recorder = r }
}

// NewCommand builds the /meme command.
func NewCommand(flow *memes.Flow, opts ...Option) *Command {
	c := &Command{flow: flow}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register installs the command, its autocomplete and the button and dialog
// handlers on router.
func Register(router *core.CommandRouter, flow *memes.Flow, opts ...Option) *Command {
	c := NewCommand(flow, opts...)
	router.RegisterCommand(c)
	router.RegisterAutocomplete(CommandName, c)
	router.RegisterComponentHandler(memes.CreatePrefix, c.HandleButton)
	router.RegisterModalHandler(memes.BuildPrefix, c.HandleDialog)
	return c
}

func (c *Command) Name() string        { return CommandName }
func (c *Command) Description() string { return CommandDescription }
func (c *Command) RequiresGuild() bool { return false }

func (c *Command) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         TemplateOption,
			Description:  "Name of meme template to use",
			Required:     true,
			Autocomplete: true,
		},
	}
}

// HandleAutocomplete suggests templates for the focused option.
func (c *Command) HandleAutocomplete(ctx *core.Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	if focused.Name != TemplateOption {
		return nil, nil
	}
	suggestions, err := c.flow.Autocomplete(ctx.Ctx, focused.StringValue())
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return Choices(suggestions), nil
}

// Handle renders a sample of the selected template.
func (c *Command) Handle(ctx *core.Context) error {
	data := ctx.Interaction.ApplicationCommandData()
	name := core.NewOptionExtractor(data.Options).String(TemplateOption)

	res, err := c.flow.Select(ctx.Ctx, name)
	if err != nil {
		return fmt.Errorf("select template %q: %w", name, err)
	}

	switch res.State {
	case memes.StateInvalidInput:
		ctx.Logger.Info("Unknown template selected", "template", name)
		return ctx.Reply().Ephemeral(ctx.Interaction, InvalidTemplateMessage)
	case memes.StateMemeCreated:
		c.count(stepSample)
		return ctx.Respond(SampleResponse(res, c.flow.Options().Presentation))
	default:
		return fmt.Errorf("select template %q: unexpected state %s", name, res.State)
	}
}

// HandleButton opens the caption dialog for a create token.
func (c *Command) HandleButton(ctx *core.Context, data discordgo.MessageComponentInteractionData) error {
	res, err := c.flow.PressButton(ctx.Ctx, data.CustomID)
	if err != nil {
		return fmt.Errorf("press %q: %w", data.CustomID, err)
	}

	switch res.State {
	case memes.StateNoop:
		return nil
	case memes.StateDialogShown:
		if !FitsDialog(res) {
			return ctx.Reply().Ephemeral(ctx.Interaction, TooManyBoxesMessage(res))
		}
		return ctx.Respond(DialogResponse(res))
	default:
		return fmt.Errorf("press %q: unexpected state %s", data.CustomID, res.State)
	}
}

// HandleDialog renders the final meme from a submitted caption dialog.
func (c *Command) HandleDialog(ctx *core.Context, data discordgo.ModalSubmitInteractionData) error {
	values := core.ModalValues(data)
	res, err := c.flow.SubmitDialog(ctx.Ctx, data.CustomID, func(key string) string {
		return values[key]
	})
	if err != nil {
		return fmt.Errorf("submit %q: %w", data.CustomID, err)
	}

	switch res.State {
	case memes.StateNoop:
		return nil
	case memes.StateMemeCreated:
		c.count(stepFinal)
		author := Author{
			Name:      core.DisplayName(ctx.Interaction),
			AvatarURL: core.AvatarURL(ctx.Interaction),
		}
		return ctx.Respond(FinalResponse(res, c.flow.Options(), author))
	default:
		return fmt.Errorf("submit %q: unexpected state %s", data.CustomID, res.State)
	}
}

func (c *Command) count(step string) {
	if c.recorder != nil {
		c.recorder.IncMemeCreated(step)
	}
}
