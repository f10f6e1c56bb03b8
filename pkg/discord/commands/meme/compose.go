package meme

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/memebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/memebot/pkg/memes"
	"github.com/small-frappuccino/memebot/pkg/theme"
)

const (
	SampleButtonLabel      = "Create meme with this template"
	ReuseButtonLabel       = "Reuse this template"
	DialogTitle            = "Create meme"
	InvalidTemplateMessage = "Invalid template"

	// MaxDialogFields is Discord's row limit for a modal.
	MaxDialogFields = 5
)

// Author identifies who created a final meme.
type Author struct {
	Name      string
	AvatarURL string
}

// SampleResponse is the reply to a template selection. It is always
// ephemeral and offers a button that opens the caption dialog.
func SampleResponse(res memes.Result, presentation memes.Presentation) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Flags:      discordgo.MessageFlagsEphemeral,
		Components: buttonRow(SampleButtonLabel, res.Token),
	}
	if presentation == memes.PresentationText {
		data.Content = fmt.Sprintf("**%s**\n%s", res.Template.Name, res.Meme.URL)
	} else {
		data.Embeds = []*discordgo.MessageEmbed{{
			Title: res.Template.Name,
			Color: theme.MemeSample(),
			Image: &discordgo.MessageEmbedImage{URL: res.Meme.URL},
		}}
	}
	return messageResponse(data)
}

// FinalResponse is the reply to a submitted caption dialog.
func FinalResponse(res memes.Result, opts memes.Options, author Author) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Components: buttonRow(ReuseButtonLabel, res.Token),
	}
	if opts.ReplyVisibility == memes.VisibilityEphemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if opts.Presentation == memes.PresentationText {
		data.Content = res.Meme.URL
	} else {
		embed := &discordgo.MessageEmbed{
			Color: theme.MemeFinal(),
			Image: &discordgo.MessageEmbedImage{URL: res.Meme.URL},
		}
		if author.Name != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text:    fmt.Sprintf("Created by %s with /%s", author.Name, CommandName),
				IconURL: author.AvatarURL,
			}
		}
		data.Embeds = []*discordgo.MessageEmbed{embed}
	}
	return messageResponse(data)
}

// DialogResponse opens the caption modal, one optional short input per box.
// Callers must check FitsDialog first.
func DialogResponse(res memes.Result) *discordgo.InteractionResponse {
	n := res.Template.BoxCount
	rows := make([]discordgo.MessageComponent, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID: memes.FieldKey(i),
					Label:    fmt.Sprintf("Text box %d/%d", i+1, n),
					Style:    discordgo.TextInputShort,
					Required: false,
				},
			},
		})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   res.Token.String(),
			Title:      DialogTitle,
			Components: rows,
		},
	}
}

// FitsDialog reports whether every caption box of res fits in one modal.
func FitsDialog(res memes.Result) bool {
	return res.Template.BoxCount <= MaxDialogFields
}

// TooManyBoxesMessage explains why no dialog was opened.
func TooManyBoxesMessage(res memes.Result) string {
	return fmt.Sprintf("%s has %d text boxes, but Discord dialogs hold at most %d.",
		res.Template.Name, res.Template.BoxCount, MaxDialogFields)
}

// Choices converts suggestions into autocomplete choices.
func Choices(suggestions []memes.Suggestion) []*discordgo.ApplicationCommandOptionChoice {
	var utils core.AutocompleteUtils
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, utils.CreateChoice(s.Name, s.Value))
	}
	return out
}

func buttonRow(label string, token memes.Token) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.PrimaryButton,
					CustomID: token.String(),
				},
			},
		},
	}
}

func messageResponse(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
