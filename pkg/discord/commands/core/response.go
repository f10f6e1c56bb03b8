package core

import (
	"github.com/bwmarrin/discordgo"
)

// MaxAutocompleteChoices is Discord's cap on autocomplete results.
const MaxAutocompleteChoices = 25

// ResponseType define tipos de resposta padronizados
type ResponseType int

const (
	ResponseError ResponseType = iota
	ResponseInfo
)

// ResponseConfig configura opções de resposta
type ResponseConfig struct {
	Ephemeral  bool
	Components []discordgo.MessageComponent
}

// ResponseManager gerencia todas as respostas de interação
type ResponseManager struct {
	session *discordgo.Session
	config  ResponseConfig
	sent    func()
}

// NewResponseManager cria um novo gerenciador de respostas
func NewResponseManager(session *discordgo.Session) *ResponseManager {
	return &ResponseManager{session: session}
}

// WithConfig define configurações para a próxima resposta
func (rm *ResponseManager) WithConfig(config ResponseConfig) *ResponseManager {
	return &ResponseManager{
		session: rm.session,
		config:  config,
		sent:    rm.sent,
	}
}

func (rm *ResponseManager) onSent(fn func()) *ResponseManager {
	rm.sent = fn
	return rm
}

// Send delivers a prepared response.
func (rm *ResponseManager) Send(i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) error {
	if err := rm.session.InteractionRespond(i.Interaction, resp); err != nil {
		return err
	}
	if rm.sent != nil {
		rm.sent()
	}
	return nil
}

// Error envia uma resposta de erro, sempre ephemeral
func (rm *ResponseManager) Error(i *discordgo.InteractionCreate, message string) error {
	config := rm.config
	config.Ephemeral = true
	return rm.WithConfig(config).sendTextResponse(i, message, ResponseError)
}

// Info envia uma resposta informativa
func (rm *ResponseManager) Info(i *discordgo.InteractionCreate, message string) error {
	return rm.sendTextResponse(i, message, ResponseInfo)
}

// Ephemeral envia uma resposta ephemeral simples, sem formatação
func (rm *ResponseManager) Ephemeral(i *discordgo.InteractionCreate, message string) error {
	config := rm.config
	config.Ephemeral = true
	return rm.WithConfig(config).Custom(i, message, nil)
}

// Custom envia uma resposta personalizada
func (rm *ResponseManager) Custom(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed) error {
	return rm.Send(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Flags:      rm.flags(),
			Components: rm.config.Components,
		},
	})
}

// Modal opens a modal dialog.
func (rm *ResponseManager) Modal(i *discordgo.InteractionCreate, customID, title string, components []discordgo.MessageComponent) error {
	return rm.Send(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	})
}

// Autocomplete envia uma resposta de autocomplete
func (rm *ResponseManager) Autocomplete(i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if len(choices) > MaxAutocompleteChoices {
		choices = choices[:MaxAutocompleteChoices]
	}
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}

	return rm.Send(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// sendTextResponse envia uma resposta de texto simples
func (rm *ResponseManager) sendTextResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	return rm.Send(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    formatTextMessage(message, responseType),
			Flags:      rm.flags(),
			Components: rm.config.Components,
		},
	})
}

func (rm *ResponseManager) flags() discordgo.MessageFlags {
	if rm.config.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// formatTextMessage formata mensagem de texto baseada no tipo
func formatTextMessage(message string, responseType ResponseType) string {
	switch responseType {
	case ResponseError:
		return "❌ " + message
	case ResponseInfo:
		return "ℹ️ " + message
	default:
		return message
	}
}
