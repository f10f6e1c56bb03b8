package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/memebot/pkg/log"
	"github.com/small-frappuccino/memebot/pkg/metrics"
)

// GenericFailureMessage is sent when an interaction fails without a more
// specific reply.
const GenericFailureMessage = "Sorry, something went wrong :("

// DefaultSlowThreshold is the handling time above which an interaction is
// logged as slow. Discord expects the first response within three seconds.
const DefaultSlowThreshold = 2 * time.Second

// InteractionObserver receives one callback per handled interaction.
type InteractionObserver interface {
	ObserveInteraction(kind, outcome string, elapsed time.Duration)
}

type prefixRoute[H any] struct {
	prefix  string
	handler H
}

// CommandRouter gerencia o roteamento de comandos e interações
type CommandRouter struct {
	session        *discordgo.Session
	registry       *CommandRegistry
	autocomplete   map[string]AutocompleteHandler
	components     []prefixRoute[ComponentHandler]
	modals         []prefixRoute[ModalHandler]
	contextBuilder *ContextBuilder
	observer       InteractionObserver
	timeout        time.Duration
	slow           time.Duration
	logger         *slog.Logger
}

// RouterOption customizes a CommandRouter.
type RouterOption func(*CommandRouter)

// WithObserver reports every interaction outcome to o.
func WithObserver(o InteractionObserver) RouterOption {
	return func(cr *CommandRouter) { cr.observer = o }
}

// WithTimeout bounds the work done for each interaction. Without it an
// interaction runs until its handler returns.
func WithTimeout(d time.Duration) RouterOption {
	return func(cr *CommandRouter) {
		if d > 0 {
			cr.timeout = d
		}
	}
}

// WithSlowThreshold overrides DefaultSlowThreshold. Zero disables the
// slow-interaction warning.
func WithSlowThreshold(d time.Duration) RouterOption {
	return func(cr *CommandRouter) { cr.slow = d }
}

// WithLogger overrides the router logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(cr *CommandRouter) {
		if l != nil {
			cr.logger = l
		}
	}
}

// NewCommandRouter cria um novo roteador de comandos
func NewCommandRouter(session *discordgo.Session, opts ...RouterOption) *CommandRouter {
	cr := &CommandRouter{
		session:      session,
		registry:     NewCommandRegistry(),
		autocomplete: make(map[string]AutocompleteHandler),
		slow:         DefaultSlowThreshold,
		logger:       log.DiscordLogger(),
	}
	for _, opt := range opts {
		opt(cr)
	}
	cr.contextBuilder = NewContextBuilder(session, cr.logger)
	return cr
}

// RegisterCommand registra um comando
func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

// RegisterAutocomplete registra um handler de autocomplete
func (cr *CommandRouter) RegisterAutocomplete(commandName string, handler AutocompleteHandler) {
	cr.autocomplete[commandName] = handler
}

// RegisterComponentHandler routes button presses whose custom ID starts with
// prefix. The longest matching prefix wins.
func (cr *CommandRouter) RegisterComponentHandler(prefix string, handler ComponentHandler) {
	cr.components = addRoute(cr.components, prefix, handler)
}

// RegisterModalHandler routes modal submissions whose custom ID starts with
// prefix. The longest matching prefix wins.
func (cr *CommandRouter) RegisterModalHandler(prefix string, handler ModalHandler) {
	cr.modals = addRoute(cr.modals, prefix, handler)
}

func addRoute[H any](routes []prefixRoute[H], prefix string, handler H) []prefixRoute[H] {
	for i := range routes {
		if routes[i].prefix == prefix {
			routes[i].handler = handler
			return routes
		}
	}
	routes = append(routes, prefixRoute[H]{prefix: prefix, handler: handler})
	sort.SliceStable(routes, func(a, b int) bool { return len(routes[a].prefix) > len(routes[b].prefix) })
	return routes
}

func matchRoute[H any](routes []prefixRoute[H], customID string) (H, bool) {
	for _, r := range routes {
		if strings.HasPrefix(customID, r.prefix) {
			return r.handler, true
		}
	}
	var zero H
	return zero, false
}

// HandleInteraction is the single entry point for interaction events. Every
// failure, including panics, is caught here: it is logged with the
// interaction metadata and, when nothing was sent yet, answered with a
// generic ephemeral message.
func (cr *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	started := time.Now()
	kind := InteractionKind(i)

	parent := context.Background()
	if cr.timeout > 0 {
		var cancel context.CancelFunc
		parent, cancel = context.WithTimeout(parent, cr.timeout)
		defer cancel()
	}
	ctx := cr.contextBuilder.BuildContext(parent, i)
	if s != nil {
		ctx.Session = s
	}

	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			ctx.Logger.Error("Interaction handler panicked", "panic", r, "stack", string(debug.Stack()))
			cr.reportFailure(ctx, fmt.Errorf("panic: %v", r))
		}
		elapsed := time.Since(started)
		if cr.slow > 0 && elapsed >= cr.slow {
			ctx.Logger.Warn("Slow interaction", "elapsed", elapsed, "elapsed_ms", elapsed.Milliseconds(), "outcome", outcome)
		}
		if cr.observer != nil {
			cr.observer.ObserveInteraction(kind, outcome, elapsed)
		}
	}()

	handled, err := cr.dispatch(ctx, kind)
	switch {
	case err != nil:
		outcome = classifyFailure(err)
		ctx.Logger.Error("Interaction failed", "error", err)
		cr.reportFailure(ctx, err)
	case !handled:
		outcome = metrics.OutcomeIgnored
		ctx.Logger.Debug("Interaction ignored")
	default:
		ctx.Logger.Debug("Interaction handled", "elapsed", time.Since(started))
	}
}

func classifyFailure(err error) string {
	var cmdErr *CommandError
	var valErr *ValidationError
	if errors.As(err, &cmdErr) || errors.As(err, &valErr) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}

func (cr *CommandRouter) dispatch(ctx *Context, kind string) (bool, error) {
	i := ctx.Interaction
	switch kind {
	case KindCommand:
		return true, cr.handleSlashCommand(ctx)
	case KindAutocomplete:
		return cr.handleAutocomplete(ctx)
	case KindComponent:
		data, ok := i.Data.(discordgo.MessageComponentInteractionData)
		if !ok {
			return false, nil
		}
		handler, found := matchRoute(cr.components, data.CustomID)
		if !found {
			return false, nil
		}
		return true, handler(ctx, data)
	case KindModal:
		data, ok := i.Data.(discordgo.ModalSubmitInteractionData)
		if !ok {
			return false, nil
		}
		handler, found := matchRoute(cr.modals, data.CustomID)
		if !found {
			return false, nil
		}
		return true, handler(ctx, data)
	default:
		return false, nil
	}
}

// handleSlashCommand processa comandos slash
func (cr *CommandRouter) handleSlashCommand(ctx *Context) error {
	data, ok := ctx.Interaction.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok {
		return NewCommandError("Command not found", true)
	}
	cmd, exists := cr.registry.GetCommand(data.Name)
	if !exists {
		return NewCommandError("Command not found", true)
	}

	if cmd.RequiresGuild() && ctx.GuildID == "" {
		return NewCommandError("This command can only be used in a server", true)
	}

	return cmd.Handle(ctx)
}

// handleAutocomplete processa autocomplete
func (cr *CommandRouter) handleAutocomplete(ctx *Context) (bool, error) {
	data, ok := ctx.Interaction.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok {
		return false, nil
	}
	handler, exists := cr.autocomplete[data.Name]
	if !exists {
		return false, nil
	}

	focused, ok := HasFocusedOption(data.Options)
	if !ok {
		return true, ctx.Reply().Autocomplete(ctx.Interaction, nil)
	}

	choices, err := handler.HandleAutocomplete(ctx, focused)
	if err != nil {
		return true, err
	}
	return true, ctx.Reply().Autocomplete(ctx.Interaction, choices)
}

// reportFailure answers a failed interaction unless a response already went
// out. Autocomplete gets an empty choice list; everything else a message.
func (cr *CommandRouter) reportFailure(ctx *Context, err error) {
	if ctx.Responded() {
		return
	}
	i := ctx.Interaction
	reply := ctx.Reply()

	var sendErr error
	switch {
	case InteractionKind(i) == KindAutocomplete:
		sendErr = reply.Autocomplete(i, nil)
	case !Repliable(i):
		return
	default:
		var cmdErr *CommandError
		var valErr *ValidationError
		switch {
		case errors.As(err, &cmdErr):
			reply = reply.WithConfig(ResponseConfig{Ephemeral: cmdErr.Ephemeral})
			sendErr = reply.Custom(i, cmdErr.Message, nil)
		case errors.As(err, &valErr):
			sendErr = reply.Error(i, valErr.Message)
		default:
			sendErr = reply.Ephemeral(i, GenericFailureMessage)
		}
	}
	if sendErr != nil {
		ctx.Logger.Warn("Failed to report interaction failure", "error", sendErr)
	}
}

// GetRegistry retorna o registry de comandos
func (cr *CommandRouter) GetRegistry() *CommandRegistry {
	return cr.registry
}

// CommandManager gerencia o ciclo de vida dos comandos
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
	logger  *slog.Logger
}

// NewCommandManager cria um novo gerenciador de comandos
func NewCommandManager(session *discordgo.Session, opts ...RouterOption) *CommandManager {
	return &CommandManager{
		session: session,
		router:  NewCommandRouter(session, opts...),
		logger:  log.DiscordLogger().With("component", "command_manager"),
	}
}

// GetRouter retorna o roteador de comandos
func (cm *CommandManager) GetRouter() *CommandRouter {
	return cm.router
}

// SetupCommands sincroniza os comandos do código com o Discord. An empty
// appID falls back to the logged-in bot user; an empty guildID syncs global
// commands.
func (cm *CommandManager) SetupCommands(appID, guildID string) error {
	appID = strings.TrimSpace(appID)
	if appID == "" && cm.session.State != nil && cm.session.State.User != nil {
		appID = cm.session.State.User.ID
	}
	if appID == "" {
		return fmt.Errorf("setup commands: application id is unknown")
	}

	// Obter comandos já registrados no Discord
	registered, err := cm.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("failed to fetch registered commands: %w", err)
	}

	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()

	// Criar/Atualizar comandos conforme necessário
	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}

		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				cm.logger.Debug("Command unchanged, skipping", "command", name)
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(appID, guildID, existing.ID, desired); err != nil {
				return fmt.Errorf("error updating command '%s': %w", name, err)
			}
			cm.logger.Info("Command updated", "command", name)
			updated++
			continue
		}

		if _, err := cm.session.ApplicationCommandCreate(appID, guildID, desired); err != nil {
			return fmt.Errorf("error creating command '%s': %w", name, err)
		}
		cm.logger.Info("Command created", "command", name)
		created++
	}

	// Remover comandos órfãos (existem no Discord mas não no código)
	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; exists {
			continue
		}
		if err := cm.session.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			cm.logger.Warn("Error removing orphan command", "command", rc.Name, "error", err)
			continue
		}
		cm.logger.Info("Orphan command removed", "command", rc.Name)
		deleted++
	}

	cm.logger.Info("Command synchronization completed",
		"created", created,
		"updated", updated,
		"deleted", deleted,
		"unchanged", unchanged,
		"total", len(codeCommands),
		"guild_id", guildID,
	)
	return nil
}
