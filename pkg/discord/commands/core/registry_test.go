package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/memebot/pkg/metrics"
)

type testCommand struct {
	name          string
	requiresGuild bool
	handler       func(*Context) error
}

func (tc testCommand) Name() string        { return tc.name }
func (tc testCommand) Description() string { return tc.name }
func (tc testCommand) Options() []*discordgo.ApplicationCommandOption {
	return nil
}
func (tc testCommand) Handle(ctx *Context) error {
	if tc.handler != nil {
		return tc.handler(ctx)
	}
	return nil
}
func (tc testCommand) RequiresGuild() bool { return tc.requiresGuild }

// wireResponse mirrors the callback JSON so tests do not depend on how
// discordgo decodes component interfaces.
type wireResponse struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data struct {
		Content string                 `json:"content"`
		Flags   discordgo.MessageFlags `json:"flags"`
		Choices []struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"choices"`
	} `json:"data"`
}

type responseRecorder struct {
	mu        sync.Mutex
	responses []wireResponse
}

func (r *responseRecorder) add(resp wireResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
}

func (r *responseRecorder) all() []wireResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wireResponse, len(r.responses))
	copy(out, r.responses)
	return out
}

func newTestSession(t *testing.T) (*discordgo.Session, *responseRecorder) {
	t.Helper()
	rec := &responseRecorder{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/callback") {
			var resp wireResponse
			_ = json.NewDecoder(r.Body).Decode(&resp)
			rec.add(resp)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	oldAPI := discordgo.EndpointAPI
	oldWebhooks := discordgo.EndpointWebhooks
	discordgo.EndpointAPI = server.URL + "/"
	discordgo.EndpointWebhooks = server.URL + "/webhooks/"
	t.Cleanup(func() {
		discordgo.EndpointAPI = oldAPI
		discordgo.EndpointWebhooks = oldWebhooks
	})

	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session, rec
}

func buildInteraction(command, guildID, userID string) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{
		ID:      "cmd-" + command,
		Name:    command,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{},
	}
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:      "interaction-" + command,
			AppID:   "app",
			Token:   "token",
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: guildID,
			Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
			Data:    data,
		},
	}
}

func buildComponent(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:    "interaction-" + customID,
			AppID: "app",
			Token: "token",
			Type:  discordgo.InteractionMessageComponent,
			User:  &discordgo.User{ID: "user"},
			Data:  discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
		},
	}
}

type observedCall struct {
	kind    string
	outcome string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (o *recordingObserver) ObserveInteraction(kind, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedCall{kind: kind, outcome: outcome})
}

func (o *recordingObserver) last(t *testing.T) observedCall {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.calls) == 0 {
		t.Fatalf("expected an observed interaction")
	}
	return o.calls[len(o.calls)-1]
}

func singleResponse(t *testing.T, rec *responseRecorder) wireResponse {
	t.Helper()
	responses := rec.all()
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	return responses[0]
}

func TestCommandRegistryRegisterLookup(t *testing.T) {
	registry := NewCommandRegistry()
	first := testCommand{name: "ping"}
	registry.Register(first)

	if got, ok := registry.GetCommand("ping"); !ok || got.Name() != first.Name() {
		t.Fatalf("expected to find command, got ok=%v value=%v", ok, got)
	}

	second := testCommand{name: "ping", requiresGuild: true}
	registry.Register(second)
	if got, ok := registry.GetCommand("ping"); !ok || got.RequiresGuild() != second.requiresGuild {
		t.Fatalf("expected duplicate registration to overwrite, got ok=%v value=%v", ok, got)
	}
}

func TestHandleSlashCommandUnknownCommand(t *testing.T) {
	session, rec := newTestSession(t)
	router := NewCommandRouter(session)

	router.HandleInteraction(session, buildInteraction("missing", "guild", "user"))

	resp := singleResponse(t, rec)
	if !strings.Contains(resp.Data.Content, "Command not found") {
		t.Fatalf("unexpected content: %q", resp.Data.Content)
	}
	if resp.Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatalf("expected ephemeral flag to be set")
	}
}

func TestHandleSlashCommandRequiresGuild(t *testing.T) {
	session, rec := newTestSession(t)
	router := NewCommandRouter(session)

	router.RegisterCommand(testCommand{name: "guild", requiresGuild: true, handler: func(*Context) error {
		t.Fatalf("handler should not execute when missing guild")
		return nil
	}})

	router.HandleInteraction(session, buildInteraction("guild", "", "user"))

	resp := singleResponse(t, rec)
	if !strings.Contains(resp.Data.Content, "only be used in a server") {
		t.Fatalf("unexpected content: %q", resp.Data.Content)
	}
}

func TestHandleSlashCommandCommandErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectFlag bool
		expect     string
	}{
		{name: "ephemeral", err: NewCommandError("boom", true), expectFlag: true, expect: "boom"},
		{name: "public", err: NewCommandError("boom", false), expectFlag: false, expect: "boom"},
		{name: "validation", err: NewValidationError("template", "bad template"), expectFlag: true, expect: "❌ bad template"},
		{name: "unexpected", err: errors.New("database exploded"), expectFlag: true, expect: GenericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, rec := newTestSession(t)
			router := NewCommandRouter(session)

			router.RegisterCommand(testCommand{name: "cmd", handler: func(*Context) error {
				return tt.err
			}})

			router.HandleInteraction(session, buildInteraction("cmd", "guild", "user"))

			resp := singleResponse(t, rec)
			gotFlag := resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
			if gotFlag != tt.expectFlag {
				t.Fatalf("ephemeral flag mismatch: got %v want %v", gotFlag, tt.expectFlag)
			}
			if resp.Data.Content != tt.expect {
				t.Fatalf("unexpected content: %q", resp.Data.Content)
			}
		})
	}
}

func TestHandleInteractionRecoversPanics(t *testing.T) {
	session, rec := newTestSession(t)
	obs := &recordingObserver{}
	router := NewCommandRouter(session, WithObserver(obs))

	router.RegisterCommand(testCommand{name: "boom", handler: func(*Context) error {
		panic("kaboom")
	}})

	router.HandleInteraction(session, buildInteraction("boom", "guild", "user"))

	resp := singleResponse(t, rec)
	if resp.Data.Content != GenericFailureMessage {
		t.Fatalf("unexpected content: %q", resp.Data.Content)
	}
	if resp.Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatalf("expected ephemeral flag to be set")
	}
	if got := obs.last(t); got != (observedCall{kind: KindCommand, outcome: metrics.OutcomePanic}) {
		t.Fatalf("unexpected observation: %+v", got)
	}
}

func TestHandleInteractionSkipsReportAfterResponse(t *testing.T) {
	session, rec := newTestSession(t)
	obs := &recordingObserver{}
	router := NewCommandRouter(session, WithObserver(obs))

	router.RegisterCommand(testCommand{name: "late", handler: func(ctx *Context) error {
		if err := ctx.Reply().Info(ctx.Interaction, "working"); err != nil {
			return err
		}
		return errors.New("follow-up failed")
	}})

	router.HandleInteraction(session, buildInteraction("late", "guild", "user"))

	resp := singleResponse(t, rec)
	if resp.Data.Content != "ℹ️ working" {
		t.Fatalf("unexpected content: %q", resp.Data.Content)
	}
	if got := obs.last(t); got.outcome != metrics.OutcomeError {
		t.Fatalf("expected error outcome, got %+v", got)
	}
}

type autocompleteFunc func(*Context, *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error)

func (f autocompleteFunc) HandleAutocomplete(ctx *Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	return f(ctx, focused)
}

func buildAutocomplete(command, value string) *discordgo.InteractionCreate {
	i := buildInteraction(command, "guild", "user")
	i.Type = discordgo.InteractionApplicationCommandAutocomplete
	i.Data = discordgo.ApplicationCommandInteractionData{
		Name: command,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "template", Type: discordgo.ApplicationCommandOptionString, Value: value, Focused: true},
		},
	}
	return i
}

func TestHandleAutocompletePassesFocusedOption(t *testing.T) {
	session, rec := newTestSession(t)
	router := NewCommandRouter(session)

	var seen string
	router.RegisterAutocomplete("meme", autocompleteFunc(func(_ *Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		seen = focused.StringValue()
		var utils AutocompleteUtils
		return []*discordgo.ApplicationCommandOptionChoice{utils.CreateChoice("Drake", "Drake")}, nil
	}))

	router.HandleInteraction(session, buildAutocomplete("meme", "dra"))

	if seen != "dra" {
		t.Fatalf("expected focused value %q, got %q", "dra", seen)
	}
	resp := singleResponse(t, rec)
	if resp.Type != discordgo.InteractionApplicationCommandAutocompleteResult {
		t.Fatalf("unexpected response type: %v", resp.Type)
	}
	if len(resp.Data.Choices) != 1 || resp.Data.Choices[0].Name != "Drake" {
		t.Fatalf("unexpected choices: %+v", resp.Data.Choices)
	}
}

func TestHandleAutocompleteFailureSendsEmptyChoices(t *testing.T) {
	session, rec := newTestSession(t)
	router := NewCommandRouter(session)

	router.RegisterAutocomplete("meme", autocompleteFunc(func(*Context, *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		return nil, errors.New("catalog unavailable")
	}))

	router.HandleInteraction(session, buildAutocomplete("meme", "x"))

	resp := singleResponse(t, rec)
	if resp.Type != discordgo.InteractionApplicationCommandAutocompleteResult {
		t.Fatalf("unexpected response type: %v", resp.Type)
	}
	if len(resp.Data.Choices) != 0 {
		t.Fatalf("expected no choices, got %+v", resp.Data.Choices)
	}
}

func TestAutocompleteResponseIsCapped(t *testing.T) {
	session, rec := newTestSession(t)
	router := NewCommandRouter(session)

	router.RegisterAutocomplete("meme", autocompleteFunc(func(*Context, *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		var utils AutocompleteUtils
		out := make([]*discordgo.ApplicationCommandOptionChoice, 0, 40)
		for n := 0; n < 40; n++ {
			out = append(out, utils.CreateChoice("t", "t"))
		}
		return out, nil
	}))

	router.HandleInteraction(session, buildAutocomplete("meme", ""))

	resp := singleResponse(t, rec)
	if len(resp.Data.Choices) != MaxAutocompleteChoices {
		t.Fatalf("expected %d choices, got %d", MaxAutocompleteChoices, len(resp.Data.Choices))
	}
}

func TestComponentRoutingByPrefix(t *testing.T) {
	session, rec := newTestSession(t)
	obs := &recordingObserver{}
	router := NewCommandRouter(session, WithObserver(obs))

	var routed []string
	router.RegisterComponentHandler("create_", func(_ *Context, data discordgo.MessageComponentInteractionData) error {
		routed = append(routed, "short:"+data.CustomID)
		return nil
	})
	router.RegisterComponentHandler("create_special_", func(_ *Context, data discordgo.MessageComponentInteractionData) error {
		routed = append(routed, "long:"+data.CustomID)
		return nil
	})

	router.HandleInteraction(session, buildComponent("create_42"))
	router.HandleInteraction(session, buildComponent("create_special_7"))
	router.HandleInteraction(session, buildComponent("someone_else"))

	want := []string{"short:create_42", "long:create_special_7"}
	if strings.Join(routed, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected routing: %v", routed)
	}
	if len(rec.all()) != 0 {
		t.Fatalf("unmatched components must not be answered")
	}
	if got := obs.last(t); got != (observedCall{kind: KindComponent, outcome: metrics.OutcomeIgnored}) {
		t.Fatalf("unexpected observation: %+v", got)
	}
}

func TestModalRoutingAndValues(t *testing.T) {
	session, _ := newTestSession(t)
	router := NewCommandRouter(session)

	var got map[string]string
	router.RegisterModalHandler("builder_", func(_ *Context, data discordgo.ModalSubmitInteractionData) error {
		got = ModalValues(data)
		return nil
	})

	router.HandleInteraction(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:    "modal",
			AppID: "app",
			Token: "token",
			Type:  discordgo.InteractionModalSubmit,
			User:  &discordgo.User{ID: "user"},
			Data: discordgo.ModalSubmitInteractionData{
				CustomID: "builder_1",
				Components: []discordgo.MessageComponent{
					&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						&discordgo.TextInput{CustomID: "0", Value: "top"},
					}},
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.TextInput{CustomID: "1", Value: "bottom"},
					}},
				},
			},
		},
	})

	if got["0"] != "top" || got["1"] != "bottom" || len(got) != 2 {
		t.Fatalf("unexpected modal values: %v", got)
	}
}

func TestDisplayNamePrecedence(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Nick: "Nick", User: &discordgo.User{ID: "1", Username: "user", GlobalName: "Global"}},
	}}
	if got := DisplayName(i); got != "Nick" {
		t.Fatalf("expected nickname, got %q", got)
	}
	i.Member.Nick = ""
	if got := DisplayName(i); got != "Global" {
		t.Fatalf("expected global name, got %q", got)
	}
	i.Member.User.GlobalName = ""
	if got := DisplayName(i); got != "user" {
		t.Fatalf("expected username, got %q", got)
	}
	i.Member = nil
	i.User = &discordgo.User{ID: "2", Username: "dm-user"}
	if got := DisplayName(i); got != "dm-user" {
		t.Fatalf("expected direct user, got %q", got)
	}
}

type commandCall struct {
	method string
	path   string
	body   string
}

func TestSetupCommandsIncrementalSync(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []commandCall
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, commandCall{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[
				{"id": "1", "name": "keep", "description": "keep"},
				{"id": "2", "name": "change", "description": "old"},
				{"id": "3", "name": "orphan", "description": "orphan"}
			]`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"id": "9", "name": "x", "description": "x"}`))
		}
	}))
	t.Cleanup(server.Close)

	oldApps := discordgo.EndpointApplications
	discordgo.EndpointApplications = server.URL + "/applications"
	t.Cleanup(func() { discordgo.EndpointApplications = oldApps })

	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	manager := NewCommandManager(session)
	router := manager.GetRouter()
	router.RegisterCommand(testCommand{name: "keep"})
	router.RegisterCommand(testCommand{name: "change"})
	router.RegisterCommand(testCommand{name: "new"})
	// "change" differs because its description is its name.

	if err := manager.SetupCommands("app", ""); err != nil {
		t.Fatalf("setup commands: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	counts := map[string]int{}
	for _, c := range calls {
		counts[c.method]++
		switch c.method {
		case http.MethodPatch:
			if !strings.HasSuffix(c.path, "/commands/2") {
				t.Fatalf("unexpected edit path %q", c.path)
			}
		case http.MethodDelete:
			if !strings.HasSuffix(c.path, "/commands/3") {
				t.Fatalf("unexpected delete path %q", c.path)
			}
		case http.MethodPost:
			if !strings.Contains(c.body, `"name":"new"`) {
				t.Fatalf("unexpected create body %q", c.body)
			}
		}
	}
	want := map[string]int{http.MethodGet: 1, http.MethodPatch: 1, http.MethodPost: 1, http.MethodDelete: 1}
	for method, n := range want {
		if counts[method] != n {
			t.Fatalf("expected %d %s calls, got %d (%v)", n, method, counts[method], calls)
		}
	}
}

func TestSetupCommandsRequiresApplicationID(t *testing.T) {
	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := NewCommandManager(session).SetupCommands("  ", ""); err == nil {
		t.Fatalf("expected error without application id")
	}
}

func TestSlowInteractionIsLogged(t *testing.T) {
	session, _ := newTestSession(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := NewCommandRouter(session, WithLogger(logger), WithSlowThreshold(time.Nanosecond))
	router.RegisterCommand(testCommand{name: "sleepy", handler: func(*Context) error {
		time.Sleep(time.Millisecond)
		return nil
	}})
	router.HandleInteraction(session, buildInteraction("sleepy", "guild", "user"))

	if !strings.Contains(buf.String(), "Slow interaction") {
		t.Fatalf("expected slow interaction warning, got %q", buf.String())
	}

	buf.Reset()
	quiet := NewCommandRouter(session, WithLogger(logger), WithSlowThreshold(0))
	quiet.RegisterCommand(testCommand{name: "sleepy"})
	quiet.HandleInteraction(session, buildInteraction("sleepy", "guild", "user"))
	if strings.Contains(buf.String(), "Slow interaction") {
		t.Fatalf("zero threshold must disable the warning")
	}
}
