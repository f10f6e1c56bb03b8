// Package memes holds the platform-independent meme flow: autocomplete,
// template selection, the reuse button and the caption modal. Every call
// handles one interaction using only what the interaction itself carries.
package memes

import (
	"context"
	"log/slog"

	"github.com/small-frappuccino/memebot/pkg/imgflip"
	"github.com/small-frappuccino/memebot/pkg/log"
)

// Generator renders captions onto a template.
type Generator interface {
	CreateMeme(ctx context.Context, templateID string, captions []string) (imgflip.MemeResult, error)
}

// API is the subset of the imgflip client used by the flow.
type API interface {
	Catalog
	Generator
}

// UsageRecorder is told about every meme that was created.
type UsageRecorder interface {
	RecordTemplateUsage(ctx context.Context, templateID, templateName string) error
}

// State is the terminal state reached by one interaction.
type State int

const (
	// StateNoop means the interaction was not addressed to this flow.
	StateNoop State = iota
	// StateInvalidInput means the user named a template that does not exist.
	StateInvalidInput
	// StateMemeCreated means a meme was rendered and should be posted.
	StateMemeCreated
	// StateDialogShown means the caption modal should be opened.
	StateDialogShown
)

func (s State) String() string {
	switch s {
	case StateNoop:
		return "noop"
	case StateInvalidInput:
		return "invalid_input"
	case StateMemeCreated:
		return "meme_created"
	case StateDialogShown:
		return "dialog_shown"
	default:
		return "unknown"
	}
}

// Result describes what to reply with. Template and Token are set for
// StateMemeCreated and StateDialogShown; Meme only for StateMemeCreated.
type Result struct {
	State    State
	Template imgflip.Template
	Meme     imgflip.MemeResult
	Token    Token
}

// Flow runs the meme state machine. It keeps no per-interaction state and
// is safe for concurrent use.
type Flow struct {
	api    API
	opts   Options
	usage  UsageRecorder
	logger *slog.Logger
}

// FlowOption customizes a Flow.
type FlowOption func(*Flow)

// WithUsageRecorder records every created meme.
func WithUsageRecorder(r UsageRecorder) FlowOption {
	return func(f *Flow) { f.usage = r }
}

// WithLogger overrides the logger used for non-fatal failures.
func WithLogger(l *slog.Logger) FlowOption {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFlow builds a flow around api.
func NewFlow(api API, opts Options, options ...FlowOption) *Flow {
	f := &Flow{api: api, opts: opts}
	for _, opt := range options {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.ApplicationLogger()
	}
	return f
}

// Options returns the reply policies the flow was built with.
func (f *Flow) Options() Options {
	return f.opts
}

// Autocomplete returns the templates matching a partial name.
func (f *Flow) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	templates, err := NewSnapshot(f.api).Templates(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(templates, input, f.opts.AutocompleteMatch), nil
}

// Select handles the slash command: it renders a sample meme with
// placeholder captions for the named template.
func (f *Flow) Select(ctx context.Context, name string) (Result, error) {
	tmpl, ok, err := NewSnapshot(f.api).ByName(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{State: StateInvalidInput}, nil
	}
	if tmpl.BoxCount <= 0 {
		return Result{}, invariantf("template %s (%s) has no caption boxes", tmpl.ID, tmpl.Name)
	}
	return f.create(ctx, tmpl, DefaultCaptions(tmpl.BoxCount))
}

// PressButton handles a click on a create/reuse button.
func (f *Flow) PressButton(ctx context.Context, customID string) (Result, error) {
	token, ok := ParseToken(customID)
	if !ok || token.Kind != FlowCreate {
		return Result{State: StateNoop}, nil
	}
	tmpl, err := f.resolve(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return Result{
		State:    StateDialogShown,
		Template: tmpl,
		Token:    NewBuildToken(tmpl.ID),
	}, nil
}

// SubmitDialog handles a submitted caption modal. field returns the raw
// value of the input with the given key.
func (f *Flow) SubmitDialog(ctx context.Context, customID string, field func(key string) string) (Result, error) {
	token, ok := ParseToken(customID)
	if !ok || token.Kind != FlowBuild {
		return Result{State: StateNoop}, nil
	}
	tmpl, err := f.resolve(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return f.create(ctx, tmpl, CollectCaptions(tmpl.BoxCount, field))
}

// resolve loads the template a token points at. The token was minted from
// a fetched template, so absence is an invariant violation.
func (f *Flow) resolve(ctx context.Context, token Token) (imgflip.Template, error) {
	tmpl, ok, err := NewSnapshot(f.api).ByID(ctx, token.TemplateID)
	if err != nil {
		return imgflip.Template{}, err
	}
	if !ok {
		return imgflip.Template{}, invariantf("template %s from %s token not found", token.TemplateID, token.Kind)
	}
	if tmpl.BoxCount <= 0 {
		return imgflip.Template{}, invariantf("template %s (%s) has no caption boxes", tmpl.ID, tmpl.Name)
	}
	return tmpl, nil
}

func (f *Flow) create(ctx context.Context, tmpl imgflip.Template, captions []string) (Result, error) {
	meme, err := f.api.CreateMeme(ctx, tmpl.ID, captions)
	if err != nil {
		return Result{}, err
	}
	if f.usage != nil {
		if err := f.usage.RecordTemplateUsage(ctx, tmpl.ID, tmpl.Name); err != nil {
			f.logger.Warn("Failed to record template usage", "template_id", tmpl.ID, "err", err)
		}
	}
	return Result{
		State:    StateMemeCreated,
		Template: tmpl,
		Meme:     meme,
		Token:    NewCreateToken(tmpl.ID),
	}, nil
}
