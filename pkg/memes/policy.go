package memes

import (
	"fmt"
	"strings"
)

// Visibility controls who can see the final meme reply.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityEphemeral Visibility = "ephemeral"
)

// Presentation controls how a meme reply is rendered.
type Presentation string

const (
	PresentationEmbed Presentation = "embed"
	PresentationText  Presentation = "text"
)

// MatchPolicy controls how autocomplete input is matched against names.
// Both policies are case-insensitive and ignore surrounding whitespace.
type MatchPolicy string

const (
	MatchSubstring MatchPolicy = "substring"
	MatchPrefix    MatchPolicy = "prefix"
)

// Options selects the reply and matching policies of a Flow.
type Options struct {
	ReplyVisibility   Visibility
	Presentation      Presentation
	AutocompleteMatch MatchPolicy
}

// DefaultOptions returns public embed replies with substring matching.
func DefaultOptions() Options {
	return Options{
		ReplyVisibility:   VisibilityPublic,
		Presentation:      PresentationEmbed,
		AutocompleteMatch: MatchSubstring,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseVisibility parses a configured visibility. Empty selects the default.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(normalize(s)); v {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityEphemeral:
		return v, nil
	default:
		return "", fmt.Errorf("invalid reply visibility %q (want public or ephemeral)", s)
	}
}

// ParsePresentation parses a configured presentation. Empty selects the default.
func ParsePresentation(s string) (Presentation, error) {
	switch p := Presentation(normalize(s)); p {
	case "":
		return PresentationEmbed, nil
	case PresentationEmbed, PresentationText:
		return p, nil
	case "plaintext", "plain":
		return PresentationText, nil
	default:
		return "", fmt.Errorf("invalid presentation %q (want embed or text)", s)
	}
}

// ParseMatchPolicy parses a configured match policy. Empty selects the default.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch m := MatchPolicy(normalize(s)); m {
	case "":
		return MatchSubstring, nil
	case MatchSubstring, MatchPrefix:
		return m, nil
	default:
		return "", fmt.Errorf("invalid autocomplete match %q (want substring or prefix)", s)
	}
}

// Matches reports whether name satisfies the policy for the partial input.
// Blank input matches everything.
func (p MatchPolicy) Matches(name, input string) bool {
	needle := normalize(input)
	if needle == "" {
		return true
	}
	hay := strings.ToLower(name)
	if p == MatchPrefix {
		return strings.HasPrefix(hay, needle)
	}
	return strings.Contains(hay, needle)
}
