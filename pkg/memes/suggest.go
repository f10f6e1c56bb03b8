package memes

import "github.com/small-frappuccino/memebot/pkg/imgflip"

// MaxSuggestions is Discord's limit on autocomplete choices.
const MaxSuggestions = 25

// Suggestion is one autocomplete choice. Name and Value are always equal.
type Suggestion struct {
	Name  string
	Value string
}

// Suggest filters templates by policy in catalog order, keeping at most
// MaxSuggestions entries.
func Suggest(templates []imgflip.Template, input string, policy MatchPolicy) []Suggestion {
	out := make([]Suggestion, 0, min(len(templates), MaxSuggestions))
	for _, t := range templates {
		if len(out) == MaxSuggestions {
			break
		}
		if !policy.Matches(t.Name, input) {
			continue
		}
		out = append(out, Suggestion{Name: t.Name, Value: t.Name})
	}
	return out
}
