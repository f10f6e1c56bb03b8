package memes

import "strings"

// FlowKind tells which step of the meme flow a token belongs to.
type FlowKind int

const (
	// FlowCreate tokens ride on the "create meme" / "reuse" button.
	FlowCreate FlowKind = iota + 1
	// FlowBuild tokens identify the caption modal.
	FlowBuild
)

// Wire prefixes used in Discord custom IDs.
const (
	CreatePrefix = "create_"
	BuildPrefix  = "builder_"
)

func (k FlowKind) String() string {
	switch k {
	case FlowCreate:
		return "create"
	case FlowBuild:
		return "build"
	default:
		return "unknown"
	}
}

func (k FlowKind) prefix() string {
	switch k {
	case FlowCreate:
		return CreatePrefix
	case FlowBuild:
		return BuildPrefix
	default:
		return ""
	}
}

// Token correlates a later interaction with the template it was minted for.
// It is only turned into a string at the Discord boundary.
type Token struct {
	Kind       FlowKind
	TemplateID string
}

// NewCreateToken returns the token carried by a reuse button.
func NewCreateToken(templateID string) Token {
	return Token{Kind: FlowCreate, TemplateID: templateID}
}

// NewBuildToken returns the token carried by a caption modal.
func NewBuildToken(templateID string) Token {
	return Token{Kind: FlowBuild, TemplateID: templateID}
}

// String serializes the token as prefix + template id.
func (t Token) String() string {
	return t.Kind.prefix() + t.TemplateID
}

// ParseToken decodes a custom ID. ok is false for unknown prefixes and for
// tokens without a template id; such interactions are not ours to handle.
func ParseToken(customID string) (Token, bool) {
	for _, kind := range []FlowKind{FlowCreate, FlowBuild} {
		id, found := strings.CutPrefix(customID, kind.prefix())
		if !found {
			continue
		}
		if id == "" {
			return Token{}, false
		}
		return Token{Kind: kind, TemplateID: id}, true
	}
	return Token{}, false
}
