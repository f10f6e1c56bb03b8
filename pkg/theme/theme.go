package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Color is the int value used by discordgo.MessageEmbed.Color
type Color = int

// Theme holds the color roles used by meme embeds and error replies.
type Theme struct {
	// Human-friendly name for the theme (unique within the registry).
	Name string

	Primary Color
	Accent  Color
	Error   Color
	Muted   Color

	// Sample embeds are the ephemeral previews with placeholder captions.
	MemeSample Color
	// Final embeds carry the user's own captions.
	MemeFinal Color
}

// Clone returns a copy of the Theme.
func (t *Theme) Clone() *Theme {
	cp := *t
	return &cp
}

// ensureDefaults fills zero-valued fields from related roles so themes can
// override only a subset.
func (t *Theme) ensureDefaults() {
	if t.Primary == 0 {
		t.Primary = 0x5865F2
	}
	if t.Accent == 0 {
		t.Accent = t.Primary
	}
	if t.Error == 0 {
		t.Error = 0xED4245
	}
	if t.Muted == 0 {
		t.Muted = 0x99AAB5
	}
	if t.MemeSample == 0 {
		t.MemeSample = t.Muted
	}
	if t.MemeFinal == 0 {
		t.MemeFinal = t.Accent
	}
}

func defaultTheme() *Theme {
	th := &Theme{
		Name:       "default",
		Primary:    0x5865F2, // Discord blurple
		Error:      0xED4245,
		Muted:      0x99AAB5,
		MemeSample: 0x99AAB5,
		MemeFinal:  0x5865F2,
	}
	th.ensureDefaults()
	return th
}

var (
	mu        sync.RWMutex
	registry  = map[string]*Theme{}
	currentTh = defaultTheme()
)

// Register adds a theme to the registry. It returns an error if the name is empty or already registered.
func Register(t *Theme) error {
	if t == nil {
		return fmt.Errorf("theme: cannot register nil theme")
	}
	if t.Name == "" {
		return fmt.Errorf("theme: name is required")
	}
	cp := t.Clone()
	cp.ensureDefaults()

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[cp.Name]; exists {
		return fmt.Errorf("theme: theme %q already registered", cp.Name)
	}
	registry[cp.Name] = cp
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(t *Theme) {
	if err := Register(t); err != nil {
		panic(err)
	}
}

// SetCurrent switches the active theme by name. Empty or "default" resets.
func SetCurrent(name string) error {
	name = strings.TrimSpace(name)
	mu.Lock()
	defer mu.Unlock()
	if name == "" || name == "default" {
		currentTh = defaultTheme()
		return nil
	}
	th, ok := registry[name]
	if !ok {
		return fmt.Errorf("theme: theme %q not found", name)
	}
	currentTh = th.Clone()
	return nil
}

// Names lists the registered themes, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry)+1)
	names = append(names, "default")
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names[1:])
	return names
}

// Current returns a copy of the current theme.
func Current() *Theme {
	mu.RLock()
	defer mu.RUnlock()
	return currentTh.Clone()
}

func MemeSample() Color { return Current().MemeSample }
func MemeFinal() Color  { return Current().MemeFinal }
