package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/TimelordUK/novelreader/internal/config"
)

// KeyMap holds the reader's bindings
type KeyMap struct {
	Next        key.Binding
	Previous    key.Binding
	JumpForward key.Binding
	JumpBack    key.Binding
	Toggle      key.Binding
	Left        key.Binding
	Right       key.Binding
	Up          key.Binding
	Down        key.Binding
	Quit        key.Binding
}

// KeyMapFromConfig builds bindings from the [keybindings] section
func KeyMapFromConfig(cfg config.KeybindingConfig) KeyMap {
	bind := func(keys []string, desc string) key.Binding {
		help := ""
		if len(keys) > 0 {
			help = keys[0]
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}
	return KeyMap{
		Next:        bind(cfg.Next, "next"),
		Previous:    bind(cfg.Previous, "prev"),
		JumpForward: bind(cfg.JumpForward, "jump fwd"),
		JumpBack:    bind(cfg.JumpBack, "jump back"),
		Toggle:      bind(cfg.ToggleVisibility, "hide/show"),
		Left:        bind(cfg.MoveLeft, "move"),
		Right:       bind(cfg.MoveRight, "move"),
		Up:          bind(cfg.MoveUp, "move"),
		Down:        bind(cfg.MoveDown, "move"),
		Quit:        bind(cfg.Quit, "quit"),
	}
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMapFromConfig(config.DefaultConfig().Keybindings)
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Previous, k.JumpForward, k.JumpBack, k.Toggle, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.ShortHelp(),
		{k.Left, k.Right, k.Up, k.Down},
	}
}
