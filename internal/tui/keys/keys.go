package keys

import "github.com/charmbracelet/bubbles/key"

// MonitorKeys are the bindings of the relay monitor. Normal mode navigates
// and toggles the display, insert mode edits the outgoing line
type MonitorKeys struct {
	Quit        key.Binding
	Help        key.Binding
	InsertMode  key.Binding
	Escape      key.Binding
	Clear       key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding

	Enter          key.Binding
	ToggleSendMode key.Binding
	Up             key.Binding
	Down           key.Binding
	GotoTop        key.Binding
	GotoBottom     key.Binding
}

// bind creates a binding for keys. An empty label shows the first key
func bind(label, desc string, keys ...string) key.Binding {
	if label == "" {
		label = keys[0]
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		Quit:           bind("q/ctrl+c", "disconnect", "q", "Q", "ctrl+c"),
		Help:           bind("", "more keys", "?"),
		InsertMode:     bind("i", "write a line", "i", "I"),
		Escape:         bind("", "stop writing", "esc"),
		Clear:          bind("", "clear received lines", "c"),
		ToggleHex:      bind("", "hex column", "h"),
		ToggleASCII:    bind("", "text column", "a"),
		Enter:          bind("", "send to device", "enter"),
		ToggleSendMode: bind("", "text/hex input", "tab"),
		Up:             bind("↑/k", "scroll up", "up", "k"),
		Down:           bind("↓/j", "scroll down", "down", "j"),
		GotoTop:        bind("", "oldest line", "g"),
		GotoBottom:     bind("", "follow new lines", "G"),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Enter, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Enter, k.ToggleSendMode},
		{k.Clear, k.ToggleHex, k.ToggleASCII},
		{k.GotoTop, k.GotoBottom, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
