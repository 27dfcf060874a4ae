package configurator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/config"
)

// Command names a configurator action that can be rebound.
type Command string

const (
	CmdQuit       Command = "quit"
	CmdToggleHelp Command = "toggle-help"
	CmdNextPanel  Command = "next-panel"
	CmdCursorUp   Command = "cursor-up"
	CmdCursorDown Command = "cursor-down"
	CmdToggle     Command = "toggle"
	CmdEnable     Command = "enable"
	CmdCycle      Command = "cycle"
	CmdUndo       Command = "undo"
	CmdReset      Command = "reset"
	CmdWrite      Command = "write"
	CmdSavePreset Command = "save-preset"
)

// KeyMap holds the configurator's bindings. It implements help.KeyMap.
type KeyMap struct {
	Quit       key.Binding
	Help       key.Binding
	NextPanel  key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Enable     key.Binding
	Cycle      key.Binding
	Undo       key.Binding
	Reset      key.Binding
	Write      key.Binding
	SavePreset key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		NextPanel:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch panel")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Enable:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable with prerequisites")),
		Cycle:      key.NewBinding(key.WithKeys("c", "right"), key.WithHelp("c/→", "next option")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Reset:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
		Write:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write file")),
		SavePreset: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save preset")),
	}
}

func (k *KeyMap) binding(cmd Command) *key.Binding {
	switch cmd {
	case CmdQuit:
		return &k.Quit
	case CmdToggleHelp:
		return &k.Help
	case CmdNextPanel:
		return &k.NextPanel
	case CmdCursorUp:
		return &k.Up
	case CmdCursorDown:
		return &k.Down
	case CmdToggle:
		return &k.Toggle
	case CmdEnable:
		return &k.Enable
	case CmdCycle:
		return &k.Cycle
	case CmdUndo:
		return &k.Undo
	case CmdReset:
		return &k.Reset
	case CmdWrite:
		return &k.Write
	case CmdSavePreset:
		return &k.SavePreset
	}
	return nil
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Enable, k.NextPanel, k.Write, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPanel},
		{k.Toggle, k.Enable, k.Cycle},
		{k.Undo, k.Reset},
		{k.Write, k.SavePreset, k.Help, k.Quit},
	}
}

// KeymapFile is the user override file, relative to the base directory.
const KeymapFile = "keymap.json"

// KeymapConfig is the on-disk override format, e.g.
// {"bindings": {"toggle": ["x", "enter"], "write": ["ctrl+s"]}}.
type KeymapConfig struct {
	Bindings map[string][]string `json:"bindings"`
}

// KeymapPath returns the override file under baseDir.
func KeymapPath(baseDir string) string {
	return filepath.Join(baseDir, config.Dir, KeymapFile)
}

// LoadKeyMap returns the default bindings with the overrides from path
// applied. A missing file is not an error.
func LoadKeyMap(path string) (KeyMap, error) {
	km := DefaultKeyMap()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return km, nil
		}
		return km, errors.Wrap(err, "read keymap")
	}
	var kc KeymapConfig
	if err := json.Unmarshal(data, &kc); err != nil {
		return km, errors.Wrapf(err, "parse keymap %s", path)
	}
	if err := km.Apply(kc); err != nil {
		return DefaultKeyMap(), err
	}
	return km, nil
}

// Apply rebinds every command named in kc. Unknown commands are rejected.
func (k *KeyMap) Apply(kc KeymapConfig) error {
	names := make([]string, 0, len(kc.Bindings))
	for name := range kc.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := k.binding(Command(name))
		if b == nil {
			return errors.Newf("unknown command %q in keymap", name)
		}
		keys := kc.Bindings[name]
		if len(keys) == 0 {
			b.SetEnabled(false)
			continue
		}
		b.SetKeys(keys...)
		b.SetHelp(keys[0], b.Help().Desc)
	}
	return nil
}
