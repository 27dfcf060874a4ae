// Package configurator is the interactive feature picker: a list of catalog
// features on the left, the generated code on the right.
package configurator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/presets"
	"github.com/marcus/byot/internal/session"
	"github.com/marcus/byot/internal/textdiff"
)

// Panel represents which panel is active
type Panel int

const (
	PanelFeatures Panel = iota
	PanelCode
)

// MinWidth is the minimum terminal width for the two-pane layout
const MinWidth = 60

// MinHeight is the minimum terminal height for the two-pane layout
const MinHeight = 15

// highlightDuration is how long changed lines stay highlighted.
const highlightDuration = time.Second

// ErrNoPresetStore is reported when saving a preset without a store.
var ErrNoPresetStore = errors.New("no preset store configured")

// Model is the Bubble Tea model for the configurator.
type Model struct {
	Session *session.Session
	BaseDir string

	// Window dimensions
	Width  int
	Height int

	// Feature list
	Rows   []Row
	Cursor int
	Offset int

	// UI state
	ActivePanel Panel
	ShowHelp    bool
	Changed     textdiff.Change
	Status      string
	Err         error

	// Preset name prompt
	Naming    bool
	NameInput textinput.Model

	code   viewport.Model
	keys   KeyMap
	help   help.Model
	store  *presets.Store
	logger *slog.Logger
	flash  int
}

// Option configures a Model.
type Option func(*Model)

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// WithPresetStore enables saving presets from the configurator.
func WithPresetStore(s *presets.Store) Option {
	return func(m *Model) { m.store = s }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// clearHighlightMsg ends the change highlight started by edit number seq.
type clearHighlightMsg struct{ seq int }

// writtenMsg reports the result of writing the code to disk.
type writtenMsg struct {
	path string
	err  error
}

// presetSavedMsg reports the result of saving a preset.
type presetSavedMsg struct {
	name string
	err  error
}

// NewModel creates a configurator over sess. baseDir is where the output
// file and the last configuration are written.
func NewModel(sess *session.Session, baseDir string, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "preset name"
	ti.CharLimit = 64

	m := Model{
		Session:     sess,
		BaseDir:     baseDir,
		Rows:        BuildRows(sess.Catalog()),
		ActivePanel: PanelFeatures,
		NameInput:   ti,
		code:        viewport.New(0, 0),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.Cursor = nextFeature(m.Rows, -1, 1)
	m.refreshCode()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Naming {
			return m.handleNameInput(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case clearHighlightMsg:
		if msg.seq == m.flash {
			m.Changed = textdiff.Change{}
			m.refreshCode()
		}
		return m, nil

	case writtenMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.Status = "Wrote " + msg.path
		return m, nil

	case presetSavedMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.Status = fmt.Sprintf("Saved preset %q", msg.name)
		return m, nil
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.persist()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
		m.help.ShowAll = m.ShowHelp
		return m, nil

	case key.Matches(msg, m.keys.NextPanel):
		if m.ActivePanel == PanelFeatures {
			m.ActivePanel = PanelCode
		} else {
			m.ActivePanel = PanelFeatures
		}
		return m, nil

	case key.Matches(msg, m.keys.Undo):
		return m.edit("", m.Session.Undo)

	case key.Matches(msg, m.keys.Reset):
		return m.edit("", func() error {
			m.Session.Reset()
			return nil
		})

	case key.Matches(msg, m.keys.Write):
		return m, m.writeCode()

	case key.Matches(msg, m.keys.SavePreset):
		if m.store == nil {
			m.Err = ErrNoPresetStore
			return m, nil
		}
		m.Naming = true
		m.NameInput.SetValue("")
		return m, m.NameInput.Focus()
	}

	if m.ActivePanel == PanelCode {
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Toggle):
		f, ok := m.current()
		if !ok {
			return m, nil
		}
		if f.Kind == catalog.Enumerated {
			return m.edit(f.Key, func() error { return m.Session.Cycle(f.Key) })
		}
		return m.edit(f.Key, func() error { return m.Session.Toggle(f.Key) })
	case key.Matches(msg, m.keys.Enable):
		if f, ok := m.current(); ok {
			return m.edit(f.Key, func() error { return m.Session.Enable(f.Key) })
		}
	case key.Matches(msg, m.keys.Cycle):
		if f, ok := m.current(); ok {
			return m.edit(f.Key, func() error { return m.Session.Cycle(f.Key) })
		}
	}
	return m, nil
}

func (m Model) handleNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Naming = false
		m.NameInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.Naming = false
		m.NameInput.Blur()
		return m, m.savePreset(strings.TrimSpace(m.NameInput.Value()))
	}
	var cmd tea.Cmd
	m.NameInput, cmd = m.NameInput.Update(msg)
	return m, cmd
}

// edit runs fn against the session and highlights what it changed in the
// generated code. A refused change leaves the code untouched and explains
// itself in the status line.
func (m Model) edit(featureKey string, fn func() error) (tea.Model, tea.Cmd) {
	before := m.Session.Code()
	if err := fn(); err != nil {
		m.Status, m.Err = "", nil
		switch {
		case errors.Is(err, session.ErrDisabled):
			m.Status = m.disabledReason(featureKey)
		case errors.Is(err, session.ErrNothingToUndo):
			m.Status = "Nothing to undo"
		default:
			m.Err = err
		}
		return m, nil
	}
	m.Status, m.Err = "", nil

	m.Changed = textdiff.Lines(before, m.Session.Code())
	m.refreshCode()
	if m.Changed.Empty() {
		return m, nil
	}
	m.revealChange()
	m.flash++
	seq := m.flash
	return m, tea.Tick(highlightDuration, func(time.Time) tea.Msg {
		return clearHighlightMsg{seq: seq}
	})
}

// disabledReason describes why key cannot be switched on.
func (m Model) disabledReason(featureKey string) string {
	reason, err := m.Session.Explain(featureKey)
	if err != nil {
		return err.Error()
	}
	var parts []string
	if len(reason.Missing) > 0 {
		parts = append(parts, "needs "+m.labels(reason.Missing))
	}
	if len(reason.Conflicts) > 0 {
		parts = append(parts, "conflicts with "+m.labels(reason.Conflicts))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("%s %s (press %s to enable it with its prerequisites)",
		m.label(featureKey), strings.Join(parts, "; "), m.keys.Enable.Help().Key)
}

func (m Model) label(featureKey string) string {
	if f, ok := m.Session.Catalog().Lookup(featureKey); ok && f.Label != "" {
		return f.Label
	}
	return featureKey
}

func (m Model) labels(keys []string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m.label(k)
	}
	return strings.Join(out, ", ")
}

// current returns the feature under the cursor.
func (m Model) current() (catalog.Feature, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) || m.Rows[m.Cursor].IsHeader() {
		return catalog.Feature{}, false
	}
	return m.Session.Catalog().Lookup(m.Rows[m.Cursor].Key)
}

func (m *Model) moveCursor(dir int) {
	m.Cursor = nextFeature(m.Rows, m.Cursor, dir)
	m.ensureVisible()
}

// ensureVisible scrolls the feature list so the cursor row is on screen.
// The section header above the first feature stays visible at the top.
func (m *Model) ensureVisible() {
	visible := m.listRows()
	if visible <= 0 {
		return
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
		if m.Offset > 0 && m.Rows[m.Offset-1].IsHeader() {
			m.Offset--
		}
	}
	if m.Cursor >= m.Offset+visible {
		m.Offset = m.Cursor - visible + 1
	}
}

// revealChange scrolls the code pane to the first changed line when it is
// off screen.
func (m *Model) revealChange() {
	first := -1
	for line := range m.Changed.Added {
		if first < 0 || line < first {
			first = line
		}
	}
	if first < 0 || m.code.Height <= 0 {
		return
	}
	if first < m.code.YOffset || first >= m.code.YOffset+m.code.Height {
		m.code.SetYOffset(max(first-2, 0))
	}
}

func (m *Model) refreshCode() {
	m.code.SetContent(m.renderCode())
}

// resize recomputes pane sizes after the terminal changed.
func (m *Model) resize() {
	_, codeWidth, bodyHeight := m.layout()
	m.code.Width = max(codeWidth-4, 0)
	m.code.Height = max(bodyHeight-3, 0)
	m.help.Width = m.Width
	m.refreshCode()
	m.ensureVisible()
}

// persist stores the configuration so the next session starts from it.
func (m Model) persist() {
	if m.BaseDir == "" {
		return
	}
	if err := config.SetLastConfig(m.BaseDir, m.Session.Snapshot().Config); err != nil {
		m.logger.Warn("save last configuration", "err", err)
	}
}

// writeCode returns a command that writes the generated code to the
// configured output file.
func (m Model) writeCode() tea.Cmd {
	path := config.OutputPath(m.BaseDir)
	code := m.Session.Code()
	logger := m.logger
	return func() tea.Msg {
		if !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return writtenMsg{path: path, err: errors.Wrap(err, "create output directory")}
		}
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return writtenMsg{path: path, err: errors.Wrapf(err, "write %s", path)}
		}
		logger.Info("wrote code", "path", path, "bytes", len(code))
		return writtenMsg{path: path}
	}
}

// savePreset returns a command that stores the current configuration
// under name.
func (m Model) savePreset(name string) tea.Cmd {
	store := m.store
	cfg := m.Session.Snapshot().Config
	return func() tea.Msg {
		p := &presets.Preset{Name: name, Config: cfg}
		if err := store.Save(p); err != nil {
			return presetSavedMsg{name: name, err: err}
		}
		return presetSavedMsg{name: name}
	}
}

// Run starts the configurator full screen and blocks until it quits.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return m, errors.Wrap(err, "run configurator")
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}
