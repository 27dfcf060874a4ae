package configurator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/presets"
	"github.com/marcus/byot/internal/session"
)

func newModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	return NewModel(session.New(catalog.Default()), t.TempDir(), opts...)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func cursorTo(t *testing.T, m Model, key string) Model {
	t.Helper()
	for i, r := range m.Rows {
		if r.Key == key {
			m.Cursor = i
			return m
		}
	}
	t.Fatalf("no row for %s", key)
	return m
}

func TestBuildRows(t *testing.T) {
	cat := catalog.Default()
	rows := BuildRows(cat)

	require.True(t, rows[0].IsHeader())
	assert.Equal(t, "Node", rows[0].Section)

	seen := map[string]int{}
	index := map[string]int{}
	for i, r := range rows {
		if r.IsHeader() {
			continue
		}
		seen[r.Key]++
		index[r.Key] = i
	}
	for _, k := range cat.Keys() {
		assert.Equal(t, 1, seen[k], "feature %s", k)
	}

	assert.Equal(t, index["merge_option"]+1, index["n_merge_option"])
	assert.Equal(t, 1, rows[index["n_merge_option"]].Depth)
	assert.Equal(t, index["plus_merge_option"]+1, index["safe_merge_plus"])
	assert.Equal(t, 2, rows[index["safe_merge_plus"]].Depth)
	assert.Equal(t, 0, rows[index["merge_option"]].Depth)
}

func TestNextFeatureSkipsHeaders(t *testing.T) {
	rows := []Row{{Section: "A"}, {Section: "A", Key: "a"}, {Section: "B"}, {Section: "B", Key: "b"}}
	assert.Equal(t, 1, nextFeature(rows, -1, 1))
	assert.Equal(t, 3, nextFeature(rows, 1, 1))
	assert.Equal(t, 1, nextFeature(rows, 3, -1))
	assert.Equal(t, 1, nextFeature(rows, 1, -1))
	assert.Equal(t, 3, nextFeature(rows, 3, 1))
}

func TestNewModelStartsOnFirstFeature(t *testing.T) {
	m := newModel(t)
	assert.Equal(t, 1, m.Cursor)
	f, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, "key_type", f.Key)
	assert.Equal(t, PanelFeatures, m.ActivePanel)
}

func TestCursorMovement(t *testing.T) {
	m := newModel(t)
	m, _ = press(t, m, "j")
	assert.Equal(t, 2, m.Cursor)
	m, _ = press(t, m, "k", "k", "k")
	assert.Equal(t, 1, m.Cursor)

	m, _ = press(t, m, "tab")
	assert.Equal(t, PanelCode, m.ActivePanel)
	m, _ = press(t, m, "j")
	assert.Equal(t, 1, m.Cursor, "j scrolls the code pane when it is focused")
	m, _ = press(t, m, "tab")
	assert.Equal(t, PanelFeatures, m.ActivePanel)
}

func TestToggleCyclesEnumAndHighlights(t *testing.T) {
	m := newModel(t)
	m, cmd := press(t, m, " ")
	require.NotNil(t, cmd, "a change schedules the highlight reset")
	assert.Equal(t, "int", m.Session.Snapshot().Config.Enum("key_type"))
	assert.False(t, m.Changed.Empty())
	assert.NotEqual(t, codegen.Placeholder, m.Session.Code())

	stale, _ := m.Update(clearHighlightMsg{seq: m.flash - 1})
	assert.False(t, stale.(Model).Changed.Empty())

	cleared, _ := m.Update(clearHighlightMsg{seq: m.flash})
	assert.True(t, cleared.(Model).Changed.Empty())
}

func TestDisabledFeatureExplainsItself(t *testing.T) {
	m := cursorTo(t, newModel(t), "find_option")
	m, cmd := press(t, m, " ")
	assert.Nil(t, cmd)
	assert.NoError(t, m.Err)
	assert.Contains(t, m.Status, "needs Key type")
	assert.Equal(t, codegen.Placeholder, m.Session.Code())

	m, _ = press(t, m, "e")
	cfg := m.Session.Snapshot().Config
	cat := m.Session.Catalog()
	assert.True(t, features.Active(cat, cfg, "find_option"))
	assert.True(t, features.Active(cat, cfg, "key_type"))
	assert.Empty(t, m.Status)
	assert.Contains(t, m.Session.Code(), "ptr find(ptr n, int k) {")
}

func TestUndoAndReset(t *testing.T) {
	m := newModel(t)
	m, _ = press(t, m, "u")
	assert.Equal(t, "Nothing to undo", m.Status)

	m = cursorTo(t, m, "merge_option")
	m, _ = press(t, m, " ")
	assert.True(t, m.Session.Snapshot().Config.Bool("merge_option"))

	m, _ = press(t, m, "u")
	assert.False(t, m.Session.Snapshot().Config.Bool("merge_option"))

	m, _ = press(t, m, " ", "R")
	assert.Equal(t, codegen.Placeholder, m.Session.Code())
}

func TestWriteCode(t *testing.T) {
	m := cursorTo(t, newModel(t), "merge_option")
	m, _ = press(t, m, " ")
	m, cmd := press(t, m, "w")
	require.NotNil(t, cmd)

	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)
	require.NoError(t, m.Err)

	path := filepath.Join(m.BaseDir, config.DefaultOutput)
	assert.Contains(t, m.Status, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(m.Session.Code(), "\n")+"\n", string(data))
}

func TestQuitPersistsConfiguration(t *testing.T) {
	m := cursorTo(t, newModel(t), "merge_option")
	m, _ = press(t, m, " ")
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)

	cfg, ok, err := config.GetLastConfig(m.BaseDir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cfg.Bool("merge_option"))
}

func TestSavePreset(t *testing.T) {
	m := newModel(t)
	m, _ = press(t, m, "s")
	assert.True(t, errors.Is(m.Err, ErrNoPresetStore))
	assert.False(t, m.Naming)

	store, err := presets.Open(filepath.Join(t.TempDir(), "presets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m = cursorTo(t, newModel(t, WithPresetStore(store)), "merge_option")
	m, _ = press(t, m, " ", "s")
	require.True(t, m.Naming)

	m, _ = press(t, m, "mine")
	assert.Equal(t, "mine", m.NameInput.Value())
	m, cmd := press(t, m, "enter")
	assert.False(t, m.Naming)
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	require.NoError(t, m.Err)
	assert.Contains(t, m.Status, `"mine"`)

	p, err := store.Get("mine")
	require.NoError(t, err)
	assert.True(t, p.Config.Bool("merge_option"))
}

func TestSavePresetCancel(t *testing.T) {
	store, err := presets.Open(filepath.Join(t.TempDir(), "presets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := newModel(t, WithPresetStore(store))
	m, _ = press(t, m, "s", "q", "esc")
	assert.False(t, m.Naming)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestView(t *testing.T) {
	m := newModel(t)
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, next.(Model).View(), "resize for full view")

	next, _ = m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "FEATURES")
	assert.Contains(t, view, "CODE")
	assert.Contains(t, view, "Key type")
	assert.Contains(t, view, "Enable some features")

	m = cursorTo(t, m, "find_option")
	assert.Contains(t, m.View(), "needs Key type")

	m, _ = press(t, m, "?")
	assert.True(t, m.ShowHelp)
	assert.Contains(t, m.View(), "key bindings")
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m = next.(Model)
	visible := m.listRows()
	require.Greater(t, visible, 0)

	for i := 0; i < len(m.Rows); i++ {
		m, _ = press(t, m, "j")
		assert.GreaterOrEqual(t, m.Cursor, m.Offset)
		assert.Less(t, m.Cursor, m.Offset+visible)
	}
	assert.Greater(t, m.Offset, 0)
}

func TestLoadKeyMap(t *testing.T) {
	dir := t.TempDir()
	km, err := LoadKeyMap(KeymapPath(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{" ", "enter"}, km.Toggle.Keys())

	path := KeymapPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"bindings": {"toggle": ["x"], "save-preset": []}}`), 0644))
	km, err = LoadKeyMap(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, km.Toggle.Keys())
	assert.Equal(t, "x", km.Toggle.Help().Key)
	assert.False(t, km.SavePreset.Enabled())

	m := NewModel(session.New(catalog.Default()), dir, WithKeyMap(km))
	m, _ = press(t, m, "x")
	assert.Equal(t, "int", m.Session.Snapshot().Config.Enum("key_type"))

	require.NoError(t, os.WriteFile(path, []byte(`{"bindings": {"teleport": ["t"]}}`), 0644))
	_, err = LoadKeyMap(path)
	assert.ErrorContains(t, err, "teleport")

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err = LoadKeyMap(path)
	assert.Error(t, err)
}
