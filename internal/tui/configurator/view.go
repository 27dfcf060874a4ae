package configurator

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/session"
)

const detailHeight = 7

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// layout splits the screen: the feature list takes two fifths of the width,
// the code pane the rest; the footer takes two lines.
func (m Model) layout() (listWidth, codeWidth, bodyHeight int) {
	listWidth = m.Width * 2 / 5
	if listWidth < 32 {
		listWidth = 32
	}
	codeWidth = m.Width - listWidth
	bodyHeight = m.Height - 2
	return listWidth, codeWidth, bodyHeight
}

// listRows is the number of feature rows that fit in the list panel.
func (m Model) listRows() int {
	_, _, bodyHeight := m.layout()
	return bodyHeight - detailHeight - 3
}

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.ShowHelp {
		return m.renderHelp()
	}

	state := m.Session.Snapshot()
	listWidth, codeWidth, bodyHeight := m.layout()

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderFeaturePanel(state, listWidth, bodyHeight-detailHeight),
		m.renderDetailPanel(state, listWidth, detailHeight),
	)
	right := m.wrapPanel("CODE", m.code.View(), codeWidth, bodyHeight, PanelCode)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder
	state := m.Session.Snapshot()
	cat := m.Session.Catalog()

	s.WriteString("byot (resize for full view)\n\n")
	s.WriteString(fmt.Sprintf("Active: %d | Disabled: %d\n",
		len(features.ActiveKeys(cat, state.Config)), state.Disabled.Len()))
	if f, ok := m.current(); ok {
		s.WriteString(fmt.Sprintf("> %s\n", m.renderFeature(f, state, m.Width-2)))
	}
	s.WriteString("\nj/k:move space:toggle q:quit")
	return s.String()
}

func (m Model) renderFeaturePanel(state session.State, width, height int) string {
	var content strings.Builder
	inner := width - 4
	visible := height - 3
	cat := m.Session.Catalog()

	end := min(m.Offset+visible, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		row := m.Rows[i]
		var line string
		if row.IsHeader() {
			line = sectionHeader.Render(ansi.Truncate(row.Section, inner, "…"))
		} else {
			f, _ := cat.Lookup(row.Key)
			indent := strings.Repeat("  ", row.Depth)
			line = indent + m.renderFeature(f, state, inner-len(indent)-2)
			if i == m.Cursor && m.ActivePanel == PanelFeatures {
				line = selectedRowStyle.Render("> " + ansi.Strip(line))
			} else {
				line = "  " + line
			}
		}
		content.WriteString(line)
		content.WriteString("\n")
	}

	title := "FEATURES"
	if len(m.Rows) > visible {
		title = fmt.Sprintf("FEATURES %d/%d", m.Cursor+1, len(m.Rows))
	}
	return m.wrapPanel(title, strings.TrimSuffix(content.String(), "\n"), width, height, PanelFeatures)
}

// renderFeature renders one feature as a check box, its label and, for
// enumerated features, the chosen option.
func (m Model) renderFeature(f catalog.Feature, state session.State, width int) string {
	active := features.Active(m.Session.Catalog(), state.Config, f.Key)
	disabled := state.Disabled.Has(f.Key) && !active

	box := "[ ]"
	if active {
		box = "[x]"
	} else if disabled {
		box = "[-]"
	}
	text := box + " " + f.Label
	if f.Kind == catalog.Enumerated {
		text += ": " + optionLabel(f, state.Config.Enum(f.Key))
	}
	text = ansi.Truncate(text, width, "…")

	switch {
	case disabled:
		return disabledStyle.Render(text)
	case active:
		return onStyle.Render(text)
	default:
		return offStyle.Render(text)
	}
}

func optionLabel(f catalog.Feature, value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			if o.Label != "" {
				return o.Label
			}
			return o.Value
		}
	}
	return value
}

// renderDetailPanel shows why the feature under the cursor is disabled, if
// it is, then its options and tooltip.
func (m Model) renderDetailPanel(state session.State, width, height int) string {
	inner := width - 4
	f, ok := m.current()
	if !ok {
		return m.wrapPanel("DETAILS", subtleStyle.Render("No feature selected"), width, height, -1)
	}

	var lines []string
	lines = append(lines, titleStyle.Render(ansi.Truncate(f.Label, inner, "…"))+" "+subtleStyle.Render(f.Key))
	if state.Disabled.Has(f.Key) {
		if reason := m.disabledReason(f.Key); reason != "" {
			lines = append(lines, strings.Split(cellbuf.Wrap(errorStyle.Render(reason), inner, " ,;"), "\n")...)
		}
	}
	if f.Kind == catalog.Enumerated {
		var opts []string
		for _, o := range f.Options {
			label := optionLabel(f, o.Value)
			if o.Value == state.Config.Enum(f.Key) {
				label = valueStyle.Render(label)
			}
			opts = append(opts, label)
		}
		lines = append(lines, ansi.Truncate(strings.Join(opts, " | "), inner, "…"))
	}
	if f.Tooltip != "" {
		lines = append(lines, strings.Split(cellbuf.Wrap(f.Tooltip, inner, " -"), "\n")...)
	}

	if limit := height - 3; len(lines) > limit {
		lines = lines[:limit]
	}
	return m.wrapPanel("DETAILS", strings.Join(lines, "\n"), width, height, -1)
}

// renderCode numbers the generated lines and highlights the ones the last
// edit added or replaced.
func (m Model) renderCode() string {
	lines := strings.Split(m.Session.Code(), "\n")
	digits := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(lineNumberStyle.Render(fmt.Sprintf("%*d ", digits, i+1)))
		if m.Changed.Added[i] {
			line = addedLineStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// wrapPanel wraps content in a bordered panel with a title
func (m Model) wrapPanel(title, content string, width, height int, panel Panel) string {
	style := panelStyle
	if panel == m.ActivePanel {
		style = activePanelStyle
	}

	if panel == PanelCode && m.Changed.Removed > 0 {
		title = fmt.Sprintf("%s (-%d)", title, m.Changed.Removed)
	}
	titleLine := panelTitleStyle.Render(title)

	return style.
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(titleLine + "\n" + content)
}

// renderFooter renders the status line and the key hints
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.Naming:
		status = "Save preset as: " + m.NameInput.View()
	case m.Err != nil:
		status = errorStyle.Render("Error: " + m.Err.Error())
	case m.Status != "":
		status = statusStyle.Render(m.Status)
	default:
		status = subtleStyle.Render(fmt.Sprintf("%s  started %s",
			m.Session.ID, m.Session.StartedAt.Format("15:04")))
	}
	return ansi.Truncate(status, m.Width, "…") + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// renderHelp renders the full key reference
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("byot configurator - key bindings"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(subtleStyle.Render("Disabled features show [-]; press " +
		m.keys.Enable.Help().Key + " on one to switch on everything it needs."))
	b.WriteString("\n\n")
	b.WriteString(subtleStyle.Render("Press ? to close"))

	box := panelStyle.Render(b.String())
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}
