package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/studiowebux/reqflow/internal/executor"
)

// renderModalWithFooter renders the modal viewport inside a bordered, centered box
func (m Model) renderModalWithFooter(title, footer string) string {
	width := m.width - ModalWidthMargin
	height := m.height - ModalHeightMargin

	fullContent := styleTitle.Render(title) + "\n\n" + m.modalView.View()
	if footer != "" {
		fullContent += "\n\n" + styleSubtle.Render(footer)
	}

	modalBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(fullContent)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalBox)
}

// sizeModalView fits the modal viewport inside renderModalWithFooter's box
func (m *Model) sizeModalView() {
	m.modalView.Width = m.width - ModalWidthMargin - ViewportPaddingHorizontal
	m.modalView.Height = m.height - ModalHeightMargin - ModalOverheadLines - ModalFooterLines
	if m.modalView.Width < 10 {
		m.modalView.Width = 10
	}
	if m.modalView.Height < 1 {
		m.modalView.Height = 1
	}
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	helpView := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Width(m.width - ModalWidthMarginNarrow).
		Height(m.height - ModalHeightMarginMed).
		Padding(1, 2).
		Render(styleTitle.Render("Keyboard Shortcuts") + "\n\n" + m.modalView.View() + "\n\n" +
			styleSubtle.Render("↑/↓ j/k: scroll | ESC/?: close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpView)
}

// updateHelpView lists every key binding
func (m *Model) updateHelpView() {
	m.sizeModalView()

	var content strings.Builder
	for _, b := range keys.helpBindings() {
		h := b.Help()
		content.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
	}
	content.WriteString("\n")
	content.WriteString(styleSubtle.Render("Templates: {{ name }} reads the profile or an override,\n" +
		"{{ chains.<id> }} the last response of another request,\n" +
		"{{ env.<VAR> }} an environment variable."))

	m.modalView.SetContent(content.String())
	m.modalView.GotoTop()
}

// renderProfileModal lists the collection's profiles
func (m Model) renderProfileModal() string {
	var lines []string
	active := m.sessionMgr.ResolveProfile(m.collection)

	for i := range m.collection.Profiles {
		p := &m.collection.Profiles[i]
		line := p.DisplayName()
		if active != nil && active.ID == p.ID {
			line += " [active]"
		}
		if i == m.profileIndex {
			line = styleSelected.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Padding(1, 2).
		Render(styleTitle.Render("Switch Profile") + "\n\n" + strings.Join(lines, "\n") + "\n\n" +
			styleSubtle.Render("↑/↓: navigate | enter: select | ESC: cancel"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderErrorModal shows the full cause chain of the selected recipe's failure
func (m Model) renderErrorModal() string {
	return m.renderModalWithFooter("Error Details", "j/k: scroll | ESC: close")
}

// updateErrorView fills the modal with the error chain, each cause indented
// one level deeper
func (m *Model) updateErrorView() {
	m.sizeModalView()

	recipe := m.selectedRecipe()
	if recipe == nil {
		return
	}
	st, ok := m.states.StateFor(recipe.ID).(ErrorState)
	if !ok {
		return
	}

	chain := executor.FormatErrorChain(st.Err)
	m.modalView.SetContent(styleError.Render(ansi.Wrap(chain, m.modalView.Width, " ")))
	m.modalView.GotoTop()
}

// renderHistory renders stored attempts for the selected recipe
func (m Model) renderHistory() string {
	title := "History"
	if m.history != nil {
		title = fmt.Sprintf("History: %s", m.history.RecipeID())
	}
	return m.renderModalWithFooter(title, "↑/↓ j/k: navigate | PgUp/PgDn: scroll | ESC: close")
}

// updateHistoryView renders the record list followed by the selected record
func (m *Model) updateHistoryView() {
	m.sizeModalView()
	if m.history == nil {
		return
	}

	loaded, err := m.history.Loaded()
	switch {
	case !loaded:
		m.modalView.SetContent(styleSubtle.Render("Loading history..."))
		return
	case err != nil:
		m.modalView.SetContent(styleError.Render("Failed to load history: " + err.Error()))
		return
	}

	records := m.history.Records()
	if len(records) == 0 {
		m.modalView.SetContent("No stored requests\n\nPress ESC to close")
		return
	}

	var content strings.Builder
	for i, r := range records {
		ts := r.StartTime.Local().Format("2006-01-02 15:04:05")
		var status string
		if r.Succeeded() {
			status = statusStyle(r.Response.StatusCode).Render(fmt.Sprintf("%d", r.Response.StatusCode))
		} else {
			status = styleError.Render("ERR")
		}
		line := fmt.Sprintf("%s  %s  %s", ts, status, executor.FormatDuration(r.Duration()))
		if i == m.history.Index() {
			line = styleSelected.Render(line)
		}
		content.WriteString(line + "\n")
	}

	if selected := m.history.Selected(); selected != nil {
		content.WriteString("\n")
		if selected.Succeeded() {
			content.WriteString(ansi.Hardwrap(m.formatRecord(selected), m.modalView.Width, true))
		} else {
			content.WriteString(styleError.Render(executor.FormatErrorChain(selected.Err)))
		}
	}

	m.modalView.SetContent(content.String())
}
