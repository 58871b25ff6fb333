package tui

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#0000ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	// Failing placeholder in the URL preview
	stylePlaceholderError = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true).
				Underline(true)
)

// renderMain renders the recipe list, the request/response pane and the status bar
func (m Model) renderMain() string {
	sidebarWidth, paneWidth := m.paneWidths()
	paneHeight := m.height - StatusBarLines - 2

	sidebar := m.renderSidebar(sidebarWidth-2, paneHeight)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRequestPane(paneWidth-2),
		m.renderResponse(paneWidth-2),
	)

	sidebarBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGreen).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebar)

	paneBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Width(paneWidth).
		Height(paneHeight).
		Render(right)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebarBox, paneBox),
		m.renderStatusBar(),
	)
}

// paneWidths splits the screen between the recipe list and the right pane
func (m Model) paneWidths() (int, int) {
	sidebarWidth := max(SidebarMinWidth, m.width*SidebarWidthRatio/100)
	if m.width < 90 {
		sidebarWidth = m.width / 2
	}
	return sidebarWidth, m.width - sidebarWidth - 4
}

// listHeight is the number of recipes shown per page
func (m Model) listHeight() int {
	h := m.height - StatusBarLines - 2 - 4
	if h < 1 {
		h = 1
	}
	return h
}

// renderSidebar renders the recipe list with a marker for each request state
func (m Model) renderSidebar(width, height int) string {
	var lines []string

	lines = append(lines, styleTitle.Render("Requests"))
	lines = append(lines, "")

	end := m.recipeOffset + m.listHeight()
	if end > len(m.visible) {
		end = len(m.visible)
	}

	for i := m.recipeOffset; i < end; i++ {
		recipe := &m.collection.Requests[m.visible[i]]
		marker := m.stateMarker(recipe.ID)

		name := recipe.DisplayName()
		maxNameLen := width - 12
		if maxNameLen < 10 {
			maxNameLen = 10
		}
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		line := fmt.Sprintf("%-6s %s", recipe.Method, name)
		if i == m.recipeIndex {
			line = styleSelected.Render(line)
		}
		lines = append(lines, marker+" "+line)
	}

	lines = append(lines, "")
	if len(m.visible) > 0 {
		lines = append(lines, styleSubtle.Render(fmt.Sprintf("[%d/%d]", m.recipeIndex+1, len(m.visible))))
	} else if m.searchQuery != "" {
		lines = append(lines, styleSubtle.Render("No matching requests"))
	} else {
		lines = append(lines, styleSubtle.Render("No requests in collection"))
	}

	return lipgloss.NewStyle().
		Width(width).
		MaxHeight(height).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// stateMarker is a fixed-width indicator of a recipe's request state
func (m Model) stateMarker(recipeID types.RecipeID) string {
	switch st := m.states.StateFor(recipeID).(type) {
	case LoadingState:
		return styleWarning.Render("...")
	case ResponseState:
		return statusStyle(st.Record.Response.StatusCode).Render(fmt.Sprintf("%3d", st.Record.Response.StatusCode))
	case ErrorState:
		return styleError.Render("  ✗")
	default:
		return "   "
	}
}

func statusStyle(status int) lipgloss.Style {
	switch {
	case executor.IsClientErrorStatus(status), executor.IsServerErrorStatus(status):
		return styleError
	case executor.IsSuccessStatus(status):
		return styleSuccess
	default:
		return styleWarning
	}
}

// renderRequestPane shows the selected recipe and its rendered URL
func (m Model) renderRequestPane(width int) string {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return lipgloss.NewStyle().Width(width).Height(RequestPaneLines).Padding(0, 1).
			Render(styleSubtle.Render("No request selected"))
	}

	var lines []string
	lines = append(lines, styleTitle.Render(recipe.DisplayName()))

	url := recipe.URL
	if m.preview.recipeID == recipe.ID {
		url = m.preview.text
	}
	lines = append(lines, fmt.Sprintf("%s %s", recipe.Method, url))

	return lipgloss.NewStyle().
		Width(width).
		Height(RequestPaneLines).
		MaxHeight(RequestPaneLines).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// renderResponse renders the state of the selected recipe. Loading is drawn
// on every frame so its duration stays live.
func (m Model) renderResponse(width int) string {
	recipe := m.selectedRecipe()
	if recipe != nil {
		if st, ok := m.states.StateFor(recipe.ID).(LoadingState); ok {
			text := styleWarning.Render(fmt.Sprintf("Loading... %s", executor.FormatDuration(m.states.Duration(st))))
			return lipgloss.NewStyle().Width(width).Padding(1, 1).Render(text)
		}
	}

	var lines []string
	for _, line := range strings.Split(m.responseView.View(), "\n") {
		lines = append(lines, " "+line)
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar renders the status bar at the bottom
func (m Model) renderStatusBar() string {
	left := "Profile: none"
	if profile := m.sessionMgr.ResolveProfile(m.collection); profile != nil {
		left = "Profile: " + profile.DisplayName()
	}

	var right string
	switch {
	case m.mode == ModeSearch:
		right = fmt.Sprintf("Filter: %s█", m.searchQuery)
	case m.notification != nil && !m.notification.Expired(time.Now()):
		msg := truncate(m.notification.Message, MaxStatusBarLength)
		if m.notification.IsError {
			right = styleError.Render(msg)
		} else {
			right = styleSuccess.Render(msg)
		}
	case m.searchQuery != "":
		right = styleWarning.Render("Filter: " + m.searchQuery)
	default:
		right = styleSubtle.Render("enter: send | / filter | ? help | q quit")
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// updateViewport resizes the response viewport to the right pane
func (m *Model) updateViewport() {
	_, paneWidth := m.paneWidths()
	m.responseView.Width = paneWidth - 4
	m.responseView.Height = m.height - StatusBarLines - 2 - RequestPaneLines
	if m.responseView.Height < 1 {
		m.responseView.Height = 1
	}
}

// updateResponseView fills the response viewport from the selected recipe's state
func (m *Model) updateResponseView() {
	recipe := m.selectedRecipe()
	if recipe == nil {
		m.responseView.SetContent("")
		return
	}

	var content string
	switch st := m.states.StateFor(recipe.ID).(type) {
	case ResponseState:
		content = m.formatRecord(st.Record)
	case ErrorState:
		content = m.formatErrorState(st)
	case LoadingState:
		// Drawn live by renderResponse
	default:
		content = styleSubtle.Render("No response yet\n\nPress Enter to send the request")
	}

	m.responseView.SetContent(ansi.Hardwrap(content, max(m.responseView.Width, 20), true))
	m.responseView.GotoTop()
}

func (m *Model) formatRecord(record *types.RequestRecord) string {
	var content strings.Builder
	resp := record.Response

	if m.showHeaders && record.Request != nil {
		content.WriteString(styleTitle.Render("Request") + "\n")
		content.WriteString(fmt.Sprintf("%s %s\n", record.Request.Method, record.Request.URL))
		writeHeaders(&content, record.Request.Headers)
		content.WriteString("\n")
	}

	content.WriteString(styleTitle.Render("Response") + "\n")
	content.WriteString(fmt.Sprintf("%s %s\n",
		statusStyle(resp.StatusCode).Render(fmt.Sprintf("%d", resp.StatusCode)),
		http.StatusText(resp.StatusCode)))
	content.WriteString(styleSubtle.Render(fmt.Sprintf("Duration: %s | Size: %s",
		executor.FormatDuration(record.Duration()),
		executor.FormatSize(len(resp.Body)))))
	content.WriteString("\n")

	if m.showHeaders {
		writeHeaders(&content, resp.Headers)
	}
	content.WriteString("\n")

	if resp.Body != "" {
		content.WriteString(highlightBody(resp))
		content.WriteString("\n")
	}
	return content.String()
}

func (m *Model) formatErrorState(st ErrorState) string {
	var content strings.Builder
	content.WriteString(styleError.Render("Request failed") + "\n")
	content.WriteString(styleSubtle.Render("Duration: "+executor.FormatDuration(m.states.Duration(st))) + "\n\n")
	content.WriteString(summarizeError(st.Err) + "\n\n")
	content.WriteString(styleSubtle.Render("Press e for details"))
	return content.String()
}

func writeHeaders(sb *strings.Builder, headers http.Header) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", name, strings.Join(headers[name], ", ")))
	}
}
