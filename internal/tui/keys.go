package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Send        key.Binding
	Reload      key.Binding
	Search      key.Binding
	Profile     key.Binding
	History     key.Binding
	Copy        key.Binding
	Headers     key.Binding
	ErrorDetail key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Help        key.Binding
	Back        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous request")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next request")),
	Send:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send request")),
	Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload collection")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter requests")),
	Profile:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "switch profile")),
	History:     key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "request history")),
	Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy response body")),
	Headers:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle headers")),
	ErrorDetail: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "show error details")),
	ScrollUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll response up")),
	ScrollDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll response down")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// helpBindings is the order bindings are listed in the help screen
func (k keyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Send, k.Reload, k.Search, k.Profile, k.History,
		k.Copy, k.Headers, k.ErrorDetail, k.ScrollUp, k.ScrollDown, k.Help, k.Quit,
	}
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	// Global keys (work in all modes)
	if msg.String() == "ctrl+c" {
		m.Cleanup()
		return tea.Quit
	}

	switch m.mode {
	case ModeNormal:
		return m.handleNormalKeys(msg)
	case ModeSearch:
		return m.handleSearchKeys(msg)
	case ModeProfileSwitch:
		return m.handleProfileKeys(msg)
	case ModeHistory:
		return m.handleHistoryKeys(msg)
	case ModeErrorDetail, ModeHelp:
		return m.handleModalKeys(msg)
	}
	return nil
}

func (m *Model) handleNormalKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Cleanup()
		return tea.Quit
	case key.Matches(msg, keys.Up):
		return m.moveSelection(-1)
	case key.Matches(msg, keys.Down):
		return m.moveSelection(1)
	case key.Matches(msg, keys.Send):
		return m.sendSelected()
	case key.Matches(msg, keys.Reload):
		return m.reloadCollection()
	case key.Matches(msg, keys.Search):
		m.mode = ModeSearch
	case key.Matches(msg, keys.Profile):
		m.openProfileSwitch()
	case key.Matches(msg, keys.History):
		return m.openHistory()
	case key.Matches(msg, keys.Copy):
		return m.copyResponse()
	case key.Matches(msg, keys.Headers):
		m.showHeaders = !m.showHeaders
		m.updateResponseView()
	case key.Matches(msg, keys.ErrorDetail):
		return m.openErrorDetail()
	case key.Matches(msg, keys.ScrollUp):
		m.responseView.HalfViewUp()
	case key.Matches(msg, keys.ScrollDown):
		m.responseView.HalfViewDown()
	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
		m.updateHelpView()
	}
	return nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchQuery = ""
		m.applyFilter()
		m.mode = ModeNormal
		m.updateResponseView()
		return m.refreshPreview()
	case tea.KeyEnter:
		m.mode = ModeNormal
		return nil
	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			runes := []rune(m.searchQuery)
			m.searchQuery = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	default:
		return nil
	}

	m.applyFilter()
	m.updateResponseView()
	return m.refreshPreview()
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back), msg.String() == "q":
		m.mode = ModeNormal
	case key.Matches(msg, keys.Up):
		if m.profileIndex > 0 {
			m.profileIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.profileIndex < len(m.collection.Profiles)-1 {
			m.profileIndex++
		}
	case key.Matches(msg, keys.Send):
		m.mode = ModeNormal
		return m.switchProfile(m.profileIndex)
	}
	return nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back), msg.String() == "q":
		m.mode = ModeNormal
		m.history = nil
	case key.Matches(msg, keys.Up):
		m.history.Navigate(-1)
		m.updateHistoryView()
	case key.Matches(msg, keys.Down):
		m.history.Navigate(1)
		m.updateHistoryView()
	case key.Matches(msg, keys.ScrollUp):
		m.modalView.HalfViewUp()
	case key.Matches(msg, keys.ScrollDown):
		m.modalView.HalfViewDown()
	}
	return nil
}

func (m *Model) handleModalKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back), msg.String() == "q", msg.String() == "?" && m.mode == ModeHelp:
		m.mode = ModeNormal
	case key.Matches(msg, keys.Up):
		m.modalView.LineUp(1)
	case key.Matches(msg, keys.Down):
		m.modalView.LineDown(1)
	case key.Matches(msg, keys.ScrollUp):
		m.modalView.HalfViewUp()
	case key.Matches(msg, keys.ScrollDown):
		m.modalView.HalfViewDown()
	}
	return nil
}

func (m *Model) openProfileSwitch() {
	if len(m.collection.Profiles) == 0 {
		return
	}
	m.profileIndex = 0
	if active := m.sessionMgr.ResolveProfile(m.collection); active != nil {
		for i := range m.collection.Profiles {
			if m.collection.Profiles[i].ID == active.ID {
				m.profileIndex = i
				break
			}
		}
	}
	m.mode = ModeProfileSwitch
}

func (m *Model) openHistory() tea.Cmd {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return nil
	}
	m.history = NewHistoryState(recipe.ID)
	m.mode = ModeHistory
	m.updateHistoryView()
	return m.loadHistory(recipe.ID)
}

func (m *Model) openErrorDetail() tea.Cmd {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return nil
	}
	if _, ok := m.states.StateFor(recipe.ID).(ErrorState); !ok {
		return m.notify("No error to show")
	}
	m.mode = ModeErrorDetail
	m.updateErrorView()
	return nil
}
