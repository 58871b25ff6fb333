package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/session"
	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeProfileSwitch
	ModeHistory
	ModeErrorDetail
	ModeHelp
)

// Repository is the request history the TUI reads chains from and
// writes completed records to
type Repository interface {
	template.Repository
	Add(ctx context.Context, record *types.RequestRecord) error
	Load(ctx context.Context, recipeID types.RecipeID, limit int) ([]*types.RequestRecord, error)
}

// Model represents the TUI state
type Model struct {
	// Core state
	collectionPath string
	collection     *types.Collection
	engine         *executor.Engine
	repo           Repository
	sessionMgr     *session.Manager
	logger         *zap.Logger
	states         *RequestStates
	mode           Mode

	// Recipe list
	recipeIndex  int   // Index into visible
	recipeOffset int   // Scroll offset for the recipe list
	visible      []int // Indexes into collection.Requests after filtering
	searchQuery  string

	// Profile switcher
	profileIndex int

	// Inline URL preview for the selected recipe
	preview preview

	// History pane
	history *HistoryState

	// Viewports
	responseView viewport.Model
	modalView    viewport.Model

	// UI state
	width        int
	height       int
	showHeaders  bool
	notification *Notification
	notifySeq    int
}

// preview is the rendered URL of one recipe, computed off the update loop
type preview struct {
	recipeID types.RecipeID
	text     string
	failed   bool
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return m.refreshPreview()
}

// Cleanup saves the session and closes the history database
func (m *Model) Cleanup() {
	if err := m.sessionMgr.Save(); err != nil {
		m.logger.Error("Failed to save session", zap.Error(err))
	}
	if closer, ok := m.repo.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			m.logger.Error("Failed to close history database", zap.Error(err))
		}
	}
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.MouseMsg:
		// Keyboard only

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewport()
		m.updateResponseView()

	case httpResponseMsg:
		if m.states.FinishRequest(msg.record) {
			m.updateResponseView()
			if m.history != nil && m.history.RecipeID() == msg.record.Request.RecipeID {
				cmd = m.loadHistory(msg.record.Request.RecipeID)
			}
		}

	case httpErrorMsg:
		if m.states.FailRequest(msg.recipeID, msg.requestID, msg.err) {
			m.updateResponseView()
			cmd = m.notifyError(summarizeError(msg.err))
		}

	case collectionLoadedMsg:
		if msg.err != nil {
			cmd = m.notifyError("Reload failed: " + msg.err.Error())
			break
		}
		m.setCollection(msg.collection)
		m.states.Clear()
		m.updateResponseView()
		cmd = tea.Batch(m.notify("Collection reloaded"), m.refreshPreview())

	case previewMsg:
		if recipe := m.selectedRecipe(); recipe != nil && recipe.ID == msg.preview.recipeID {
			m.preview = msg.preview
		}

	case historyLoadedMsg:
		if m.history != nil && m.history.RecipeID() == msg.recipeID {
			m.history.SetRecords(msg.records, msg.err)
			m.updateHistoryView()
		}

	case loadingTickMsg:
		// Redraw while any request is in flight so durations stay live
		if m.anyLoading() {
			cmd = loadingTick()
		}

	case notificationExpiredMsg:
		if m.notification != nil && m.notification.id == msg.id {
			m.notification = nil
		}
	}

	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelp()
	case ModeProfileSwitch:
		return m.renderProfileModal()
	case ModeHistory:
		return m.renderHistory()
	case ModeErrorDetail:
		return m.renderErrorModal()
	default:
		return m.renderMain()
	}
}

// Custom message types
type httpResponseMsg struct {
	record *types.RequestRecord
}

type httpErrorMsg struct {
	recipeID  types.RecipeID
	requestID uuid.UUID
	err       error
}

type collectionLoadedMsg struct {
	collection *types.Collection
	err        error
}

type previewMsg struct {
	preview preview
}

type historyLoadedMsg struct {
	recipeID types.RecipeID
	records  []*types.RequestRecord
	err      error
}

type loadingTickMsg time.Time

type notificationExpiredMsg struct {
	id int
}

func loadingTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return loadingTickMsg(t)
	})
}
