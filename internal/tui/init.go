package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/session"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

// Options are the dependencies of the TUI
type Options struct {
	// CollectionPath is re-read on reload
	CollectionPath string
	Collection     *types.Collection
	Engine         *executor.Engine
	Repository     Repository
	Session        *session.Manager
	Logger         *zap.Logger
}

// New creates a new TUI model
func New(opts Options) (Model, error) {
	if opts.Collection == nil {
		return Model{}, errors.New("tui: collection is required")
	}
	if opts.Engine == nil || opts.Repository == nil || opts.Session == nil {
		return Model{}, errors.New("tui: engine, repository and session are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		collectionPath: opts.CollectionPath,
		engine:         opts.Engine,
		repo:           opts.Repository,
		sessionMgr:     opts.Session,
		logger:         logger,
		states:         NewRequestStates(logger),
		mode:           ModeNormal,
		responseView:   viewport.New(80, 20),
		modalView:      viewport.New(80, 20),
	}

	// Restores the session's selection
	m.setCollection(opts.Collection)
	m.updateResponseView()

	return m, nil
}

// Run starts the TUI and blocks until the user quits
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Cleanup()

	// Update uses a pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}
