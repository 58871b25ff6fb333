package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/filter"
	"github.com/studiowebux/reqflow/internal/parser"
	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

// historyLimit is the number of past records shown in the history pane
const historyLimit = 50

// selectedRecipe returns the highlighted recipe, or nil when the list is empty
func (m *Model) selectedRecipe() *types.Recipe {
	if m.recipeIndex < 0 || m.recipeIndex >= len(m.visible) {
		return nil
	}
	return &m.collection.Requests[m.visible[m.recipeIndex]]
}

// renderContext snapshots everything a render reads. The maps are copies,
// so later session edits do not touch a render in flight.
func (m *Model) renderContext() *template.Context {
	profile := m.sessionMgr.ResolveProfile(m.collection)
	return template.NewContext(m.collection, profile, m.sessionMgr.Overrides(), m.repo, m.logger)
}

// sendSelected starts a request for the highlighted recipe
func (m *Model) sendSelected() tea.Cmd {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return nil
	}
	if !m.states.CanSend(recipe.ID) {
		return m.notify(fmt.Sprintf("%s is already in flight", recipe.DisplayName()))
	}
	requestID, ok := m.states.StartRequest(recipe.ID)
	if !ok {
		return nil
	}
	m.updateResponseView()

	return tea.Batch(
		executeRecipe(m.engine, m.repo, m.logger, *recipe, m.renderContext(), requestID),
		loadingTick(),
	)
}

// executeRecipe builds, sends and stores one request off the update loop.
// The request takes requestID so its completion matches the Loading state.
// A build failure means nothing was sent.
func executeRecipe(engine *executor.Engine, repo Repository, logger *zap.Logger, recipe types.Recipe, rc *template.Context, requestID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		req, err := engine.BuildRequest(ctx, &recipe, rc)
		if err != nil {
			return httpErrorMsg{recipeID: recipe.ID, requestID: requestID, err: err}
		}
		req.ID = requestID

		<-engine.SendRequest(req)
		record, _ := req.Record()

		if err := repo.Add(ctx, record); err != nil {
			logger.Error("Failed to store request record",
				zap.String("recipe", string(recipe.ID)),
				zap.Error(err))
		}

		if !record.Succeeded() {
			return httpErrorMsg{recipeID: recipe.ID, requestID: requestID, err: record.Err}
		}
		return httpResponseMsg{record: record}
	}
}

// reloadCollection reads the collection file again
func (m *Model) reloadCollection() tea.Cmd {
	path := m.collectionPath
	return func() tea.Msg {
		collection, err := parser.LoadCollection(path)
		return collectionLoadedMsg{collection: collection, err: err}
	}
}

// setCollection installs a collection and restores the selection by id
func (m *Model) setCollection(collection *types.Collection) {
	var selected types.RecipeID
	if recipe := m.selectedRecipe(); recipe != nil {
		selected = recipe.ID
	} else {
		selected = m.sessionMgr.Get().SelectedRecipe
	}

	m.collection = collection
	m.applyFilter()
	m.selectRecipe(selected)
}

// applyFilter recomputes the visible recipes from the search query
func (m *Model) applyFilter() {
	m.visible = filter.MatchRecipes(m.collection.Requests, m.searchQuery)
	if m.recipeIndex >= len(m.visible) {
		m.recipeIndex = len(m.visible) - 1
	}
	if m.recipeIndex < 0 {
		m.recipeIndex = 0
	}
	m.recipeOffset = 0
}

// selectRecipe highlights id if it is visible
func (m *Model) selectRecipe(id types.RecipeID) {
	for i, idx := range m.visible {
		if m.collection.Requests[idx].ID == id {
			m.recipeIndex = i
			return
		}
	}
}

// moveSelection moves the highlight by delta and persists the choice
func (m *Model) moveSelection(delta int) tea.Cmd {
	if len(m.visible) == 0 {
		return nil
	}
	next := m.recipeIndex + delta
	if next < 0 || next >= len(m.visible) {
		return nil
	}
	m.recipeIndex = next
	m.adjustOffset()

	if recipe := m.selectedRecipe(); recipe != nil {
		m.sessionMgr.SetSelectedRecipe(recipe.ID)
	}
	m.updateResponseView()
	return m.refreshPreview()
}

// adjustOffset keeps the highlighted recipe inside the visible page
func (m *Model) adjustOffset() {
	pageSize := m.listHeight()
	if m.recipeIndex < m.recipeOffset {
		m.recipeOffset = m.recipeIndex
	} else if m.recipeIndex >= m.recipeOffset+pageSize {
		m.recipeOffset = m.recipeIndex - pageSize + 1
	}
}

// refreshPreview renders the selected URL in the background. Chains read
// the history database, which must not block the update loop.
func (m *Model) refreshPreview() tea.Cmd {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return nil
	}
	id, url := recipe.ID, recipe.URL
	rc := m.renderContext()
	return func() tea.Msg {
		text, failed := highlightTemplate(context.Background(), url, rc)
		return previewMsg{preview: preview{recipeID: id, text: text, failed: failed}}
	}
}

// switchProfile activates the profile at index and saves the session
func (m *Model) switchProfile(index int) tea.Cmd {
	if index < 0 || index >= len(m.collection.Profiles) {
		return nil
	}
	profile := &m.collection.Profiles[index]
	m.sessionMgr.SetActiveProfile(profile.ID)
	if err := m.sessionMgr.Save(); err != nil {
		m.logger.Error("Failed to save session", zap.Error(err))
	}
	return tea.Batch(
		m.notify("Switched to profile "+profile.DisplayName()),
		m.refreshPreview(),
	)
}

// copyResponse copies the selected recipe's response body
func (m *Model) copyResponse() tea.Cmd {
	recipe := m.selectedRecipe()
	if recipe == nil {
		return nil
	}
	resp, ok := m.states.StateFor(recipe.ID).(ResponseState)
	if !ok {
		return m.notifyError("No response to copy")
	}
	if err := clipboard.WriteAll(resp.Record.Response.Body); err != nil {
		return m.notifyError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
	}
	return m.notify("Response copied to clipboard")
}

// loadHistory reads stored records for recipeID
func (m *Model) loadHistory(recipeID types.RecipeID) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		records, err := repo.Load(context.Background(), recipeID, historyLimit)
		return historyLoadedMsg{recipeID: recipeID, records: records, err: err}
	}
}

func (m *Model) anyLoading() bool {
	return m.states.AnyLoading()
}
