package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/session"
	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
)

// send runs one recipe to completion the way sendSelected does and feeds
// the result back into Update
func send(t *testing.T, m *Model, id types.RecipeID) tea.Msg {
	t.Helper()
	requestID, ok := m.states.StartRequest(id)
	if !ok {
		t.Fatalf("StartRequest(%q) rejected", id)
	}
	msg := executeRecipe(m.engine, m.repo, m.logger, recipeByID(t, m, id), m.renderContext(), requestID)()
	m.Update(msg)
	return msg
}

func TestNew_InitializesDefaultMode(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")

	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "showHeaders", m.showHeaders, false)
	AssertModelField(t, "recipeIndex", m.recipeIndex, 0)
	AssertModelField(t, "visible", len(m.visible), 3)
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error without a collection")
	}
	if _, err := New(Options{Collection: testCollection("")}); err == nil {
		t.Error("Expected error without an engine")
	}
}

func TestNew_RestoresSelectedRecipe(t *testing.T) {
	mgr := session.NewManager(filepath.Join(t.TempDir(), "session.json"))
	mgr.SetSelectedRecipe("me")

	m := createTestModelWithSession(t, "http://localhost", mgr)

	recipe := m.selectedRecipe()
	if recipe == nil || recipe.ID != "me" {
		t.Fatalf("Expected me selected, got %v", recipe)
	}
}

func TestModel_SendStoresResponse(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	msg := send(t, m, "login")
	if _, ok := msg.(httpResponseMsg); !ok {
		t.Fatalf("Expected httpResponseMsg, got %T", msg)
	}

	st, ok := m.states.StateFor("login").(ResponseState)
	if !ok {
		t.Fatalf("Expected ResponseState, got %T", m.states.StateFor("login"))
	}
	AssertModelField(t, "status", st.Record.Response.StatusCode, 200)

	last, err := m.repo.GetLast(context.Background(), "login")
	if err != nil || last == nil {
		t.Fatalf("Expected stored record, got %v, %v", last, err)
	}
	AssertModelField(t, "stored id", last.ID, st.Record.ID)
}

func TestModel_ChainReadsStoredResponse(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	send(t, m, "login")
	send(t, m, "me")

	st, ok := m.states.StateFor("me").(ResponseState)
	if !ok {
		t.Fatalf("Expected ResponseState, got %T", m.states.StateFor("me"))
	}
	AssertModelField(t, "status", st.Record.Response.StatusCode, 200)
	AssertModelField(t, "authorization", st.Record.Request.Headers.Get("Authorization"), "Bearer abc123")
}

func TestModel_RenderFailureIsErrorState(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	msg := send(t, m, "bad")
	if _, ok := msg.(httpErrorMsg); !ok {
		t.Fatalf("Expected httpErrorMsg, got %T", msg)
	}

	st, ok := m.states.StateFor("bad").(ErrorState)
	if !ok {
		t.Fatalf("Expected ErrorState, got %T", m.states.StateFor("bad"))
	}
	var field *executor.FieldError
	if !errors.As(st.Err, &field) || field.Field != "url" {
		t.Fatalf("Expected url FieldError, got %v", st.Err)
	}
	var tmplErr *template.Error
	if !errors.As(st.Err, &tmplErr) || tmplErr.Kind != template.KindFieldUnknown {
		t.Errorf("Expected unknown field error, got %v", st.Err)
	}

	// Nothing was sent, so nothing was stored
	last, err := m.repo.GetLast(context.Background(), "bad")
	if err != nil || last != nil {
		t.Errorf("Expected no stored record, got %v, %v", last, err)
	}
	if m.notification == nil || !m.notification.IsError {
		t.Error("Expected an error notification")
	}
}

func TestModel_ChainWithoutHistoryFails(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	send(t, m, "me")

	st, ok := m.states.StateFor("me").(ErrorState)
	if !ok {
		t.Fatalf("Expected ErrorState, got %T", m.states.StateFor("me"))
	}
	var tmplErr *template.Error
	if !errors.As(st.Err, &tmplErr) || tmplErr.Kind != template.KindChainNoResponse {
		t.Errorf("Expected no response chain error, got %v", st.Err)
	}
}

func TestModel_TransportFailureIsErrorState(t *testing.T) {
	m := CreateTestModel(t, "http://127.0.0.1:1")

	send(t, m, "login")

	st, ok := m.states.StateFor("login").(ErrorState)
	if !ok {
		t.Fatalf("Expected ErrorState, got %T", m.states.StateFor("login"))
	}
	var transport *executor.TransportError
	if !errors.As(st.Err, &transport) {
		t.Errorf("Expected TransportError, got %v", st.Err)
	}

	// Failed attempts are kept in history
	records, err := m.repo.Load(context.Background(), "login", 10)
	if err != nil || len(records) != 1 || records[0].Succeeded() {
		t.Errorf("Expected one failed record, got %v, %v", records, err)
	}
}

func TestModel_ReloadDropsLateCompletion(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	requestID, ok := m.states.StartRequest("login")
	if !ok {
		t.Fatal("StartRequest rejected")
	}
	msg := executeRecipe(m.engine, m.repo, m.logger, recipeByID(t, m, "login"), m.renderContext(), requestID)()

	m.Update(collectionLoadedMsg{collection: testCollection(server.URL)})
	if st := m.states.StateFor("login"); st != nil {
		t.Fatalf("Expected no state after reload, got %T", st)
	}

	m.Update(msg)
	if st := m.states.StateFor("login"); st != nil {
		t.Errorf("Expected late completion to be dropped, got %T", st)
	}
}

func TestModel_ReloadThenResendDropsLateCompletion(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)

	tests := []struct {
		name   string
		recipe types.RecipeID
	}{
		{"late response", "login"},
		{"late failure", "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, _ := m.states.StartRequest(tt.recipe)
			late := executeRecipe(m.engine, m.repo, m.logger, recipeByID(t, m, tt.recipe), m.renderContext(), first)()

			m.Update(collectionLoadedMsg{collection: testCollection(server.URL)})
			second, ok := m.states.StartRequest(tt.recipe)
			if !ok {
				t.Fatal("StartRequest rejected after reload")
			}

			m.Update(late)
			loading, ok := m.states.StateFor(tt.recipe).(LoadingState)
			if !ok || loading.RequestID != second {
				t.Fatalf("Late completion replaced the new request: %#v", m.states.StateFor(tt.recipe))
			}

			current := executeRecipe(m.engine, m.repo, m.logger, recipeByID(t, m, tt.recipe), m.renderContext(), second)()
			m.Update(current)
			if _, loading := m.states.StateFor(tt.recipe).(LoadingState); loading {
				t.Error("Completion of the new request was dropped")
			}
		})
	}
}

func TestModel_ReloadKeepsSelection(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	m.moveSelection(1)

	reloaded := testCollection("http://localhost")
	reloaded.Requests = append([]types.Recipe{{ID: "first", Method: "GET", URL: "/"}}, reloaded.Requests...)
	m.Update(collectionLoadedMsg{collection: reloaded})

	if recipe := m.selectedRecipe(); recipe == nil || recipe.ID != "me" {
		t.Errorf("Expected me to stay selected, got %v", recipe)
	}
}

func TestModel_ReloadError(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	m.Update(collectionLoadedMsg{err: errors.New("bad yaml")})

	if m.notification == nil || !strings.Contains(m.notification.Message, "bad yaml") {
		t.Errorf("Expected reload failure notification, got %+v", m.notification)
	}
	AssertModelField(t, "visible", len(m.visible), 3)
}

func TestModel_SendRejectedWhileLoading(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	m.states.StartRequest("login")

	m.sendSelected()

	if m.notification == nil || !strings.Contains(m.notification.Message, "already in flight") {
		t.Errorf("Expected in-flight notification, got %+v", m.notification)
	}
}

func TestModel_NotificationExpiry(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")

	m.notify("first")
	firstID := m.notification.id
	m.notify("second")

	m.Update(notificationExpiredMsg{id: firstID})
	if m.notification == nil || m.notification.Message != "second" {
		t.Fatalf("Stale expiry cleared the newer notification: %+v", m.notification)
	}

	m.Update(notificationExpiredMsg{id: m.notification.id})
	if m.notification != nil {
		t.Errorf("Expected notification cleared, got %+v", m.notification)
	}
}

func TestModel_Filter(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	AssertModelField(t, "mode", m.mode, ModeSearch)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("me")})
	AssertModelField(t, "searchQuery", m.searchQuery, "me")
	AssertModelField(t, "visible", len(m.visible), 1)
	if recipe := m.selectedRecipe(); recipe == nil || recipe.ID != "me" {
		t.Errorf("Expected me selected, got %v", recipe)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "mode", m.mode, ModeNormal)
	AssertModelField(t, "visible", len(m.visible), 3)
}

func TestModel_MoveSelectionPersists(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	AssertModelField(t, "recipeIndex", m.recipeIndex, 1)
	AssertModelField(t, "session", m.sessionMgr.Get().SelectedRecipe, types.RecipeID("me"))

	// Clamped at both ends
	m.moveSelection(5)
	AssertModelField(t, "recipeIndex", m.recipeIndex, 1)
	m.moveSelection(-1)
	m.moveSelection(-1)
	AssertModelField(t, "recipeIndex", m.recipeIndex, 0)
}

func TestModel_Preview(t *testing.T) {
	m := CreateTestModel(t, "http://localhost:8080")

	msg := m.refreshPreview()()
	m.Update(msg)
	AssertModelField(t, "preview", m.preview.text, "http://localhost:8080/login")
	AssertModelField(t, "failed", m.preview.failed, false)

	// A preview for a recipe that is no longer selected is ignored
	stale := m.refreshPreview()()
	m.moveSelection(1)
	m.Update(stale)
	if m.preview.recipeID == "me" {
		t.Error("Expected stale preview to be ignored")
	}
}

func TestModel_SwitchProfile(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")

	m.switchProfile(1)
	AssertModelField(t, "active", m.sessionMgr.Get().ActiveProfile, "other")

	rc := m.renderContext()
	url, err := template.Render(context.Background(), "{{host}}", rc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	AssertModelField(t, "host", url, "http://127.0.0.1:1")

	if cmd := m.switchProfile(9); cmd != nil {
		t.Error("Expected out-of-range profile to be ignored")
	}
}

func TestModel_HistoryPane(t *testing.T) {
	server := newTestServer(t)
	m := CreateTestModel(t, server.URL)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	send(t, m, "login")
	send(t, m, "login")

	cmd := m.openHistory()
	AssertModelField(t, "mode", m.mode, ModeHistory)
	m.Update(cmd())

	loaded, err := m.history.Loaded()
	if !loaded || err != nil {
		t.Fatalf("Expected history loaded, got %v, %v", loaded, err)
	}
	AssertModelField(t, "records", len(m.history.Records()), 2)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	AssertModelField(t, "mode", m.mode, ModeNormal)
}

func TestModel_ErrorStateDuration(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m.states.now = clock.now

	id, _ := m.states.StartRequest("login")
	clock.advance(1500 * time.Millisecond)
	m.states.FailRequest("login", id, errors.New("connection refused"))

	st := m.states.StateFor("login").(ErrorState)
	if got := m.formatErrorState(st); !strings.Contains(got, "Duration: 1.50s") {
		t.Errorf("Expected duration in error view, got:\n%s", got)
	}
}

func TestModel_View(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	if got := m.View(); got != "Initializing..." {
		t.Errorf("Expected placeholder before the first resize, got %q", got)
	}

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if view := m.View(); !strings.Contains(view, "Requests") {
		t.Error("Expected recipe list in main view")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	AssertModelField(t, "mode", m.mode, ModeHelp)
	if view := m.View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("Expected help screen")
	}
}

func TestHighlightTemplate(t *testing.T) {
	m := CreateTestModel(t, "http://localhost")
	rc := m.renderContext()

	text, failed := highlightTemplate(context.Background(), "{{host}}/users", rc)
	if failed || text != "http://localhost/users" {
		t.Errorf("Expected rendered URL, got %q (failed=%v)", text, failed)
	}

	text, failed = highlightTemplate(context.Background(), "{{host}}/{{ nope }}", rc)
	if !failed {
		t.Fatal("Expected failure")
	}
	if !strings.Contains(text, `unknown field "nope"`) {
		t.Errorf("Expected error message in preview, got %q", text)
	}
	if !strings.Contains(text, "{{ nope }}") {
		t.Errorf("Expected failing placeholder kept in preview, got %q", text)
	}
}

func TestHighlightBody_Text(t *testing.T) {
	resp := &types.Response{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"text/plain"}},
		Body:       "hello",
	}
	if got := highlightBody(resp); got != "hello" {
		t.Errorf("Expected plain body unchanged, got %q", got)
	}
}
