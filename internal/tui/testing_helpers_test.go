package tui

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/history"
	"github.com/studiowebux/reqflow/internal/session"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

// newTestServer serves a login endpoint and a protected endpoint that
// needs the login token
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"abc123"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ada"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// testCollection has two chained recipes and one that cannot render
func testCollection(host string) *types.Collection {
	token := "$.token"
	return &types.Collection{
		Profiles: []types.Profile{
			{ID: "local", Data: map[string]string{"host": host}},
			{ID: "other", Name: "Other", Data: map[string]string{"host": "http://127.0.0.1:1"}},
		},
		Chains: []types.Chain{
			{ID: "token", Source: "login", Path: &token},
		},
		Requests: []types.Recipe{
			{ID: "login", Method: "POST", URL: "{{host}}/login"},
			{ID: "me", Method: "GET", URL: "{{host}}/me", Headers: map[string]string{"Authorization": "Bearer {{chains.token}}"}},
			{ID: "bad", Name: "Broken", Method: "GET", URL: "{{host}}/{{nope}}"},
		},
	}
}

// CreateTestModel creates a Model backed by an in-memory history database
// and a session file in a temp directory
func CreateTestModel(t *testing.T, host string) *Model {
	t.Helper()
	return createTestModelWithSession(t, host, session.NewManager(filepath.Join(t.TempDir(), "session.json")))
}

func createTestModelWithSession(t *testing.T, host string, mgr *session.Manager) *Model {
	t.Helper()

	repo, err := history.NewManager(history.MemoryDB)
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	engine, err := executor.NewEngine(nil, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	m, err := New(Options{
		Collection: testCollection(host),
		Engine:     engine,
		Repository: repo,
		Session:    mgr,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	return &m
}

// recipeByID returns a copy of the recipe with id
func recipeByID(t *testing.T, m *Model, id types.RecipeID) types.Recipe {
	t.Helper()
	recipe, ok := m.collection.Recipe(id)
	if !ok {
		t.Fatalf("recipe %q not in collection", id)
	}
	return *recipe
}

// AssertModelField is a generic helper for checking model field values
func AssertModelField[T comparable](t *testing.T, fieldName string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}
