package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/studiowebux/reqflow/internal/types"
)

// Manager persists UI choices between runs
type Manager struct {
	path    string
	session *types.Session
}

// NewManager creates a session manager backed by path
func NewManager(path string) *Manager {
	return &Manager{
		path:    path,
		session: &types.Session{Overrides: make(map[string]string)},
	}
}

// Load reads the session file. A missing file leaves the empty session.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}
	if session.Overrides == nil {
		session.Overrides = make(map[string]string)
	}

	m.session = &session
	return nil
}

// Save writes the session to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Get returns the current session
func (m *Manager) Get() *types.Session {
	return m.session
}

// SetActiveProfile records the active profile id
func (m *Manager) SetActiveProfile(id string) {
	m.session.ActiveProfile = id
}

// SetSelectedRecipe records the selected recipe id
func (m *Manager) SetSelectedRecipe(id types.RecipeID) {
	m.session.SelectedRecipe = id
}

// SetOverride sets a one-off field value
func (m *Manager) SetOverride(key, value string) {
	m.session.Overrides[key] = value
}

// DeleteOverride removes a one-off field value
func (m *Manager) DeleteOverride(key string) {
	delete(m.session.Overrides, key)
}

// Overrides returns a copy of the override map, safe to hand to a render
func (m *Manager) Overrides() map[string]string {
	out := make(map[string]string, len(m.session.Overrides))
	for k, v := range m.session.Overrides {
		out[k] = v
	}
	return out
}

// ResolveProfile returns the active profile from the collection, falling
// back to the first profile when the stored id no longer exists
func (m *Manager) ResolveProfile(collection *types.Collection) *types.Profile {
	if p, ok := collection.Profile(m.session.ActiveProfile); ok {
		return p
	}
	if len(collection.Profiles) > 0 {
		return &collection.Profiles[0]
	}
	return nil
}
