package types

import (
	"fmt"
	"sort"
)

// RecipeID identifies a request recipe within a collection. It keys in-flight
// state and is the source reference of a chain.
type RecipeID string

// Recipe is a reusable request definition. Every string field may contain
// {{ }} placeholders that are resolved at send time.
type Recipe struct {
	ID      RecipeID          `json:"id" yaml:"id"`
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    *string           `json:"body,omitempty" yaml:"body,omitempty"`
}

// DisplayName returns the recipe name, falling back to its id
func (r *Recipe) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.ID)
}

// HeaderNames returns header names in a stable order
func (r *Recipe) HeaderNames() []string {
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile is a named set of field values
type Profile struct {
	ID   string            `json:"id" yaml:"id"`
	Name string            `json:"name,omitempty" yaml:"name,omitempty"`
	Data map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// DisplayName returns the profile name, falling back to its id
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Chain binds an id to data from the latest response of another recipe.
// When Path is set it is a JSONPath expression applied to the response body.
type Chain struct {
	ID     string   `json:"id" yaml:"id"`
	Source RecipeID `json:"source" yaml:"source"`
	Path   *string  `json:"path,omitempty" yaml:"path,omitempty"`
}

// Collection is everything loaded from a collection file
type Collection struct {
	Profiles []Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Chains   []Chain   `json:"chains,omitempty" yaml:"chains,omitempty"`
	Requests []Recipe  `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// Validate checks that ids are present and unique
func (c *Collection) Validate() error {
	profiles := make(map[string]bool)
	for _, p := range c.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profile is missing an id")
		}
		if profiles[p.ID] {
			return fmt.Errorf("duplicate profile id %q", p.ID)
		}
		profiles[p.ID] = true
	}

	recipes := make(map[RecipeID]bool)
	for _, r := range c.Requests {
		if r.ID == "" {
			return fmt.Errorf("request is missing an id")
		}
		if recipes[r.ID] {
			return fmt.Errorf("duplicate request id %q", r.ID)
		}
		recipes[r.ID] = true
	}

	chains := make(map[string]bool)
	for _, ch := range c.Chains {
		if ch.ID == "" {
			return fmt.Errorf("chain is missing an id")
		}
		if chains[ch.ID] {
			return fmt.Errorf("duplicate chain id %q", ch.ID)
		}
		chains[ch.ID] = true
	}

	return nil
}

// Recipe looks up a recipe by id
func (c *Collection) Recipe(id RecipeID) (*Recipe, bool) {
	for i := range c.Requests {
		if c.Requests[i].ID == id {
			return &c.Requests[i], true
		}
	}
	return nil, false
}

// Profile looks up a profile by id
func (c *Collection) Profile(id string) (*Profile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// TLSConfig holds optional client TLS settings
type TLSConfig struct {
	InsecureSkipVerify bool
	CAFile             string
	CertFile           string
	KeyFile            string
}

// Session represents persisted UI choices
type Session struct {
	ActiveProfile  string            `json:"activeProfile,omitempty"`
	SelectedRecipe RecipeID          `json:"selectedRecipe,omitempty"`
	Overrides      map[string]string `json:"overrides,omitempty"`
}
