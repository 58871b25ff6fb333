package template

import "strings"

const (
	chainsPrefix = "chains"
	envPrefix    = "env"
)

// Key is a parsed placeholder key. The set of implementations is closed:
// FieldKey, ChainKey and EnvironmentKey.
type Key interface {
	isKey()
	String() string
}

// FieldKey resolves from overrides, then the profile
type FieldKey struct {
	Name string
}

// ChainKey resolves from the latest response of a chain's source recipe
type ChainKey struct {
	ID string
}

// EnvironmentKey resolves from a process environment variable
type EnvironmentKey struct {
	Name string
}

func (FieldKey) isKey()       {}
func (ChainKey) isKey()       {}
func (EnvironmentKey) isKey() {}

func (k FieldKey) String() string       { return k.Name }
func (k ChainKey) String() string       { return chainsPrefix + "." + k.ID }
func (k EnvironmentKey) String() string { return envPrefix + "." + k.Name }

// ParseKey classifies the text captured between the braces. The returned
// names are substrings of raw.
func ParseKey(raw string) (Key, bool) {
	segments := strings.Split(raw, ".")
	for _, s := range segments {
		if s == "" {
			return nil, false
		}
	}

	switch len(segments) {
	case 1:
		return FieldKey{Name: segments[0]}, true
	case 2:
		switch segments[0] {
		case chainsPrefix:
			return ChainKey{ID: segments[1]}, true
		case envPrefix:
			return EnvironmentKey{Name: segments[1]}, true
		}
	}
	return nil, false
}
