package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/studiowebux/reqflow/internal/types"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Collection file formats
const (
	FormatYAML  = "yaml"
	FormatJSON  = "json"
	FormatJSONC = "jsonc"
	FormatHTTP  = "http"
)

// DetectFormat picks a collection format from the file extension, peeking at
// the content of .http files that actually hold structured data
func DetectFormat(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".http":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}

		content := strings.TrimSpace(string(data))
		if strings.HasPrefix(content, "{") {
			return FormatJSON, nil
		}
		if strings.HasPrefix(content, "---") {
			return FormatYAML, nil
		}
		return FormatHTTP, nil
	default:
		return "", fmt.Errorf("unsupported collection file extension %q", ext)
	}
}

// LoadCollection is the main entry point for reading a collection file in
// any supported format. The result is validated.
func LoadCollection(filePath string) (*types.Collection, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return nil, err
	}

	var collection *types.Collection
	if format == FormatHTTP {
		collection, err = ParseHTTPFile(filePath)
	} else {
		var data []byte
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		collection, err = ParseCollection(data, format)
	}
	if err != nil {
		return nil, err
	}

	if err := collection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collection %s: %w", filePath, err)
	}
	return collection, nil
}

// ParseCollection decodes structured collection data
func ParseCollection(data []byte, format string) (*types.Collection, error) {
	var collection types.Collection

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &collection); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &collection); err != nil {
			return nil, fmt.Errorf("failed to parse JSONC: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &collection); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported file format: %s", format)
	}

	return &collection, nil
}
