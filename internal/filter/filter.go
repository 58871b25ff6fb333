package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
	"github.com/sahilm/fuzzy"
	"github.com/studiowebux/reqflow/internal/types"
)

// Query applies a JMESPath expression to a JSON body and returns indented JSON
func Query(body string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// Pretty indents a JSON body. Anything else is returned unchanged.
func Pretty(body string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}

// MatchRecipes fuzzy-matches pattern against recipe display names and ids.
// It returns indexes into recipes, best match first. An empty pattern
// matches everything in order.
func MatchRecipes(recipes []types.Recipe, pattern string) []int {
	if pattern == "" {
		all := make([]int, len(recipes))
		for i := range recipes {
			all[i] = i
		}
		return all
	}

	names := make([]string, len(recipes))
	for i := range recipes {
		names[i] = recipes[i].DisplayName() + " " + string(recipes[i].ID)
	}

	matches := fuzzy.Find(pattern, names)
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}
