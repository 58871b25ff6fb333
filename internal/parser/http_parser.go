package parser

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/studiowebux/reqflow/internal/types"
)

var validMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// ParseHTTPFile parses a traditional .http file with ### separators.
//
// Annotations in comments:
//
//	# @id <recipe id>          defaults to the request name as snake_case
//	# @chain <chain id> [path] declares a chain sourced from this request
func ParseHTTPFile(filePath string) (*types.Collection, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	collection := &types.Collection{}
	var currentRequest *types.Recipe
	var chainIDs []string
	var chainPaths []*string
	var bodyLines []string
	inBody := false

	flush := func() {
		if currentRequest == nil {
			return
		}
		if inBody && len(bodyLines) > 0 {
			body := strings.TrimRight(strings.Join(bodyLines, "\n"), "\n")
			if body != "" {
				currentRequest.Body = &body
			}
		}
		if currentRequest.ID == "" {
			currentRequest.ID = recipeIDFromName(currentRequest.Name, len(collection.Requests)+1)
		}
		for i, id := range chainIDs {
			collection.Chains = append(collection.Chains, types.Chain{
				ID:     id,
				Source: currentRequest.ID,
				Path:   chainPaths[i],
			})
		}
		collection.Requests = append(collection.Requests, *currentRequest)
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		// New request separator
		if strings.HasPrefix(line, "###") {
			flush()
			currentRequest = &types.Recipe{
				Name:    strings.TrimSpace(strings.TrimPrefix(line, "###")),
				Headers: make(map[string]string),
			}
			chainIDs = nil
			chainPaths = nil
			bodyLines = nil
			inBody = false
			continue
		}

		if strings.HasPrefix(line, "#") && currentRequest != nil && !inBody {
			trimmed := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if strings.HasPrefix(trimmed, "@id ") {
				currentRequest.ID = types.RecipeID(strings.TrimSpace(strings.TrimPrefix(trimmed, "@id")))
				continue
			}
			if strings.HasPrefix(trimmed, "@chain ") {
				fields := strings.Fields(strings.TrimPrefix(trimmed, "@chain"))
				if len(fields) == 0 {
					return nil, fmt.Errorf("line %d: @chain requires an id", lineNum)
				}
				var path *string
				if len(fields) > 1 {
					p := strings.Join(fields[1:], " ")
					path = &p
				}
				chainIDs = append(chainIDs, fields[0])
				chainPaths = append(chainPaths, path)
			}
			// Other comments are documentation
			continue
		}

		// HTTP method and URL (e.g., GET http://example.com)
		if currentRequest != nil && currentRequest.Method == "" {
			parts := strings.Fields(line)
			if len(parts) >= 2 && isMethod(parts[0]) {
				currentRequest.Method = parts[0]
				if !strings.HasPrefix(parts[0], "{{") {
					currentRequest.Method = strings.ToUpper(parts[0])
				}
				currentRequest.URL = parts[1]
			}
			continue
		}

		// Empty line after headers starts body (check BEFORE skipping empty lines)
		if currentRequest != nil && strings.TrimSpace(line) == "" && !inBody {
			inBody = true
			continue
		}

		// Headers (Key: Value) - only parse as header if not in body
		if currentRequest != nil && !inBody && strings.Contains(line, ":") {
			// Indented lines are body content
			if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
				inBody = true
				bodyLines = append(bodyLines, line)
				continue
			}

			parts := strings.SplitN(line, ":", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if key == "" || strings.ContainsAny(key, " \t[\"'") {
				inBody = true
				bodyLines = append(bodyLines, line)
				continue
			}

			currentRequest.Headers[key] = value
			continue
		}

		if currentRequest != nil && inBody {
			bodyLines = append(bodyLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	flush()
	return collection, nil
}

func isMethod(s string) bool {
	if strings.HasPrefix(s, "{{") {
		return true
	}
	upper := strings.ToUpper(s)
	for _, m := range validMethods {
		if upper == m {
			return true
		}
	}
	return false
}

// recipeIDFromName turns "Get User" into "get_user"
func recipeIDFromName(name string, index int) types.RecipeID {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			sb.WriteByte('_')
			lastUnderscore = true
		}
	}
	id := strings.TrimSuffix(sb.String(), "_")
	if id == "" {
		return types.RecipeID(fmt.Sprintf("request_%d", index))
	}
	return types.RecipeID(id)
}
